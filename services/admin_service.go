package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"roles-server/utils/errors"
)

const (
	AdminRole     = "admin"
	adminTokenTTL = 24 * time.Hour
)

// AdminService is the settings-area PIN gate. It is a placeholder-grade
// check against one shared secret, not a security boundary.
type AdminService struct {
	pinHash   []byte
	jwtSecret string
	now       func() time.Time
}

func NewAdminService(pin, jwtSecret string) (*AdminService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin pin: %w", err)
	}
	return &AdminService{pinHash: hash, jwtSecret: jwtSecret, now: time.Now}, nil
}

// CheckPin reports whether input equals the configured PIN.
func (s *AdminService) CheckPin(input string) bool {
	return bcrypt.CompareHashAndPassword(s.pinHash, []byte(input)) == nil
}

// Login checks the PIN and returns a signed admin token.
func (s *AdminService) Login(pin string) (string, error) {
	if !s.CheckPin(pin) {
		return "", errors.NewAPIError("WRONG_PIN", "Incorrect PIN", http.StatusUnauthorized)
	}
	return s.IssueToken()
}

func (s *AdminService) IssueToken() (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": AdminRole,
		"iat":  now.Unix(),
		"exp":  now.Add(adminTokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return tokenString, nil
}
