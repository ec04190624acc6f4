package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roles-server/utils/errors"
)

func TestAdminService(t *testing.T) {
	admin, err := NewAdminService("1234", "secret")
	require.NoError(t, err)

	t.Run("CheckPin", func(t *testing.T) {
		assert.True(t, admin.CheckPin("1234"))
		assert.False(t, admin.CheckPin(""))
		assert.False(t, admin.CheckPin("12345"))
		assert.False(t, admin.CheckPin(" 1234"))
	})

	t.Run("LoginIssuesAdminToken", func(t *testing.T) {
		tokenString, err := admin.Login("1234")
		require.NoError(t, err)

		token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
		require.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, AdminRole, claims["role"])
		exp, err := claims.GetExpirationTime()
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp.Time, time.Minute)
	})

	t.Run("WrongPin", func(t *testing.T) {
		_, err := admin.Login("0000")
		require.Error(t, err)
		apiErr, ok := err.(*errors.APIError)
		require.True(t, ok)
		assert.Equal(t, "WRONG_PIN", apiErr.Code)
	})
}
