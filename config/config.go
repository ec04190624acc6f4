package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultFeedURL is the published TSV export of the places sheet.
const DefaultFeedURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vSpdxaFzuIB1AgaMdA26nLenJgezEMRMtEAGuXT1dGb0vFa-zbZCjWHT0KerR1RmkBl5XBZ0PBV6NyJ/pub?gid=1576459715&single=true&output=tsv"

type Config struct {
	Port           string
	FeedURL        string
	RedisAddr      string
	RedisDB        int
	MongoURI       string
	MongoDB        string
	AdminPIN       string
	JWTSecret      string
	AllowedOrigins []string
	DefaultLang    string
	LogLevel       string

	// EnvFile reports whether Load found a .env file.
	EnvFile bool
}

// Load reads .env when present, then the environment. Redis and MongoDB
// are optional: empty addresses disable them.
func Load() (*Config, error) {
	envErr := godotenv.Load()
	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envErr == nil
	return cfg, nil
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:        get("PORT", "8080"),
		FeedURL:     get("FEED_URL", DefaultFeedURL),
		RedisAddr:   get("REDIS_ADDR", ""),
		MongoURI:    get("MONGODB_URI", ""),
		MongoDB:     get("MONGODB_DB", "roles_db"),
		AdminPIN:    get("ADMIN_PIN", "1234"),
		JWTSecret:   get("JWT_SECRET", ""),
		DefaultLang: get("DEFAULT_LANG", "pt"),
		LogLevel:    get("LOG_LEVEL", "info"),
	}

	redisDB, err := strconv.Atoi(get("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}
	cfg.RedisDB = redisDB

	for _, o := range strings.Split(get("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}

// ValidateServer checks what the HTTP server needs on top of the feed.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}
