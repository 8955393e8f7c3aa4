// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

// DefaultAllowedOrigin is the deployed frontend.
const DefaultAllowedOrigin = "https://capstone-foodorderdelivery-project.netlify.app"

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	JWTSecret string
	JWTTTL    time.Duration

	RazorpayKeyID     string
	RazorpayKeySecret string

	AllowedOrigins []string
	RedisURL       string
	AdminSignupKey string
	LogLevel       slog.Level
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("food-order", flag.ContinueOnError)

	var origins, ttl, logLevel string

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (postgres or sqlite)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the token revocation list")
	fs.StringVar(&origins, "origins", "", "Comma separated list of allowed CORS origins")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")
	fs.StringVar(&ttl, "jwt-ttl", "", "JWT lifetime, e.g. 24h")
	fs.StringVar(&cfg.RazorpayKeyID, "razorpay-key", "", "Razorpay key id (prefer env)")
	fs.StringVar(&cfg.RazorpayKeySecret, "razorpay-secret", "", "Razorpay key secret (prefer env)")
	fs.StringVar(&cfg.AdminSignupKey, "admin-signup-key", "", "Key required to register admins (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3000 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabasePostgres
		}
	}
	if cfg.DatabaseType != DatabasePostgres && cfg.DatabaseType != DatabaseSQLite {
		return Config{}, errors.New("database type must be postgres or sqlite")
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = splitOrigins(origins)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{DefaultAllowedOrigin}
	}

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
			return Config{}, errors.New("invalid LOG_LEVEL")
		}
	}

	// Secrets - JWT secret MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if ttl == "" {
		ttl = os.Getenv("JWT_TTL")
	}
	cfg.JWTTTL = 24 * time.Hour
	if ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return Config{}, errors.New("invalid JWT_TTL")
		}
		cfg.JWTTTL = d
	}

	// Payment secrets are optional; the payment routes refuse to work without them
	if cfg.RazorpayKeyID == "" {
		cfg.RazorpayKeyID = os.Getenv("RAZORPAY_KEY_ID")
	}
	if cfg.RazorpayKeySecret == "" {
		cfg.RazorpayKeySecret = os.Getenv("RAZORPAY_KEY_SECRET")
	}

	if cfg.AdminSignupKey == "" {
		cfg.AdminSignupKey = os.Getenv("ADMIN_SIGNUP_KEY")
	}

	return cfg, nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
