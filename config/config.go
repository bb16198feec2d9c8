package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every configuration parameter of the application.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// LockTimeout bounds the wait for the tenant-match lock.
	LockTimeout time.Duration

	// HeavyResultThreshold is the goal difference at which a completed
	// match counts as a heavy win/loss.
	HeavyResultThreshold int

	// Optional Cloudflare R2 settings for the match-report archive. The
	// archive is disabled when these are unset.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// ArchiveEnabled reports whether the report archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	lockTimeoutMS, err := intFromEnv("LOCK_TIMEOUT_MS", 5000)
	if err != nil {
		return nil, err
	}
	if lockTimeoutMS <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT_MS must be positive, got %d", lockTimeoutMS)
	}

	heavyThreshold, err := intFromEnv("HEAVY_RESULT_THRESHOLD", 4)
	if err != nil {
		return nil, err
	}
	if heavyThreshold < 1 {
		return nil, fmt.Errorf("HEAVY_RESULT_THRESHOLD must be at least 1, got %d", heavyThreshold)
	}

	return &Config{
		DatabaseURL:          dbURL,
		JWTSecretKey:         jwtKey,
		ServerPort:           port,
		LockTimeout:          time.Duration(lockTimeoutMS) * time.Millisecond,
		HeavyResultThreshold: heavyThreshold,
		R2AccountID:          os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:        os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:    os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:         os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:      os.Getenv("R2_PUBLIC_BASE_URL"),
	}, nil
}

func intFromEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
