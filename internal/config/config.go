package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	AppBaseURL     string
	MigrationsPath string

	// Database: sqlite by default, postgres/mysql via DATABASE_TYPE + DATABASE_URL
	DatabaseType string
	DatabaseURL  string
	DatabasePath string

	SessionDuration time.Duration

	// Signing secrets. Invitation tokens and profile session tokens are
	// HS256 JWTs; each gets its own key.
	InvitationSecret   string
	ProfileTokenSecret string
	InvitationTTL      time.Duration
	ProfileTokenTTL    time.Duration

	// Email (Amazon SES); empty SESFromEmail disables sending
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	// Google OAuth login
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	// Rate limiting for auth and registration endpoints
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DatabasePath: getEnv("DB_PATH", "./alumnihub.db"),

		SessionDuration: getDuration("SESSION_DURATION", 24*time.Hour),

		InvitationSecret:   getEnv("INVITATION_SECRET", ""),
		ProfileTokenSecret: getEnv("PROFILE_TOKEN_SECRET", ""),
		InvitationTTL:      getDuration("INVITATION_TTL", 72*time.Hour),
		ProfileTokenTTL:    getDuration("PROFILE_TOKEN_TTL", 12*time.Hour),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "AlumniHub"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", getEnv("APP_BASE_URL", "http://localhost:8080")),

		AuthRateLimit:  getInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow: getDuration("AUTH_RATE_WINDOW", time.Minute),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid value for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}
