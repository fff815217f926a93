package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/showmanfest/luckydraw/draw"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL  string
	ServerPort   int
	CORSOrigins  []string
	JWTSecretKey string

	AdminUsername     string
	AdminPasswordHash string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// Draw tuning. The cutover and digit sets are event configuration,
	// not code constants.
	DrawRule draw.Rule
}

// Load reads configuration from the environment, optionally seeded from a
// .env file for local development.
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

	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = "admin"
	}
	adminPasswordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminPasswordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is not set")
	}

	port, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	rule, err := drawRuleFromEnv()
	if err != nil {
		return nil, err
	}

	origins := []string{"*"}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return &Config{
		DatabaseURL:       dbURL,
		ServerPort:        port,
		CORSOrigins:       origins,
		JWTSecretKey:      jwtKey,
		AdminUsername:     adminUsername,
		AdminPasswordHash: adminPasswordHash,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		DrawRule:          rule,
	}, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}

func drawRuleFromEnv() (draw.Rule, error) {
	rule := draw.DefaultRule()

	cutover, err := intFromEnv("DRAW_CUTOVER", rule.Cutover)
	if err != nil {
		return draw.Rule{}, err
	}
	if cutover < 0 {
		return draw.Rule{}, fmt.Errorf("DRAW_CUTOVER must not be negative, got %d", cutover)
	}
	rule.Cutover = cutover

	if rule.EarlyDigits, err = digitsFromEnv("DRAW_EARLY_DIGITS", rule.EarlyDigits); err != nil {
		return draw.Rule{}, err
	}
	if rule.LateDigits, err = digitsFromEnv("DRAW_LATE_DIGITS", rule.LateDigits); err != nil {
		return draw.Rule{}, err
	}
	return rule, nil
}

// digitsFromEnv parses a comma-separated digit list, e.g. "3,5".
func digitsFromEnv(key string, fallback []int) ([]int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	parts := strings.Split(raw, ",")
	digits := make([]int, 0, len(parts))
	for _, part := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 9 {
			return nil, fmt.Errorf("invalid %s environment variable: %q is not a digit", key, part)
		}
		digits = append(digits, d)
	}
	return digits, nil
}
