package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"family-tree-go/pkg/logger"
)

type Config struct {
	HTTPPort       string
	Env            string
	BaseURL        string
	AllowedOrigins []string
	DB             DBConfig
	Auth           AuthConfig
	Invites        InvitesConfig
	Mail           MailConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	SessionTTL    time.Duration
	CookieName    string
	SecureCookies bool
	// TOTPKey encrypts stored TOTP secrets. 32 bytes, hex encoded in env.
	TOTPKey []byte
}

type InvitesConfig struct {
	TTL time.Duration
}

type MailConfig struct {
	AWSRegion string
	FromEmail string
	FromName  string
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	totpKey, err := parseTOTPKey(os.Getenv("AUTH_TOTP_KEY"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		AllowedOrigins: splitOrigins(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "family_tree"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			SessionTTL:    getEnvDuration("AUTH_SESSION_TTL", 48*time.Hour),
			CookieName:    getEnv("AUTH_COOKIE_NAME", "family_session"),
			SecureCookies: getEnvBool("AUTH_SECURE_COOKIES", getEnv("ENV", "development") != "development"),
			TOTPKey:       totpKey,
		},
		Invites: InvitesConfig{
			TTL: getEnvDuration("INVITE_TTL", 24*time.Hour),
		},
		Mail: MailConfig{
			AWSRegion: getEnv("SES_AWS_REGION", "us-east-1"),
			FromEmail: getEnv("SES_FROM_EMAIL", ""),
			FromName:  getEnv("SES_FROM_NAME", "Family Tree"),
		},
	}, nil
}

// parseTOTPKey refuses to start without the key: invite enrollment and TOTP
// login would otherwise fail at request time with an opaque cipher error.
func parseTOTPKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("AUTH_TOTP_KEY is required (64 hex chars)")
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("AUTH_TOTP_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AUTH_TOTP_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
