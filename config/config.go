// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"

	"github.com/taskvault/taskvault"
)

// DefaultTokenExpirationHours keeps sessions alive for five days.
const DefaultTokenExpirationHours = 24 * 5

// DefaultCookieName is the httpOnly cookie carrying the session token.
const DefaultCookieName = "access_token"

// App holds every runtime setting the service needs.
type App struct {
	Port         string
	ClientOrigin string
	DatabaseDSN  string

	SigningKey      string
	TokenExpiration int
	Issuer          string
	CookieName      string

	SMTPHost     string
	SMTPUser     string
	SMTPPassword string
	MailAddress  string
	MailCertPath string
	MailSkipTLS  bool
}

var _ taskvault.Config = (*App)(nil)

// Load reads the optional .env file and then the environment. A missing
// .env is fine; a missing signing secret is not.
func Load() (*App, error) {
	// Best effort: the environment wins over the file either way.
	_ = godotenv.Load()

	cfg := &App{
		Port:            getEnv("PORT", "3000"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DatabaseDSN:     getEnv("DATABASE_DSN", "file:taskvault.db?cache=shared&_pragma=foreign_keys(1)"),
		SigningKey:      os.Getenv("JWT_SECRET"),
		TokenExpiration: getEnvInt("JWT_EXPIRATION_HOURS", DefaultTokenExpirationHours),
		Issuer:          getEnv("JWT_ISSUER", "taskvault"),
		CookieName:      getEnv("COOKIE_NAME", DefaultCookieName),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		MailAddress:     getEnv("MAIL_ADDRESS", "TaskVault <no-reply@taskvault.local>"),
		MailCertPath:    os.Getenv("MAIL_CERT_PATH"),
		MailSkipTLS:     getEnvBool("MAIL_SKIP_TLS_VERIFY", false),
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("JWT_SECRET must be set", errors.CategoryBadInput)
	}

	return cfg, nil
}

// GetSigningKey satisfies taskvault.Config.
func (a *App) GetSigningKey() string { return a.SigningKey }

// GetTokenExpiration satisfies taskvault.Config.
func (a *App) GetTokenExpiration() int { return a.TokenExpiration }

// GetIssuer satisfies taskvault.Config.
func (a *App) GetIssuer() string { return a.Issuer }

// GetCookieName satisfies taskvault.Config.
func (a *App) GetCookieName() string { return a.CookieName }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
