package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	NATS      NATSConfig
	Rollbar   RollbarConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	BaseURL        string
	AllowedOrigins []string
	MigrationsDir  string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type SessionConfig struct {
	CookieName  string
	IdleTimeout time.Duration
	Secure      bool
}

type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

type MailConfig struct {
	Provider       string // sendgrid, resend or log
	SendgridAPIKey string
	ResendAPIKey   string
	FromName       string
	FromAddress    string
}

type NATSConfig struct {
	URL string
}

type RollbarConfig struct {
	Token string
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

var defaults = map[string]any{
	"SERVER_PORT":              "8080",
	"SERVER_ENV":               "development",
	"APP_BASE_URL":             "http://localhost:8080",
	"CORS_ALLOWED_ORIGINS":     "http://localhost:3000",
	"MIGRATIONS_DIR":           "migrations",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "5432",
	"DB_SCHEMA":                "public",
	"DB_MAX_OPEN_CONNS":        25,
	"DB_MAX_IDLE_CONNS":        10,
	"REDIS_HOST":               "localhost",
	"REDIS_PORT":               "6379",
	"REDIS_DB":                 0,
	"JWT_ACCESS_EXPIRY":        15,
	"JWT_REFRESH_EXPIRY":       7,
	"SESSION_COOKIE_NAME":      "session",
	"SESSION_IDLE_TIMEOUT":     "30m",
	"RATE_LIMIT_AUTH_REQUESTS": 10,
	"RATE_LIMIT_AUTH_WINDOW":   "1m",
	"MAIL_PROVIDER":            "log",
	"MAIL_FROM_NAME":           "Store Back Office",
	"MAIL_FROM_ADDRESS":        "no-reply@localhost",
}

// Load reads .env and the environment; the environment wins
func Load() *Config {
	// godotenv exports .env into the process so child tooling (goose, psql) sees the same values
	_ = godotenv.Load()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	env := viper.GetString("SERVER_ENV")

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            env,
			BaseURL:        strings.TrimRight(viper.GetString("APP_BASE_URL"), "/"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			MigrationsDir:  viper.GetString("MIGRATIONS_DIR"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Database:     viper.GetString("DB_DATABASE"),
			Schema:       viper.GetString("DB_SCHEMA"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Session: SessionConfig{
			CookieName:  viper.GetString("SESSION_COOKIE_NAME"),
			IdleTimeout: viper.GetDuration("SESSION_IDLE_TIMEOUT"),
			Secure:      env == "production",
		},
		RateLimit: RateLimitConfig{
			AuthRequests: viper.GetInt("RATE_LIMIT_AUTH_REQUESTS"),
			AuthWindow:   viper.GetDuration("RATE_LIMIT_AUTH_WINDOW"),
		},
		Mail: MailConfig{
			Provider:       strings.ToLower(viper.GetString("MAIL_PROVIDER")),
			SendgridAPIKey: viper.GetString("SENDGRID_API_KEY"),
			ResendAPIKey:   viper.GetString("RESEND_API_KEY"),
			FromName:       viper.GetString("MAIL_FROM_NAME"),
			FromAddress:    viper.GetString("MAIL_FROM_ADDRESS"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Rollbar: RollbarConfig{
			Token: viper.GetString("ROLLBAR_TOKEN"),
		},
	}
}

// Validate reports every setting the API server cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.JWT.AccessExpiry <= 0 || c.JWT.RefreshExpiry <= 0 {
		errs = append(errs, errors.New("JWT expiries must be positive"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.Session.IdleTimeout))
	}
	switch c.Mail.Provider {
	case "sendgrid":
		if c.Mail.SendgridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY must be set for the sendgrid provider"))
		}
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY must be set for the resend provider"))
		}
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
