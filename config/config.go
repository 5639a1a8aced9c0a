package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"

	auth "github.com/goliatone/go-otp-auth"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env        string
	Port       int
	JWTSecret  string `mask:"filled"`
	JWTIssuer  string
	SessionTTL time.Duration
	PendingTTL time.Duration
	CookieName string

	DBDriver    string
	DatabaseURL string `mask:"filled"`

	SMTP auth.SMTPConfig

	RegisterRateMax    int
	RegisterRateWindow time.Duration

	LogLevel string
}

var _ auth.Config = (*Config)(nil)

// Load reads the given dotenv files, ".env" when none are given, and then
// the process environment. Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read dotenv file")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the environment without validating it.
// Values that are set but cannot be parsed are reported, never replaced by
// their defaults.
func FromEnv() (*Config, error) {
	r := &envReader{}
	env := r.str("ENV", r.str("NODE_ENV", EnvDevelopment))

	cfg := &Config{
		Env:        strings.ToLower(env),
		Port:       r.int("PORT", 8000),
		JWTSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:  r.str("JWT_ISSUER", "go-otp-auth"),
		SessionTTL: r.duration("SESSION_TTL", auth.DefaultSessionTTL),
		PendingTTL: r.duration("PENDING_TTL", auth.DefaultPendingTTL),
		CookieName: r.str("COOKIE_NAME", auth.DefaultCookieName),

		DBDriver:    strings.ToLower(r.str("DB_DRIVER", DriverSQLite)),
		DatabaseURL: r.str("DATABASE_URL", "file:auth.db?cache=shared"),

		SMTP: auth.SMTPConfig{
			Host:     r.str("SMTP_HOST", ""),
			Port:     r.int("SMTP_PORT", 587),
			Username: r.str("SMTP_USER", ""),
			Password: os.Getenv("SMTP_PASS"),
			From:     r.str("MAIL_FROM", "no-reply@localhost"),
		},

		RegisterRateMax:    r.int("REGISTER_RATE_MAX", 5),
		RegisterRateWindow: r.duration("REGISTER_RATE_WINDOW", 15*time.Minute),

		LogLevel: strings.ToLower(r.str("LOG_LEVEL", "info")),
	}

	if len(r.errs) > 0 {
		return nil, goerrors.NewValidation("invalid configuration", r.errs...)
	}
	return cfg, nil
}

// Validate fails fast on settings the server cannot run without, most
// importantly an empty signing secret.
func (c *Config) Validate() error {
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)

	err := validation.ValidateStruct(c,
		validation.Field(&c.JWTSecret, validation.Required.Error("JWT_SECRET is required")),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DBDriver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.SessionTTL, validation.Min(time.Minute)),
		validation.Field(&c.PendingTTL, validation.Min(time.Minute)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction || c.Env == "prod"
}

// UsesSMTP reports whether mail should go through SMTP or the logger
func (c *Config) UsesSMTP() bool {
	return c.SMTP.Host != ""
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c *Config) GetSigningKey() string        { return c.JWTSecret }
func (c *Config) GetIssuer() string            { return c.JWTIssuer }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }
func (c *Config) GetPendingTTL() time.Duration { return c.PendingTTL }
func (c *Config) GetCookieName() string        { return c.CookieName }
func (c *Config) GetSecureCookies() bool       { return c.IsProduction() }

// envReader collects parse failures so every malformed variable is
// reported at once
type envReader struct {
	errs []goerrors.FieldError
}

func (r *envReader) str(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func (r *envReader) int(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		r.errs = append(r.errs, goerrors.FieldError{Field: key, Message: "must be an integer", Value: val})
		return fallback
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		r.errs = append(r.errs, goerrors.FieldError{Field: key, Message: "must be a duration such as 90m or 120h", Value: val})
		return fallback
	}
	return parsed
}
