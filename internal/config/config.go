package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/spec-kit/project-portal/internal/domain"
)

// Credential comparison schemes accepted by AUTH_CREDENTIAL_SCHEME.
const (
	CredentialSchemePlain  = "plain"
	CredentialSchemeBcrypt = "bcrypt"
)

// Config aggregates runtime configuration for the server and the CLI.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Postgres PostgresConfig `koanf:"postgres"`
	Redis    RedisConfig    `koanf:"redis"`
	Logger   LoggerConfig   `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Client   ClientConfig   `koanf:"client"`
	OTEL     OTELConfig     `koanf:"otel"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name           string        `koanf:"name"`
	Env            string        `koanf:"env"`
	Host           string        `koanf:"host"`
	Port           string        `koanf:"port"`
	Version        string        `koanf:"version"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN           string        `koanf:"dsn"`
	MaxConns      int32         `koanf:"max_conns"`
	MinConns      int32         `koanf:"min_conns"`
	RunMigrations bool          `koanf:"run_migrations"`
	MigrationsDir string        `koanf:"migrations_dir"`
	ConnMaxIdle   time.Duration `koanf:"conn_max_idle"`
	ConnMaxLife   time.Duration `koanf:"conn_max_life"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret        string        `koanf:"jwt_secret"`
	AccessTTL        time.Duration `koanf:"access_ttl"`
	RefreshTTL       time.Duration `koanf:"refresh_ttl"`
	CredentialScheme string        `koanf:"credential_scheme"`
	BcryptCost       int           `koanf:"bcrypt_cost"`
	LoginMaxFailures int           `koanf:"login_max_failures"`
	LoginWindow      time.Duration `koanf:"login_window"`
}

// ClientConfig configures the portalctl client.
type ClientConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	SessionFile string        `koanf:"session_file"`
}

// OTELConfig configures tracing. An empty endpoint keeps spans in process.
type OTELConfig struct {
	Endpoint string `koanf:"endpoint"`
}

// sections lists the env prefixes Load understands. Anything else in the
// environment is ignored.
var sections = map[string]struct{}{
	"app":      {},
	"postgres": {},
	"redis":    {},
	"log":      {},
	"auth":     {},
	"client":   {},
	"otel":     {},
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:           "project-portal",
			Env:            "development",
			Host:           "0.0.0.0",
			Port:           "8080",
			Version:        "dev",
			RequestTimeout: 30 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxConns:      10,
			MinConns:      2,
			RunMigrations: true,
			MigrationsDir: "migrations",
			ConnMaxIdle:   30 * time.Second,
			ConnMaxLife:   5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			AccessTTL:        24 * time.Hour,
			RefreshTTL:       7 * 24 * time.Hour,
			CredentialScheme: CredentialSchemePlain,
			BcryptCost:       12,
			LoginMaxFailures: 5,
			LoginWindow:      15 * time.Minute,
		},
		Client: ClientConfig{
			BaseURL:     "http://127.0.0.1:8080",
			Timeout:     10 * time.Second,
			SessionFile: ".portal-session.json",
		},
	}
}

// Load reads configuration from .env and the environment over compiled
// defaults. The first underscore separates the section from the key, so
// AUTH_JWT_SECRET lands in Auth.JWTSecret.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	section, rest, ok := strings.Cut(strings.ToLower(s), "_")
	if !ok || rest == "" {
		return ""
	}
	if _, known := sections[section]; !known {
		return ""
	}
	return section + "." + rest
}

// Validate checks values that would otherwise fail later at runtime. The JWT
// secret is not checked here because the CLI loads the same config without
// one; the server fails on it when building the token codec.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.App.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: APP_PORT %q", domain.ErrInvalidInput, c.App.Port)
	}
	if c.Auth.AccessTTL <= 0 {
		return fmt.Errorf("%w: AUTH_ACCESS_TTL must be positive", domain.ErrInvalidInput)
	}
	if c.Auth.RefreshTTL < c.Auth.AccessTTL {
		return fmt.Errorf("%w: AUTH_REFRESH_TTL must not be shorter than AUTH_ACCESS_TTL", domain.ErrInvalidInput)
	}
	switch c.Auth.CredentialScheme {
	case CredentialSchemePlain, CredentialSchemeBcrypt:
	default:
		return fmt.Errorf("%w: AUTH_CREDENTIAL_SCHEME %q", domain.ErrInvalidInput, c.Auth.CredentialScheme)
	}
	if c.Auth.LoginMaxFailures <= 0 || c.Auth.LoginWindow <= 0 {
		return fmt.Errorf("%w: login throttle needs positive AUTH_LOGIN_MAX_FAILURES and AUTH_LOGIN_WINDOW", domain.ErrInvalidInput)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether APP_ENV is production.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}
