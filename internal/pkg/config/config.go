package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Storage  string `env:"STORAGE,   default=mongo"`

	Auth      AuthConfig
	Cookie    CookieConfig
	CORS      CORSConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Audit     AuditConfig
	Bootstrap BootstrapConfig
}

type AuthConfig struct {
	// Secret keys every password and session token digest. Rotating it
	// invalidates all stored passwords.
	Secret             string        `env:"AUTH_SECRET, required"`
	MaxLoginFailures   int           `env:"LOGIN_MAX_FAILURES,   default=5"`
	LoginFailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW, default=15m"`
	RateLimit          float64       `env:"AUTH_RATE_LIMIT,      default=10"`
}

type CookieConfig struct {
	Name   string `env:"SESSION_COOKIE_NAME, default=ROOMZIO-AUTH"`
	Domain string `env:"COOKIE_DOMAIN,       default=localhost"`
	Secure bool   `env:"COOKIE_SECURE,       default=false"`
}

type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS, default=http://localhost:3000"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=roomzio"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// BootstrapConfig describes the admin account seeded at startup. It is
// skipped when Username is empty.
type BootstrapConfig struct {
	Username string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	Password string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	Email    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
}

// Development reports whether the service runs in the development environment.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads an optional .env file, then configuration from the process
// environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("config: STORAGE must be %q or %q, got %q", StorageMongo, StorageMemory, c.Storage)
	}
	if c.Bootstrap.Username != "" && c.Bootstrap.Password == "" {
		return errors.New("config: BOOTSTRAP_ADMIN_PASSWORD is required with BOOTSTRAP_ADMIN_USERNAME")
	}
	return nil
}
