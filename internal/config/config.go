package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage and ledger backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string `envconfig:"APP_NAME" default:"InvoicePool"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"memory"`
	LedgerBackend  string `envconfig:"LEDGER_BACKEND" default:"memory"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	RedisURL       string `envconfig:"REDIS_URL"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	InvoiceContract string `envconfig:"INVOICE_CONTRACT" default:"invoice-registry"`
	PoolContract    string `envconfig:"POOL_CONTRACT" default:"lending-pool"`
	EventStream     string `envconfig:"EVENT_STREAM"`

	ShutdownPeriod time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	StorageLockTTL time.Duration `envconfig:"STORAGE_LOCK_TTL" default:"10s"`
}

// devSecret signs approval tokens in development when JWT_SECRET is unset.
const devSecret = "dev-only-insecure-secret"

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	cfg.LedgerBackend = strings.ToLower(cfg.LedgerBackend)

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devSecret
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every selected backend has its connection settings.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set when STORAGE_BACKEND=postgres"))
		}
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL must be set when STORAGE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}

	switch c.LedgerBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set when LEDGER_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_BACKEND %q", c.LedgerBackend))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.InvoiceContract == "" || c.PoolContract == "" {
		errs = append(errs, errors.New("INVOICE_CONTRACT and POOL_CONTRACT must not be empty"))
	} else if c.InvoiceContract == c.PoolContract {
		errs = append(errs, errors.New("INVOICE_CONTRACT and POOL_CONTRACT must differ"))
	}

	return errors.Join(errs...)
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
