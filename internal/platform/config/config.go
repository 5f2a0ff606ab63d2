package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeJWT = "jwt"
	AuthModeDev = "dev"

	BackendMemory   = "memory"
	BackendSnapshot = "snapshot"
	BackendPostgres = "postgres"
)

// AuthConfig configures HS256 bearer token verification, or the dev subject header.
type AuthConfig struct {
	Mode      string
	Secret    string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	TokenTTL  time.Duration

	DevSubject string
}

type StorageConfig struct {
	Backend      string
	SnapshotPath string
	DatabaseURL  string
}

type AdvisorConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Config struct {
	Env  string
	Port string

	Auth    AuthConfig
	Storage StorageConfig
	Advisor AdvisorConfig

	// SeedPath, when set, is loaded into an empty store at startup.
	SeedPath string
	// SinglePending rejects a second pending edit request for the same member.
	SinglePending bool
	// IdempotencyTTL is how long Idempotency-Key records are kept. Zero keeps them forever.
	IdempotencyTTL time.Duration
}

func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev" || c.Env == "development"
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from getenv; unset variables take their defaults.
func FromLookup(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Env:  get("ENV", "dev"),
		Port: get("PORT", "8080"),
		Auth: AuthConfig{
			Mode:       get("AUTH_MODE", AuthModeJWT),
			Secret:     getenv("JWT_SECRET"),
			Issuer:     get("JWT_ISSUER", "roster-api"),
			Audience:   get("JWT_AUDIENCE", "roster-api"),
			ClockSkew:  30 * time.Second,
			TokenTTL:   12 * time.Hour,
			DevSubject: get("DEV_SUBJECT", ""),
		},
		Storage: StorageConfig{
			Backend:      get("STORAGE_BACKEND", BackendMemory),
			SnapshotPath: get("SNAPSHOT_PATH", "data/branch.yaml"),
			DatabaseURL:  getenv("DATABASE_URL"),
		},
		Advisor: AdvisorConfig{
			APIKey:  getenv("GENAI_API_KEY"),
			Model:   get("GENAI_MODEL", ""),
			Timeout: 30 * time.Second,
		},
		SeedPath:       getenv("SEED_PATH"),
		IdempotencyTTL: 24 * time.Hour,
	}

	var err error
	if cfg.Auth.ClockSkew, err = durationVar(getenv, "JWT_CLOCK_SKEW", cfg.Auth.ClockSkew); err != nil {
		return Config{}, err
	}
	if cfg.Auth.TokenTTL, err = durationVar(getenv, "JWT_TOKEN_TTL", cfg.Auth.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.Advisor.Timeout, err = durationVar(getenv, "GENAI_TIMEOUT", cfg.Advisor.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationVar(getenv, "IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(getenv("EDIT_REQUEST_SINGLE_PENDING")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("EDIT_REQUEST_SINGLE_PENDING must be a boolean: %w", err)
		}
		cfg.SinglePending = b
	}

	switch cfg.Auth.Mode {
	case AuthModeDev:
	case AuthModeJWT:
		if cfg.Auth.Secret == "" {
			return Config{}, errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return Config{}, fmt.Errorf("AUTH_MODE must be jwt or dev, got %q", cfg.Auth.Mode)
	}

	switch cfg.Storage.Backend {
	case BackendMemory:
	case BackendSnapshot:
		if cfg.Storage.SnapshotPath == "" {
			return Config{}, errors.New("SNAPSHOT_PATH is required when STORAGE_BACKEND=snapshot")
		}
	case BackendPostgres:
		if cfg.Storage.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be memory, snapshot or postgres, got %q", cfg.Storage.Backend)
	}

	return cfg, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
