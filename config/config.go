package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rpupo63/our-little-infinity/errs"
)

const (
	StorageDriverS3     = "s3"
	StorageDriverMemory = "memory"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Port                string   `env:"PORT" envDefault:"8080"`
	Env                 string   `env:"ENV" envDefault:"development"`
	LogLevel            string   `env:"LOG_LEVEL" envDefault:"info"`
	ReadTimeoutSeconds  int      `env:"READ_TIMEOUT_SECONDS" envDefault:"180"`
	WriteTimeoutSeconds int      `env:"WRITE_TIMEOUT_SECONDS" envDefault:"180"`
	IdleTimeoutSeconds  int      `env:"IDLE_TIMEOUT_SECONDS" envDefault:"180"`
	ShutdownTimeout     int      `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"30"`
	AcceptedOrigins     []string `env:"ACCEPTED_ORIGINS" envSeparator:","`

	// Supabase Postgres
	DBType         string `env:"DB_TYPE" envDefault:"supa"`
	DBHost         string `env:"SUPABASE_DB_HOST"`
	DBUser         string `env:"SUPABASE_DB_USER"`
	DBPassword     string `env:"SUPABASE_DB_PASSWORD"`
	DBName         string `env:"SUPABASE_DB_NAME" envDefault:"postgres"`
	DBPort         string `env:"SUPABASE_DB_PORT" envDefault:"5432"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	// Supabase Storage through its S3-compatible endpoint
	StorageDriver          string `env:"STORAGE_DRIVER" envDefault:"s3"`
	StorageEndpoint        string `env:"SUPABASE_STORAGE_ENDPOINT"`
	StorageRegion          string `env:"SUPABASE_STORAGE_REGION" envDefault:"us-east-1"`
	StorageAccessKeyID     string `env:"SUPABASE_STORAGE_ACCESS_KEY_ID"`
	StorageSecretAccessKey string `env:"SUPABASE_STORAGE_SECRET_ACCESS_KEY"`
	StorageBucket          string `env:"SUPABASE_STORAGE_BUCKET" envDefault:"media"`
	StoragePublicURL       string `env:"SUPABASE_STORAGE_PUBLIC_URL"`

	// Sessions and login protection
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"720h"`
	LoginRateLimit  float64       `env:"LOGIN_RATE_LIMIT" envDefault:"0.5"`
	LoginBurst      int           `env:"LOGIN_BURST" envDefault:"5"`

	// Peers whose X-Forwarded-For and X-Real-IP headers are believed, as CIDRs
	// or bare addresses. Empty means the TCP peer is always the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Development switches
	GenerateModels       bool `env:"GENERATE_MODELS" envDefault:"false"`
	GenerateColumnReport bool `env:"GENERATE_COLUMN_REPORT" envDefault:"false"`
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.DBType != "supa" {
		return errs.NewConfigError("DB_TYPE", fmt.Errorf("unsupported DB_TYPE %q", c.DBType))
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverS3:
		if c.StorageEndpoint == "" || c.StorageAccessKeyID == "" || c.StorageSecretAccessKey == "" {
			return errs.NewConfigError("SUPABASE_STORAGE_ENDPOINT",
				errors.New("s3 storage needs an endpoint, an access key id and a secret access key"))
		}
		if c.StoragePublicURL == "" {
			return errs.NewConfigError("SUPABASE_STORAGE_PUBLIC_URL", errors.New("public URL base is required"))
		}
	default:
		return errs.NewConfigError("STORAGE_DRIVER", fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}

	if c.LoginRateLimit <= 0 || c.LoginBurst <= 0 {
		return errs.NewConfigError("LOGIN_RATE_LIMIT", errors.New("login rate limit and burst must be positive"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return errs.NewConfigError("TRUSTED_PROXIES", err)
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr binds to every interface so the server is reachable from outside a container.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%s", c.Port)
}

// DSN builds the Supabase Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

func (c Config) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}
