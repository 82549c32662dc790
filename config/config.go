// Package config loads this service's configuration from environment
// variables, an optional config.yaml, and defaults, in that priority order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	River    RiverConfig    `mapstructure:"river"`
	Command  CommandConfig  `mapstructure:"command"`
	Hashing  HashingConfig  `mapstructure:"hashing"`
	Email    EmailConfig    `mapstructure:"email"`
}

// DatabaseConfig contains PostgreSQL connection settings. Pool is shared
// across the event store, read model, outbox ledger, and River.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DSN returns the PostgreSQL connection string. Priority: URL, then the
// individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River queue settings for the outbox worker.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// CommandConfig contains command-handler retry settings.
type CommandConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// HashingConfig contains password hashing settings.
type HashingConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// EmailConfig contains the welcome-email provider's settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"` // "logging"; cmd/userd builds the logging provider for any value
	DefaultFrom string `mapstructure:"default_from"`
}

// Load reads configuration from an optional config.yaml plus environment
// variables (USEREVENTS_-prefixed, nested keys joined with underscores),
// falling back to the defaults set in setDefaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/userevents")

	v.SetEnvPrefix("userevents")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "userevents")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "userevents")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("river.max_workers", 10)
	v.SetDefault("river.completed_job_retention_period", "24h")

	v.SetDefault("command.max_attempts", 3)

	v.SetDefault("hashing.bcrypt_cost", 0)

	v.SetDefault("email.provider", "logging")
	v.SetDefault("email.default_from", "noreply@example.com")
}
