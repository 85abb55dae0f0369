package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the hookpipe service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	DLQ       DLQConfig       `mapstructure:"dlq"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds a pgx-compatible connection string.
func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the distributed rate limiter.
type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// IngestionConfig holds ingestion endpoint settings.
type IngestionConfig struct {
	MaxEventSize     int           `mapstructure:"max_event_size"`
	RateLimitEnabled bool          `mapstructure:"rate_limit_enabled"`
	RateLimitBackend string        `mapstructure:"rate_limit_backend"`
	RateLimitMax     int           `mapstructure:"rate_limit_max"`
	RateLimitWindow  time.Duration `mapstructure:"rate_limit_window"`
}

// DLQConfig holds dead-letter queue settings for failed delivery-log inserts.
type DLQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Backend  string `mapstructure:"backend"`
	NatsURL  string `mapstructure:"nats_url"`
	BasePath string `mapstructure:"base_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "hookpipe")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "hookpipe")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)

	v.SetDefault("ingestion.max_event_size", 1048576)
	v.SetDefault("ingestion.rate_limit_enabled", true)
	v.SetDefault("ingestion.rate_limit_backend", "local")
	v.SetDefault("ingestion.rate_limit_max", 5)
	v.SetDefault("ingestion.rate_limit_window", "1s")

	v.SetDefault("dlq.enabled", false)
	v.SetDefault("dlq.backend", "jetstream")
	v.SetDefault("dlq.nats_url", "nats://localhost:4222")
	v.SetDefault("dlq.base_path", "/var/lib/hookpipe/dlq")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/hookpipe")
	}

	// Environment variables override (nested keys use underscores:
	// server.port -> HOOKPIPE_SERVER_PORT)
	v.SetEnvPrefix("HOOKPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
