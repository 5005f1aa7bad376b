package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port" envconfig:"SERVER_PORT"`
		Mode            string        `yaml:"mode" envconfig:"SERVER_MODE"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Store struct {
		Driver        string `yaml:"driver" envconfig:"STORE_DRIVER"`
		MigrationsDir string `yaml:"migrations_dir" envconfig:"STORE_MIGRATIONS_DIR"`
		Seed          bool   `yaml:"seed" envconfig:"STORE_SEED"`
	} `yaml:"store"`

	Database struct {
		Host            string `yaml:"host" envconfig:"DB_HOST"`
		Port            string `yaml:"port" envconfig:"DB_PORT"`
		User            string `yaml:"user" envconfig:"DB_USER"`
		Password        string `yaml:"password" envconfig:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" envconfig:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" envconfig:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" envconfig:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" envconfig:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" envconfig:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" envconfig:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" envconfig:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
		Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	} `yaml:"logging"`

	// Redis is optional; without an address maintenance locks are process-local
	Redis struct {
		Addr       string `yaml:"addr" envconfig:"REDIS_ADDR"`
		Password   string `yaml:"password" envconfig:"REDIS_PASSWORD"`
		DB         int    `yaml:"db" envconfig:"REDIS_DB"`
		LockPrefix string `yaml:"lock_prefix" envconfig:"REDIS_LOCK_PREFIX"`
	} `yaml:"redis"`

	Messaging struct {
		Driver  string   `yaml:"driver" envconfig:"MESSAGING_DRIVER"`
		Brokers []string `yaml:"brokers" envconfig:"MESSAGING_BROKERS"`
	} `yaml:"messaging"`

	Scheduler struct {
		Enabled           bool          `yaml:"enabled" envconfig:"SCHEDULER_ENABLED"`
		ReconcileSchedule string        `yaml:"reconcile_schedule" envconfig:"SCHEDULER_RECONCILE"`
		ExpireSchedule    string        `yaml:"expire_schedule" envconfig:"SCHEDULER_EXPIRE"`
		LockTTL           time.Duration `yaml:"lock_ttl" envconfig:"SCHEDULER_LOCK_TTL"`
		RunTimeout        time.Duration `yaml:"run_timeout" envconfig:"SCHEDULER_RUN_TIMEOUT"`
	} `yaml:"scheduler"`

	Events struct {
		DefaultCapacity int `yaml:"default_capacity" envconfig:"EVENTS_DEFAULT_CAPACITY"`
	} `yaml:"events"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = 10 * time.Second

	config.Store.Driver = StoreMemory
	config.Store.MigrationsDir = "migrations"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "campushub"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "campushub"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.LockPrefix = "campushub:lock:"

	config.Messaging.Driver = "channel"

	config.Scheduler.Enabled = true
	config.Scheduler.ReconcileSchedule = "*/15 * * * *"
	config.Scheduler.ExpireSchedule = "5 0 * * *"
	config.Scheduler.LockTTL = 5 * time.Minute
	config.Scheduler.RunTimeout = 4 * time.Minute

	config.Events.DefaultCapacity = 100
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid database connection max lifetime: %w", err)
		}
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	switch config.Messaging.Driver {
	case "channel":
	case "kafka":
		if len(config.Messaging.Brokers) == 0 {
			return fmt.Errorf("kafka messaging requires at least one broker")
		}
	default:
		return fmt.Errorf("unknown messaging driver %q", config.Messaging.Driver)
	}

	if config.Events.DefaultCapacity <= 0 {
		return fmt.Errorf("default event capacity must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
