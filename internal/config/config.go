package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Redis struct {
		// An empty address keeps the start status cache in process memory
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Exam struct {
		UnlockLeadMinutes  int    `yaml:"unlock_lead_minutes" env:"EXAM_UNLOCK_LEAD_MINUTES"`
		StartWorkers       int    `yaml:"start_workers" env:"EXAM_START_WORKERS"`
		StartQueueCapacity int    `yaml:"start_queue_capacity" env:"EXAM_START_QUEUE_CAPACITY"`
		StatusTTL          string `yaml:"status_ttl" env:"EXAM_STATUS_TTL"`

		RepositoryAccess struct {
			Channel     string `yaml:"channel" env:"EXAM_REPOSITORY_ACCESS_CHANNEL"`
			MaxElapsed  string `yaml:"max_elapsed" env:"EXAM_REPOSITORY_ACCESS_MAX_ELAPSED"`
			InitialWait string `yaml:"initial_wait" env:"EXAM_REPOSITORY_ACCESS_INITIAL_WAIT"`
		} `yaml:"repository_access"`
	} `yaml:"exam"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := applyEnvOverrides(reflect.ValueOf(config), lookupEnv); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "examconduct"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "examconduct"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Exam conduction defaults
	config.Exam.UnlockLeadMinutes = 5
	config.Exam.StartWorkers = 10
	config.Exam.StartQueueCapacity = 4096
	config.Exam.StatusTTL = "24h"
	config.Exam.RepositoryAccess.Channel = "vcs:repository-access"
	config.Exam.RepositoryAccess.MaxElapsed = "2m"
	config.Exam.RepositoryAccess.InitialWait = "500ms"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Exam.StartWorkers <= 0 {
		return fmt.Errorf("exam start workers must be positive, got %d", config.Exam.StartWorkers)
	}

	if config.Exam.StartQueueCapacity <= 0 {
		return fmt.Errorf("exam start queue capacity must be positive, got %d", config.Exam.StartQueueCapacity)
	}

	if config.Exam.UnlockLeadMinutes < 0 {
		return fmt.Errorf("exam unlock lead minutes must not be negative, got %d", config.Exam.UnlockLeadMinutes)
	}

	durations := map[string]string{
		"JWT access token expiration":    config.JWT.AccessTokenExpiration,
		"exam status ttl":                config.Exam.StatusTTL,
		"repository access max elapsed":  config.Exam.RepositoryAccess.MaxElapsed,
		"repository access initial wait": config.Exam.RepositoryAccess.InitialWait,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
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

// UnlockLead returns how long before the exam start repositories are unlocked
func (c *Config) UnlockLead() time.Duration {
	return time.Duration(c.Exam.UnlockLeadMinutes) * time.Minute
}

// StatusTTL is how long a start status snapshot outlives its bulk start
func (c *Config) StatusTTL() time.Duration {
	return mustDuration(c.Exam.StatusTTL)
}

// AccessTokenExpiration is the lifetime of issued access tokens
func (c *Config) AccessTokenExpiration() time.Duration {
	return mustDuration(c.JWT.AccessTokenExpiration)
}

// RepositoryAccessInitialWait is the first retry interval of repository commands
func (c *Config) RepositoryAccessInitialWait() time.Duration {
	return mustDuration(c.Exam.RepositoryAccess.InitialWait)
}

// RepositoryAccessMaxElapsed bounds how long a repository command is retried
func (c *Config) RepositoryAccessMaxElapsed() time.Duration {
	return mustDuration(c.Exam.RepositoryAccess.MaxElapsed)
}

// mustDuration parses a value validateConfig already accepted
func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("config: unvalidated duration %q: %v", value, err))
	}
	return d
}
