// Package config loads runtime configuration. Values come from the
// environment (optionally seeded from a .env file); a YAML file named by
// CONFIG_FILE overrides individual settings on top of that.
package config

import (
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string `env:"SERVER_HOST,default=0.0.0.0" yaml:"host"`
	Port            int    `env:"SERVER_PORT,default=8080" yaml:"port"`
	ReadTimeout     int    `env:"SERVER_READ_TIMEOUT,default=15" yaml:"read_timeout"`
	WriteTimeout    int    `env:"SERVER_WRITE_TIMEOUT,default=15" yaml:"write_timeout"`
	ShutdownTimeout int    `env:"SERVER_SHUTDOWN_TIMEOUT,default=10" yaml:"shutdown_timeout"`
}

// DatabaseConfig controls the Postgres pool. An empty DSN selects the
// in-memory stores, which is the development default.
type DatabaseConfig struct {
	Driver          string `env:"DB_DRIVER,default=postgres" yaml:"driver"`
	DSN             string `env:"DB_DSN" yaml:"dsn"`
	MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS,default=10" yaml:"max_open_conns"`
	MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS,default=5" yaml:"max_idle_conns"`
	ConnMaxLifetime int    `env:"DB_CONN_MAX_LIFETIME,default=300" yaml:"conn_max_lifetime"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info" yaml:"level"`
	Format string `env:"LOG_FORMAT,default=json" yaml:"format"`
	Output string `env:"LOG_OUTPUT,default=stdout" yaml:"output"`
}

// AppConfig holds marketplace behaviour toggles.
type AppConfig struct {
	// RejectDuplicateApplications refuses a second application from the same
	// traveler to the same listing.
	RejectDuplicateApplications bool `env:"REJECT_DUPLICATE_APPLICATIONS,default=false" yaml:"reject_duplicate_applications"`
}

// Load builds the configuration. A .env file in the working directory is
// loaded first when present. Settings in the CONFIG_FILE YAML file take
// precedence over the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Database.DSN != "" && c.Database.Driver == "" {
		return fmt.Errorf("database driver is required when a dsn is set")
	}
	return nil
}
