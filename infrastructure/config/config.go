// Package config provides configuration loading for the decision daemon.
package config

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidFormat indicates the config file could not be parsed.
	ErrInvalidFormat = errors.New("invalid config format")

	// ErrUnsupportedFormat indicates an unknown config file extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed indicates the config failed validation.
	ErrValidationFailed = errors.New("config validation failed")

	// ErrMissingEnvVar indicates a referenced environment variable is unset.
	ErrMissingEnvVar = errors.New("missing environment variable")
)

// Config is the daemon configuration.
type Config struct {
	// Storage selects and configures the persistence backend.
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Monitor configures the transition monitor.
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`

	// Collab configures the collaborative document service client.
	Collab CollabConfig `yaml:"collab" json:"collab"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is one of "postgres", "sqlite", or "memory".
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the connection string for postgres and sqlite drivers.
	DSN string `yaml:"dsn" json:"dsn"`

	// Schema is the postgres schema name (defaults to "public").
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// MonitorConfig configures the transition monitor run loop.
type MonitorConfig struct {
	// IntervalSeconds is the polling interval between monitor runs.
	IntervalSeconds int `yaml:"intervalSeconds" json:"intervalSeconds"`

	// BatchSize caps how many due transitions one run picks up
	// (0 = unlimited).
	BatchSize int `yaml:"batchSize" json:"batchSize"`

	// Concurrency bounds how many instances are processed in parallel.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// CollabConfig configures the collaborative document client.
type CollabConfig struct {
	// BaseURL is the document service endpoint. Empty disables the
	// client; proposals then rely on their stored data.
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`

	// TimeoutSeconds is the per-fetch timeout.
	TimeoutSeconds int `yaml:"timeoutSeconds" json:"timeoutSeconds"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error, fatal.
	Level string `yaml:"level" json:"level"`

	// Format is "json" or "console".
	Format string `yaml:"format" json:"format"`
}

// Default returns the daemon configuration defaults: in-memory storage,
// a 60 second monitor interval with four workers, info-level JSON logs.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: "memory",
			Schema: "public",
		},
		Monitor: MonitorConfig{
			IntervalSeconds: 60,
			BatchSize:       100,
			Concurrency:     4,
		},
		Collab: CollabConfig{
			TimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "sqlite":
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for driver %q",
				ErrValidationFailed, c.Storage.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: unknown storage.driver %q",
			ErrValidationFailed, c.Storage.Driver)
	}

	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: monitor.intervalSeconds must be positive", ErrValidationFailed)
	}
	if c.Monitor.BatchSize < 0 {
		return fmt.Errorf("%w: monitor.batchSize cannot be negative", ErrValidationFailed)
	}
	if c.Monitor.Concurrency <= 0 {
		return fmt.Errorf("%w: monitor.concurrency must be positive", ErrValidationFailed)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: unknown logging.format %q",
			ErrValidationFailed, c.Logging.Format)
	}
	return nil
}
