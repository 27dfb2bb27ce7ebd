// Package config provides configuration management for the BOM engine.
// Configurations are loaded from TOML files with XDG-compliant paths and
// can be overridden from the environment.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Storage     StorageConfig     `toml:"storage"`
	Redis       RedisConfig       `toml:"redis"`
	Reservation ReservationConfig `toml:"reservation"`
	Costing     CostingConfig     `toml:"costing"`
	Logging     LoggingConfig     `toml:"logging"`
	Tenant      TenantConfig      `toml:"tenant"`
}

// Driver names a storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// StorageConfig selects and tunes the storage backend.
type StorageConfig struct {
	Driver       Driver `toml:"driver"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// RedisConfig controls the shared tree cache.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// TTL optionally bounds entry lifetime; 0 keeps entries until invalidated
	TTL time.Duration `toml:"ttl"`
}

// ReservationConfig bounds retries of conflicting stock updates.
type ReservationConfig struct {
	MaxRetries   int           `toml:"max_retries"`
	RetryBackoff time.Duration `toml:"retry_backoff"`
}

// CostingConfig controls presentation of cost figures.
type CostingConfig struct {
	// Precision is the number of decimal places money is rounded to on output
	Precision int32 `toml:"precision"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects the log encoder.
type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)

// TenantConfig names the tenant used when a command does not pass one.
type TenantConfig struct {
	Default string `toml:"default"`
}

// Default returns a configuration backed by in-memory storage.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:       DriverMemory,
			MaxOpenConns: 10,
		},
		// Trees are dropped by explicit invalidation on BOM edits, not by age
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Reservation: ReservationConfig{
			MaxRetries:   3,
			RetryBackoff: 10 * time.Millisecond,
		},
		Costing: CostingConfig{
			Precision: 2,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatConsole,
		},
		Tenant: TenantConfig{
			Default: "default",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if err := c.Redis.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("redis: %w", err))
	}

	if c.Reservation.MaxRetries < 0 {
		errs = append(errs, errors.New("reservation: max_retries cannot be negative"))
	}
	if c.Reservation.RetryBackoff < 0 {
		errs = append(errs, errors.New("reservation: retry_backoff cannot be negative"))
	}

	if c.Costing.Precision < 0 || c.Costing.Precision > 10 {
		errs = append(errs, fmt.Errorf("costing: precision must be between 0 and 10, got %d", c.Costing.Precision))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if c.Tenant.Default == "" {
		errs = append(errs, errors.New("tenant: default is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the storage configuration is valid.
func (s *StorageConfig) Validate() error {
	switch s.Driver {
	case DriverMemory:
		return nil
	case DriverSQLite, DriverMySQL, DriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("dsn is required for driver %s", s.Driver)
		}
	default:
		return fmt.Errorf("invalid driver: %q", s.Driver)
	}
	if s.MaxOpenConns < 1 {
		return errors.New("max_open_conns must be positive")
	}
	return nil
}

// Validate checks that the redis configuration is valid.
func (r *RedisConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Addr == "" {
		return errors.New("addr is required when enabled")
	}
	if r.DB < 0 {
		return errors.New("db cannot be negative")
	}
	if r.TTL < 0 {
		return errors.New("ttl cannot be negative")
	}
	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	switch l.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		errs = append(errs, fmt.Errorf("invalid level: %s", l.Level))
	}

	switch l.Format {
	case LogFormatJSON, LogFormatConsole:
	default:
		errs = append(errs, fmt.Errorf("invalid format: %s", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
