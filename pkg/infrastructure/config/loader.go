package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigFileName is the standard configuration file name.
	DefaultConfigFileName = "bomengine.toml"

	// XDGConfigSubdir is the subdirectory under XDG_CONFIG_HOME.
	XDGConfigSubdir = "bomengine"
)

// Environment variables that override file values.
const (
	EnvStorageDriver = "BOMENGINE_DB_DRIVER"
	EnvStorageDSN    = "BOMENGINE_DB_DSN"
	EnvRedisAddr     = "BOMENGINE_REDIS_ADDR"
	EnvLogLevel      = "BOMENGINE_LOG_LEVEL"
	EnvTenant        = "BOMENGINE_TENANT"
	EnvMaxRetries    = "BOMENGINE_RESERVATION_MAX_RETRIES"
)

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads configuration from, in order of precedence:
// 1. Explicit path (if provided)
// 2. XDG config path (~/.config/bomengine/bomengine.toml)
// 3. Current working directory (./bomengine.toml)
// 4. Built-in defaults
//
// Environment overrides are applied last. Returns the configuration and the
// path it was loaded from, empty when defaults were used.
func Load(explicitPath string) (*Config, string, error) {
	cfg, path, err := loadFile(explicitPath)
	if err != nil {
		return nil, "", err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, "", &LoadError{Path: "environment", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", &LoadError{Path: displayPath(path), Err: fmt.Errorf("validating config: %w", err)}
	}
	return cfg, path, nil
}

func loadFile(explicitPath string) (*Config, string, error) {
	// If explicit path provided, use only that
	if explicitPath != "" {
		cfg, err := loadFromFile(explicitPath)
		if err != nil {
			return nil, "", &LoadError{Path: explicitPath, Err: err}
		}
		return cfg, explicitPath, nil
	}

	if xdgPath := xdgConfigPath(); xdgPath != "" && fileExists(xdgPath) {
		cfg, err := loadFromFile(xdgPath)
		if err != nil {
			return nil, "", &LoadError{Path: xdgPath, Err: err}
		}
		return cfg, xdgPath, nil
	}

	cwdPath := filepath.Join(".", DefaultConfigFileName)
	if fileExists(cwdPath) {
		cfg, err := loadFromFile(cwdPath)
		if err != nil {
			return nil, "", &LoadError{Path: cwdPath, Err: err}
		}
		return cfg, cwdPath, nil
	}

	return Default(), "", nil
}

// loadFromFile reads and parses a TOML configuration file.
func loadFromFile(path string) (*Config, error) {
	// Start with defaults so missing values get sensible defaults
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvStorageDriver); v != "" {
		cfg.Storage.Driver = Driver(v)
	}
	if v := os.Getenv(EnvStorageDSN); v != "" {
		cfg.Storage.DSN = v
		// A DSN without a driver means the default sqlite file store
		if cfg.Storage.Driver == DriverMemory {
			cfg.Storage.Driver = DriverSQLite
		}
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvTenant); v != "" {
		cfg.Tenant.Default = v
	}
	if v := os.Getenv(EnvMaxRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxRetries, err)
		}
		cfg.Reservation.MaxRetries = n
	}
	return nil
}

// Save writes a configuration to a TOML file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	header := "# BOM engine configuration\n\n"
	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}
	return nil
}

// xdgConfigPath returns the XDG-compliant config file path.
// Returns empty string if XDG_CONFIG_HOME is not set and HOME is not available.
func xdgConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, XDGConfigSubdir, DefaultConfigFileName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", XDGConfigSubdir, DefaultConfigFileName)
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayPath(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
