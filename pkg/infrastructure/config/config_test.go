package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// isolate keeps the developer's own configuration out of a test
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{EnvStorageDriver, EnvStorageDSN, EnvRedisAddr, EnvLogLevel, EnvTenant, EnvMaxRetries} {
		t.Setenv(key, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
}

func TestRedisConfig_TTL(t *testing.T) {
	if ttl := Default().Redis.TTL; ttl != 0 {
		t.Errorf("Expected cached trees to live until invalidated by default, got ttl %s", ttl)
	}

	tests := []struct {
		name    string
		ttl     time.Duration
		wantErr bool
	}{
		{"no expiry", 0, false},
		{"bounded", 30 * time.Minute, false},
		{"negative", -time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RedisConfig{Enabled: true, Addr: "localhost:6379", TTL: tt.ttl}
			if err := r.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[storage]
driver = "sqlite"
dsn = "bom.db"

[reservation]
max_retries = 5
retry_backoff = "25ms"

[costing]
precision = 4

[tenant]
default = "plant-7"
`)

	cfg, loadedFrom, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loadedFrom != path {
		t.Errorf("Expected path %s, got %s", path, loadedFrom)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.DSN != "bom.db" {
		t.Errorf("Expected sqlite bom.db, got %s %s", cfg.Storage.Driver, cfg.Storage.DSN)
	}
	if cfg.Reservation.MaxRetries != 5 || cfg.Reservation.RetryBackoff != 25*time.Millisecond {
		t.Errorf("Expected 5 retries at 25ms, got %d at %s", cfg.Reservation.MaxRetries, cfg.Reservation.RetryBackoff)
	}
	if cfg.Costing.Precision != 4 || cfg.Tenant.Default != "plant-7" {
		t.Errorf("Unexpected costing/tenant: %d %s", cfg.Costing.Precision, cfg.Tenant.Default)
	}
	// Untouched sections keep their defaults
	if cfg.Logging.Level != LogLevelInfo || cfg.Storage.MaxOpenConns != 10 {
		t.Errorf("Expected defaults for logging and pool size, got %s %d", cfg.Logging.Level, cfg.Storage.MaxOpenConns)
	}
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	isolate(t)

	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if path != "" {
		t.Errorf("Expected no path, got %s", path)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Expected memory driver, got %s", cfg.Storage.Driver)
	}
}

func TestLoad_SearchesXDGThenWorkingDirectory(t *testing.T) {
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if err := os.WriteFile(DefaultConfigFileName, []byte("[tenant]\ndefault = \"cwd\"\n"), 0600); err != nil {
		t.Fatalf("Failed to write cwd config: %v", err)
	}
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tenant.Default != "cwd" {
		t.Errorf("Expected cwd config, got tenant %s", cfg.Tenant.Default)
	}

	xdgFile := filepath.Join(xdg, XDGConfigSubdir, DefaultConfigFileName)
	xdgCfg := Default()
	xdgCfg.Tenant.Default = "xdg"
	if err := Save(xdgCfg, xdgFile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tenant.Default != "xdg" || path != xdgFile {
		t.Errorf("Expected XDG config to win, got tenant %s from %s", cfg.Tenant.Default, path)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvStorageDSN, "file:bom.db")
	t.Setenv(EnvRedisAddr, "cache:6379")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvMaxRetries, "7")

	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.DSN != "file:bom.db" {
		t.Errorf("Expected sqlite DSN override, got %s %s", cfg.Storage.Driver, cfg.Storage.DSN)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "cache:6379" {
		t.Errorf("Expected redis enabled at cache:6379, got %v %s", cfg.Redis.Enabled, cfg.Redis.Addr)
	}
	if cfg.Logging.Level != LogLevelDebug || cfg.Reservation.MaxRetries != 7 {
		t.Errorf("Expected debug and 7 retries, got %s %d", cfg.Logging.Level, cfg.Reservation.MaxRetries)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "[storage\n", "parsing TOML"},
		{"unknown key", "[storage]\ncolour = \"red\"\n", "unknown key"},
		{"bad driver", "[storage]\ndriver = \"oracle\"\n", "invalid driver"},
		{"missing dsn", "[storage]\ndriver = \"mysql\"\n", "dsn is required"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "invalid level"},
		{"bad precision", "[costing]\nprecision = 12\n", "precision"},
		{"negative retries", "[reservation]\nmax_retries = -1\n", "max_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := writeConfig(t, tt.content)

			_, _, err := Load(path)
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Expected LoadError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	missing := filepath.Join(t.TempDir(), "nope.toml")

	_, _, err := Load(missing)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Path != missing {
		t.Fatalf("Expected LoadError for %s, got %v", missing, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}
