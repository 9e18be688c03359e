package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DBPath:          "./data/money.db",
		LogLevel:        "info",
		LogFormat:       "text",
		DefaultCurrency: "CAD",
		RecentLimit:     30,
		ShutdownTimeout: 10 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid metrics address",
			mutate: func(c *Config) { c.MetricsAddr = ":9090" },
		},
		{
			name:        "empty database path",
			mutate:      func(c *Config) { c.DBPath = "" },
			wantErr:     true,
			errorString: "database path cannot be empty",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name:        "unknown log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "metrics address without port",
			mutate:      func(c *Config) { c.MetricsAddr = "localhost" },
			wantErr:     true,
			errorString: "invalid metrics address 'localhost'",
		},
		{
			name:        "metrics port out of range",
			mutate:      func(c *Config) { c.MetricsAddr = ":70000" },
			wantErr:     true,
			errorString: "invalid metrics port '70000'",
		},
		{
			name:        "currency too long",
			mutate:      func(c *Config) { c.DefaultCurrency = "CADX" },
			wantErr:     true,
			errorString: "invalid currency 'CADX'",
		},
		{
			name:        "currency with digits",
			mutate:      func(c *Config) { c.DefaultCurrency = "C4D" },
			wantErr:     true,
			errorString: "invalid currency 'C4D'",
		},
		{
			name:        "recent limit zero",
			mutate:      func(c *Config) { c.RecentLimit = 0 },
			wantErr:     true,
			errorString: "invalid recent limit 0: must be at least 1",
		},
		{
			name:        "recent limit too large",
			mutate:      func(c *Config) { c.RecentLimit = 501 },
			wantErr:     true,
			errorString: "invalid recent limit 501: must be at most 500",
		},
		{
			name:        "shutdown timeout too short",
			mutate:      func(c *Config) { c.ShutdownTimeout = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid shutdown timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Expected error containing %q, got %q", tt.errorString, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""
	cfg.RecentLimit = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:") {
		t.Errorf("Unexpected prefix: %q", msg)
	}
	if strings.Count(msg, "\n- ") != 2 {
		t.Errorf("Expected 2 listed problems, got %q", msg)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/ledger.db")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DEFAULT_CURRENCY", "usd")
	t.Setenv("RECENT_LIMIT", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()

	if cfg.DBPath != "/tmp/ledger.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.DefaultCurrency != "USD" {
		t.Errorf("DefaultCurrency = %q, want USD", cfg.DefaultCurrency)
	}
	if cfg.RecentLimit != 30 {
		t.Errorf("RecentLimit = %d, want fallback 30", cfg.RecentLimit)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.ShutdownTimeout)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
}
