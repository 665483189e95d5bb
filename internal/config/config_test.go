package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:               "8081",
		LogLevel:           "info",
		LogFormat:          "text",
		DataBackend:        "file",
		DatasetPaths:       []string{"datasets/dataset_dashboard.csv"},
		CacheSize:          16,
		CacheTTL:           time.Minute,
		RateLimitPerMinute: 60,
		ClusterSeed:        42,
		ClusterMinRows:     10,
		ShutdownTimeout:    30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{name: "valid file backend config", mutate: func(*Config) {}},
		{
			name:   "valid sheets backend config",
			mutate: func(c *Config) { c.DataBackend = "sheets"; c.GoogleSpreadsheetID = "abc" },
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid backend",
			mutate:      func(c *Config) { c.DataBackend = "postgres" },
			wantErr:     true,
			errorString: "invalid data backend 'postgres'",
		},
		{
			name:        "file backend without paths",
			mutate:      func(c *Config) { c.DatasetPaths = nil },
			wantErr:     true,
			errorString: "dataset paths cannot be empty",
		},
		{
			name:        "sheets backend without spreadsheet",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "Google Spreadsheet ID is required",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "zero cache size",
			mutate:      func(c *Config) { c.CacheSize = 0 },
			wantErr:     true,
			errorString: "invalid cache size 0",
		},
		{
			name:        "zero rate limit",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0",
		},
		{
			name:        "zero cluster seed",
			mutate:      func(c *Config) { c.ClusterSeed = 0 },
			wantErr:     true,
			errorString: "invalid cluster seed 0",
		},
		{
			name:        "trusted proxy without mask",
			mutate:      func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.1"} },
			wantErr:     true,
			errorString: "invalid trusted proxy '192.168.1.1'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "x"
	cfg.CacheSize = 0
	cfg.ClusterMinRows = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "configuration validation failed:\n- "))
	assert.Equal(t, 3, strings.Count(msg, "\n- "))
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_BACKEND", "DATASET_PATHS", "DEFAULT_COUNTRY", "CLUSTER_SEED", "CACHE_TTL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "file", cfg.DataBackend)
	assert.Equal(t, []string{
		"datasets/dataset_dashboard.csv",
		"../datasets/dataset_dashboard.csv",
		"dataset_dashboard.csv",
	}, cfg.DatasetPaths)
	assert.Equal(t, "Brazil", cfg.DefaultCountry)
	assert.Equal(t, uint64(42), cfg.ClusterSeed)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":8081", cfg.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATASET_PATHS", " data/a.csv , data/b.xlsx ,")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CLUSTER_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"data/a.csv", "data/b.xlsx"}, cfg.DatasetPaths)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, uint64(7), cfg.ClusterSeed)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("CACHE_SIZE", "many")
	_, err := Load()
	assert.Error(t, err)
}
