package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	// Check default values
	if cfg.Game.BoardSize != DefaultBoardSize {
		t.Errorf("Expected default board size %d, got %d", DefaultBoardSize, cfg.Game.BoardSize)
	}
	if cfg.Server.ListenAddr != ":5001" {
		t.Errorf("Expected default listen address ':5001', got %s", cfg.Server.ListenAddr)
	}
	if cfg.HTTP.HealthAddr != ":8080" {
		t.Errorf("Expected default health address ':8080', got %s", cfg.HTTP.HealthAddr)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got %s", cfg.Logging.Level)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}
	assert.Equal(t, 30*time.Minute, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
	assert.NotNil(t, cfg.RateLimit.PerCommandLimits)
}

func TestLoadConfigFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	testConfig := map[string]interface{}{
		"game":   map[string]interface{}{"boardSize": 13},
		"server": map[string]interface{}{"listenAddr": ":6000", "readTimeout": "45s"},
		"logging": map[string]interface{}{
			"level":  "debug",
			"format": "text",
		},
		"rateLimit": map[string]interface{}{
			"enabled":          false,
			"requestsPerMin":   30,
			"perCommandLimits": map[string]int{"move": 10},
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 13, cfg.Game.BoardSize)
	assert.Equal(t, ":6000", cfg.Server.ListenAddr)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMin)
	assert.Equal(t, 10, cfg.RateLimit.PerCommandLimits["move"])

	// Unset values keep their defaults
	assert.Equal(t, ":8080", cfg.HTTP.HealthAddr)
}

func TestLoadYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "goban.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("game:\n  boardSize: 19\n"), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 19, cfg.Game.BoardSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOBAN_GAME_BOARDSIZE", "7")
	t.Setenv("GOBAN_LOGGING_LEVEL", "debug")
	t.Setenv("GOBAN_RATELIMIT_ENABLED", "false")
	t.Setenv("GOBAN_SERVER_LISTENADDR", "127.0.0.1:7000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config with env overrides: %v", err)
	}

	if cfg.Game.BoardSize != 7 {
		t.Errorf("Expected env override for board size, got %d", cfg.Game.BoardSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected env override for log level, got %s", cfg.Logging.Level)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled by env override")
	}
	if cfg.Server.ListenAddr != "127.0.0.1:7000" {
		t.Errorf("Expected env override for listen address, got %s", cfg.Server.ListenAddr)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		check     func(*testing.T, *Config)
		wantError bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "board too small",
			modify: func(c *Config) { c.Game.BoardSize = 0 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, MinBoardSize, c.Game.BoardSize)
			},
		},
		{
			name:   "board too large",
			modify: func(c *Config) { c.Game.BoardSize = 40 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, MaxBoardSize, c.Game.BoardSize)
			},
		},
		{
			name:   "unknown log level and format",
			modify: func(c *Config) { c.Logging.Level = "loud"; c.Logging.Format = "XML" },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "info", c.Logging.Level)
				assert.Equal(t, "json", c.Logging.Format)
			},
		},
		{
			name: "zero rate limits",
			modify: func(c *Config) {
				c.RateLimit.RequestsPerMin = 0
				c.RateLimit.BurstSize = -2
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 1, c.RateLimit.RequestsPerMin)
				assert.Equal(t, 1, c.RateLimit.BurstSize)
			},
		},
		{
			name:   "no dial attempts",
			modify: func(c *Config) { c.Client.DialAttempts = 0 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 1, c.Client.DialAttempts)
			},
		},
		{
			name:      "empty listen address",
			modify:    func(c *Config) { c.Server.ListenAddr = "" },
			wantError: true,
		},
		{
			name:      "http enabled without address",
			modify:    func(c *Config) { c.HTTP.HealthAddr = "" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.modify(cfg)
			err = cfg.validate()

			if (err != nil) != tt.wantError {
				t.Errorf("validate() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GOBAN_CONFIG", "/custom/config.json")

	path := GetConfigPath()
	if path != "/custom/config.json" {
		t.Errorf("Expected env var path, got %s", path)
	}

	// Without the env var this may be empty or a discovered file.
	os.Unsetenv("GOBAN_CONFIG")
	path = GetConfigPath()
	t.Logf("Config path without env var: %s", path)
}
