package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// GOBAN_GAME_BOARDSIZE or GOBAN_LOGGING_LEVEL.
const EnvPrefix = "GOBAN"

const (
	MinBoardSize     = 1
	MaxBoardSize     = 25
	DefaultBoardSize = 9
)

type Config struct {
	// Game rules
	Game GameConfig `mapstructure:"game" json:"game"`

	// TCP line server
	Server ServerConfig `mapstructure:"server" json:"server"`

	// Health, readiness, metrics and websocket endpoint
	HTTP HTTPConfig `mapstructure:"http" json:"http"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`

	// Rate limiting of inbound commands
	RateLimit RateLimitConfig `mapstructure:"rateLimit" json:"rateLimit"`

	// Analysis cache
	Cache CacheConfig `mapstructure:"cache" json:"cache"`

	// Text client
	Client ClientConfig `mapstructure:"client" json:"client"`
}

type GameConfig struct {
	BoardSize int `mapstructure:"boardSize" json:"boardSize"`
}

type ServerConfig struct {
	Name        string        `mapstructure:"name" json:"name"`
	Version     string        `mapstructure:"version" json:"version"`
	Description string        `mapstructure:"description" json:"description"`
	ListenAddr  string        `mapstructure:"listenAddr" json:"listenAddr"`
	ReadTimeout time.Duration `mapstructure:"readTimeout" json:"readTimeout"`
	WSEnabled   bool          `mapstructure:"wsEnabled" json:"wsEnabled"`
}

type HTTPConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	HealthAddr string `mapstructure:"healthAddr" json:"healthAddr"`
}

type LoggingConfig struct {
	Level  string        `mapstructure:"level" json:"level"`
	Format string        `mapstructure:"format" json:"format"`
	Prefix string        `mapstructure:"prefix" json:"prefix"`
	File   FileLogConfig `mapstructure:"file" json:"file"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	Path       string `mapstructure:"path" json:"path"`
	MaxSize    int    `mapstructure:"maxSize" json:"maxSize"`       // megabytes
	MaxBackups int    `mapstructure:"maxBackups" json:"maxBackups"` // files kept
	MaxAge     int    `mapstructure:"maxAge" json:"maxAge"`         // days
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

type RateLimitConfig struct {
	Enabled          bool           `mapstructure:"enabled" json:"enabled"`
	RequestsPerMin   int            `mapstructure:"requestsPerMin" json:"requestsPerMin"`
	BurstSize        int            `mapstructure:"burstSize" json:"burstSize"`
	PerCommandLimits map[string]int `mapstructure:"perCommandLimits" json:"perCommandLimits"`
}

type CacheConfig struct {
	Enabled  bool `mapstructure:"enabled" json:"enabled"`
	MaxItems int  `mapstructure:"maxItems" json:"maxItems"`
	TTL      int  `mapstructure:"ttlSeconds" json:"ttlSeconds"`
}

type ClientConfig struct {
	ServerAddr   string        `mapstructure:"serverAddr" json:"serverAddr"`
	DialAttempts int           `mapstructure:"dialAttempts" json:"dialAttempts"`
	DialDelay    time.Duration `mapstructure:"dialDelay" json:"dialDelay"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.boardSize", DefaultBoardSize)

	v.SetDefault("server.name", "goban")
	v.SetDefault("server.version", "0.1.0")
	v.SetDefault("server.description", "Two-player Go server")
	v.SetDefault("server.listenAddr", ":5001")
	v.SetDefault("server.readTimeout", 30*time.Minute)
	v.SetDefault("server.wsEnabled", true)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.healthAddr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.prefix", "goban")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMin", 120)
	v.SetDefault("rateLimit.burstSize", 20)
	v.SetDefault("rateLimit.perCommandLimits", map[string]int{})

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.maxItems", 256)
	v.SetDefault("cache.ttlSeconds", 600)

	v.SetDefault("client.serverAddr", "localhost:5001")
	v.SetDefault("client.dialAttempts", 5)
	v.SetDefault("client.dialDelay", 500*time.Millisecond)
}

// Load reads defaults, then the optional file at configPath (json, yaml or
// toml by extension), then GOBAN_* environment overrides, and finally
// validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Game.BoardSize < MinBoardSize {
		c.Game.BoardSize = MinBoardSize
	}
	if c.Game.BoardSize > MaxBoardSize {
		c.Game.BoardSize = MaxBoardSize
	}

	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listenAddr must not be empty")
	}
	if c.HTTP.Enabled && c.HTTP.HealthAddr == "" {
		return fmt.Errorf("http.healthAddr must not be empty when http is enabled")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		c.Logging.Level = "info"
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
		c.Logging.Format = strings.ToLower(c.Logging.Format)
	default:
		c.Logging.Format = "json"
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMin < 1 {
			c.RateLimit.RequestsPerMin = 1
		}
		if c.RateLimit.BurstSize < 1 {
			c.RateLimit.BurstSize = 1
		}
	}
	if c.RateLimit.PerCommandLimits == nil {
		c.RateLimit.PerCommandLimits = make(map[string]int)
	}

	if c.Cache.MaxItems < 1 {
		c.Cache.MaxItems = 1
	}
	if c.Cache.TTL < 0 {
		c.Cache.TTL = 0
	}

	if c.Client.DialAttempts < 1 {
		c.Client.DialAttempts = 1
	}

	return nil
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Check current directory
	if _, err := os.Stat("goban.json"); err == nil {
		return "goban.json"
	}

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(home, ".goban", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	return ""
}
