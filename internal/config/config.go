// Package config loads deskclerk configuration from deskclerk.yaml and the
// environment. Every value has a usable default so a bare `deskclerk serve`
// works against a local SQLite file with no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full deskclerk configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
}

// DatabaseConfig selects the persistence backend
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" or "sqlite3"
	URL    string `mapstructure:"url"`
}

// ServerConfig configures the MCP HTTP transport
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// AuthSecret, when set, requires a bearer token signed with it (HS256)
	// on every RPC request.
	AuthSecret string `mapstructure:"auth_secret"`
}

// AssistantConfig configures the embedded chat loop
type AssistantConfig struct {
	Model         string `mapstructure:"model"` // empty = client default
	APIKey        string `mapstructure:"api_key"`
	MaxToolRounds int    `mapstructure:"max_tool_rounds"`
	HistoryTurns  int    `mapstructure:"history_turns"`
}

// HistoryConfig selects where conversation history lives
type HistoryConfig struct {
	Backend    string `mapstructure:"backend"` // "memory" or "redis"
	RedisAddr  string `mapstructure:"redis_addr"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level       string `mapstructure:"level"` // debug, info, warn, error
	Development bool   `mapstructure:"development"`
}

// Load reads deskclerk.yaml from the working directory or ~/.deskclerk,
// applies DESKCLERK_* environment overrides, and validates the result. A
// missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.url", "deskclerk.db")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8379)
	v.SetDefault("assistant.max_tool_rounds", 8)
	v.SetDefault("assistant.history_turns", 20)
	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.redis_addr", "localhost:6379")
	v.SetDefault("history.ttl_minutes", 240)
	v.SetDefault("log.level", "info")

	v.SetConfigName("deskclerk")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".deskclerk"))
	}

	// DESKCLERK_DATABASE_URL overrides database.url, and so on.
	v.SetEnvPrefix("DESKCLERK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file - defaults and environment apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DatabaseURL returns the effective database URL. The conventional
// DATABASE_URL variable wins over the config file.
func (c *Config) DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return c.Database.URL
}

// GeminiAPIKey returns the effective model API key. The SDK's own
// GEMINI_API_KEY variable wins over the config file.
func (c *Config) GeminiAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return c.Assistant.APIKey
}

// Address returns the host:port the HTTP transport listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite3, got %q", config.Database.Driver)
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", config.Server.Port)
	}

	switch config.History.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("history.backend must be memory or redis, got %q", config.History.Backend)
	}

	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", config.Log.Level)
	}

	return nil
}
