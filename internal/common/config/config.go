package config

import (
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the root configuration for the presenced daemon.
	Config struct {
		Logger  LoggerConfig  `yaml:"logger"`
		Server  ServerConfig  `yaml:"server"`
		Store   StoreConfig   `yaml:"store"`
		Gateway GatewayConfig `yaml:"gateway"`
		App     AppConfig     `yaml:"app"`
	}

	// AppConfig holds the presence-service application identity and the
	// set of users allowed to publish presence through this instance.
	AppConfig struct {
		ClientID string            `yaml:"client_id"` // presence service application id
		Users    map[string]string `yaml:"users"`     // session name -> credential token
	}

	// ServerConfig represents the inbound HTTP API configuration
	ServerConfig struct {
		Addr string `yaml:"addr"`
	}

	// StoreConfig represents the session state store configuration
	StoreConfig struct {
		Type   string      `yaml:"type"`   // "memory" or "redis"
		Prefix string      `yaml:"prefix"` // key namespace prefix
		Redis  RedisConfig `yaml:"redis"`
	}

	// RedisConfig represents the Redis configuration for the session state store
	RedisConfig struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}

	// GatewayConfig represents the presence gateway client configuration
	GatewayConfig struct {
		APIBase           string        `yaml:"api_base"`           // presence service REST base URL
		DefaultAssetURL   string        `yaml:"default_asset_url"`  // fallback artwork when a track has none
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"` // must stay under the service-imposed interval
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
	}
)

// Load loads configuration from a YAML file with environment variable support
func Load(path string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Resolve environment variables
	data = resolveEnv(data)
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

// setDefaults fills in defaults for values the file omits
func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5030"
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.Prefix == "" {
		c.Store.Prefix = "presence"
	}
	if c.Gateway.APIBase == "" {
		c.Gateway.APIBase = "https://discord.com/api"
	}
	if c.Gateway.DefaultAssetURL == "" {
		c.Gateway.DefaultAssetURL = "https://i.imgur.com/hb3XPzA.png"
	}
	if c.Gateway.HeartbeatInterval <= 0 {
		c.Gateway.HeartbeatInterval = 41 * time.Second
	}
}

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	regex := regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

	return regex.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := regex.FindSubmatch(match)
		envKey := string(matches[1])
		var defaultValue string

		if len(matches) > 2 {
			defaultValue = string(matches[2])
		}

		if value, exists := os.LookupEnv(envKey); exists {
			return []byte(value)
		}
		return []byte(defaultValue)
	})
}
