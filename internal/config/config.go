package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Chat    ChatConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// BackendConfig holds configuration for the MedConnect REST backend
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// ChatConfig holds booking-conversation configuration
type ChatConfig struct {
	// AllowDegraded enables the offline symptom analyzer when the backend
	// analysis call fails. Degraded results are always marked as such.
	AllowDegraded   bool
	ConversationTTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	// Bind specific environment variables
	bindEnvVars(v)

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Backend defaults
	v.SetDefault("backend.requesttimeout", 15*time.Second)

	// Chat defaults
	v.SetDefault("chat.allowdegraded", false)
	v.SetDefault("chat.conversationttl", 30*time.Minute)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Backend
	v.BindEnv("backend.baseurl", "BACKEND_BASE_URL")
	v.BindEnv("backend.requesttimeout", "BACKEND_REQUEST_TIMEOUT")

	// Chat
	v.BindEnv("chat.allowdegraded", "CHAT_ALLOW_DEGRADED")
	v.BindEnv("chat.conversationttl", "CHAT_CONVERSATION_TTL")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.baseurl is required")
	}

	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend.requesttimeout must be positive")
	}

	if c.Chat.ConversationTTL <= 0 {
		return fmt.Errorf("chat.conversationttl must be positive")
	}

	return nil
}
