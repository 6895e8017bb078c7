package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from an optional askdb.yaml and environment variables.
type Config struct {
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Log          LogConfig          `mapstructure:"log"`
	Server       ServerConfig       `mapstructure:"server"`
}

// GeminiConfig stores model service settings.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"` // per model call
}

// DatabaseConfig stores the SQLite location.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ConversationConfig bounds the conversation window.
type ConversationConfig struct {
	MaxTurns int `mapstructure:"max_turns"` // user+assistant round trips
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig stores the HTTP listen address.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"gemini.api_key":         "GEMINI_API_KEY",
	"gemini.model":           "GEMINI_MODEL",
	"gemini.temperature":     "ASKDB_TEMPERATURE",
	"gemini.timeout":         "ASKDB_MODEL_TIMEOUT",
	"database.path":          "ASKDB_DB_PATH",
	"conversation.max_turns": "ASKDB_MAX_TURNS",
	"log.level":              "ASKDB_LOG_LEVEL",
	"log.json":               "ASKDB_LOG_JSON",
	"server.addr":            "ASKDB_ADDR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("database.path", "hospital.db")
	v.SetDefault("conversation.max_turns", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("server.addr", ":8080")
}

// Load reads envFile (if it exists) into the process environment, then
// resolves the configuration. An empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigName("askdb")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// PORT wins over the configured address, as on Cloud Run.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c Config) Validate() error {
	if c.Conversation.MaxTurns <= 0 {
		return fmt.Errorf("ASKDB_MAX_TURNS must be positive, got %d", c.Conversation.MaxTurns)
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("ASKDB_MODEL_TIMEOUT must be positive, got %s", c.Gemini.Timeout)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("ASKDB_LOG_LEVEL: %w", err)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("ASKDB_DB_PATH must not be empty")
	}
	return nil
}

// RequireAPIKey fails when no Gemini credential is configured.
func (c Config) RequireAPIKey() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required in environment")
	}
	return nil
}
