// Package config manages application configuration from default values,
// a YAML config file, and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the full application configuration. Values can be set via
// config.yaml or environment variables prefixed with BOT_
// (e.g. BOT_WHATSAPP_TOKEN, BOT_SESSION_KEY_SALT).
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	AI        AIConfig        `mapstructure:"ai"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls log verbosity and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds the webhook HTTP server settings.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"      validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,min=1s"`
}

// WhatsAppConfig holds WhatsApp Cloud API credentials and endpoints.
type WhatsAppConfig struct {
	Token         string        `mapstructure:"token"           validate:"required"`
	PhoneNumberID string        `mapstructure:"phone_number_id" validate:"required"`
	APIVersion    string        `mapstructure:"api_version"     validate:"required"`
	VerifyToken   string        `mapstructure:"verify_token"    validate:"required"`
	BaseURL       string        `mapstructure:"base_url"        validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout"         validate:"required,min=1s,max=2m"`
}

// AIConfig holds the model backend settings. Backend selects the
// implementation; BaseURL only applies to the openai backend.
type AIConfig struct {
	Backend     string        `mapstructure:"backend"     validate:"required,oneof=openai gemini"`
	Token       string        `mapstructure:"token"       validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Instruction string        `mapstructure:"instruction" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"required,min=1s,max=10m"`
}

// RedisConfig holds the session backing store connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// SessionConfig controls conversation history retention and key derivation.
// KeySalt is the secret used to derive store keys from user identifiers;
// rotating it invalidates every existing session.
type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"required,min=1m"`
	KeySalt     string        `mapstructure:"key_salt"     validate:"required"`
}

// DedupConfig bounds the inbound event dedup window.
type DedupConfig struct {
	MaxEntries int           `mapstructure:"max_entries" validate:"required,min=16"`
	Window     time.Duration `mapstructure:"window"      validate:"required,min=1m"`
}

// SchedulerConfig holds scheduled task definitions keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds user-visible fixed message texts.
type MessagesConfig struct {
	AIError string `mapstructure:"ai_error" validate:"required"`
}

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional, a missing file is not an error)
// 3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against the struct validation tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
