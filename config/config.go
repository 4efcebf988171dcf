// Package config loads the assistant's configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Weather WeatherConfig `mapstructure:"weather"`
	Model   ModelConfig   `mapstructure:"model"`
	Pexels  PexelsConfig  `mapstructure:"pexels"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig stores the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SessionConfig stores session store and sweeper settings.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`            // Idle window before a session expires
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // How often the sweeper runs
	HistoryLimit  int           `mapstructure:"history_limit"`  // Prior messages fed to the assistant
	ListLimit     int           `mapstructure:"list_limit"`     // Default session list page size
}

// CacheConfig stores per-kind upstream response TTLs.
type CacheConfig struct {
	Current    time.Duration `mapstructure:"current"`
	Forecast   time.Duration `mapstructure:"forecast"`
	AirQuality time.Duration `mapstructure:"air_quality"`
	Historical time.Duration `mapstructure:"historical"`
	Geocode    time.Duration `mapstructure:"geocode"`
}

// WeatherConfig stores OpenWeather client settings.
type WeatherConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ModelConfig stores language model settings. Each provider has its own
// API key field so switching providers never hands one vendor's secret
// to another's client.
type ModelConfig struct {
	Provider        string  `mapstructure:"provider"` // "openai", "anthropic" or "mock"
	Name            string  `mapstructure:"name"`     // Provider model id; empty uses the provider default
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int64   `mapstructure:"max_tokens"`
	OpenAIAPIKey    string  `mapstructure:"openai_api_key"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
}

// PexelsConfig stores image search settings.
type PexelsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig stores logger construction settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// Load reads configuration from configPath (or ./config.yaml when empty)
// and the environment. A missing config file is fine; the defaults plus
// environment variables carry a full configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The env names the deployment already uses.
	v.BindEnv("weather.api_key", "OPENWEATHER_API_KEY")
	v.BindEnv("model.openai_api_key", "OPENAI_API_KEY")
	v.BindEnv("model.anthropic_api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("model.provider", "MODEL_PROVIDER")
	v.BindEnv("pexels.api_key", "PEXELS_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.sweep_interval", time.Hour)
	v.SetDefault("session.history_limit", 10)
	v.SetDefault("session.list_limit", 50)

	v.SetDefault("cache.current", 5*time.Minute)
	v.SetDefault("cache.forecast", 3*time.Hour)
	v.SetDefault("cache.air_quality", 10*time.Minute)
	v.SetDefault("cache.historical", 6*time.Hour)
	v.SetDefault("cache.geocode", 24*time.Hour)

	v.SetDefault("weather.base_url", "http://api.openweathermap.org")
	v.SetDefault("weather.timeout", 10*time.Second)

	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.max_tokens", 4096)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
