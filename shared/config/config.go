package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Storage    StorageConfig    `yaml:"storage"`
	HTTP       HTTPConfig       `yaml:"http"`
	Watch      WatchConfig      `yaml:"watch"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

type YouTubeConfig struct {
	// APIKey, when set, is saved into the credential store at startup.
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	// Endpoint overrides the YouTube Data API base URL.
	Endpoint string `yaml:"endpoint"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	// ModeAuto calls the remote model when an analysis key is stored.
	ModeAuto = "auto"
	// ModeMock always uses the synthetic generator.
	ModeMock = "mock"
)

type AIConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Mode     string `yaml:"mode"`
	APIKey   string `yaml:"api_key" env:"GEMINI_API_KEY"`
	BaseURL  string `yaml:"base_url"`
}

const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type StorageConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	Prefix   string `yaml:"prefix"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type WatchConfig struct {
	URLs          []string `yaml:"urls"`
	Schedule      string   `yaml:"schedule"`
	RatePerMinute int      `yaml:"rate_per_minute"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether enough is configured to send mail.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != "" && e.FromEmail != ""
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads .env, then the YAML file named by CONFIG_FILE (default
// config.yaml). A missing default file is not an error; everything has a default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file, run on defaults and environment
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.AI.APIKey == "" {
		if c.AI.Provider == ProviderOpenAI {
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		} else {
			c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if c.Storage.RedisURL == "" {
		c.Storage.RedisURL = os.Getenv("REDIS_URL")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
}

func (c *Config) applyDefaults() {
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderGemini
	}
	if c.AI.Model == "" {
		if c.AI.Provider == ProviderOpenAI {
			c.AI.Model = "gpt-4o-mini"
		} else {
			c.AI.Model = "gemini-2.5-flash"
		}
	}
	if c.AI.Mode == "" {
		c.AI.Mode = ModeAuto
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/credentials.json"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Watch.RatePerMinute == 0 {
		c.Watch.RatePerMinute = 30
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown ai.provider %q (want %s or %s)", c.AI.Provider, ProviderGemini, ProviderOpenAI)
	}
	switch c.AI.Mode {
	case ModeAuto, ModeMock:
	default:
		return fmt.Errorf("unknown ai.mode %q (want %s or %s)", c.AI.Mode, ModeAuto, ModeMock)
	}
	switch c.Storage.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis storage requires a URL (set REDIS_URL or storage.redis_url)")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.Watch.RatePerMinute < 0 {
		return fmt.Errorf("watch.rate_per_minute must be positive")
	}
	return nil
}

// ValidateWatch checks the settings only watch mode needs.
func (c *Config) ValidateWatch() error {
	if len(c.Watch.URLs) == 0 {
		return fmt.Errorf("watch mode needs at least one URL in watch.urls")
	}
	if c.Email.SMTPServer != "" && (c.Email.Username == "" || c.Email.Password == "") {
		return fmt.Errorf("email username and password are required when smtp_server is set (set EMAIL_USERNAME/EMAIL_PASSWORD)")
	}
	return nil
}
