// Package config loads the service configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

// Config is the full service configuration, sourced from environment
// variables (optionally loaded from a .env file first).
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	LLM       LLMConfig
	Server    ServerConfig
	Redis     RedisConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Archive   ArchiveConfig
}

type LLMConfig struct {
	Provider          string        `envconfig:"LLM_PROVIDER" default:"openai"`
	APIKey            string        `envconfig:"OPENAI_API_KEY"`
	BaseURL           string        `envconfig:"OPENAI_BASE_URL"`
	Model             string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	MaxTokens         int64         `envconfig:"LLM_MAX_TOKENS" default:"150"`
	Temperature       float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	Timeout           time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	OnGenerationError string        `envconfig:"ON_GENERATION_ERROR" default:"raise"`
}

type ServerConfig struct {
	Addr           string        `envconfig:"SERVER_ADDR" default:":3001"`
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"60s"`
	CORSOrigins    []string      `envconfig:"SERVER_CORS_ORIGINS" default:"*"`
	MetricsAddr    string        `envconfig:"METRICS_ADDR"`
}

// RedisConfig is optional; an empty URL keeps sessions in memory and turns
// rate limiting off.
type RedisConfig struct {
	URL          string `envconfig:"REDIS_URL"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
}

type SessionConfig struct {
	TTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

type RateLimitConfig struct {
	Enabled   bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	PerMinute int  `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
}

type ArchiveConfig struct {
	Dir string `envconfig:"STORY_DIR" default:"stories"`
}

// LoadEnvFile copies the variables in path into the process environment.
// Variables that are already set win.
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// Load decodes and validates the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "mock":
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible API; the endpoint must be explicit.
		if c.LLM.HasCredential() && c.LLM.BaseURL == "" {
			return errors.New("llm provider deepseek requires OPENAI_BASE_URL (OpenAI-compatible endpoint)")
		}
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("LLM_MAX_TOKENS must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("LLM_TEMPERATURE must be between 0 and 2")
	}
	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive when rate limiting is enabled")
	}
	return nil
}

// Env returns the parsed deployment environment.
func (c Config) Env() Environment {
	return ParseEnvironment(c.Environment)
}

// HasCredential reports whether a usable API key is configured. Template
// placeholders such as "your_openai_api_key_here" do not count.
func (l LLMConfig) HasCredential() bool {
	key := strings.TrimSpace(l.APIKey)
	if key == "" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(key), "your")
}

// New connects to Redis and verifies the connection.
func (r RedisConfig) New() (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, err
	}

	opts.ReadTimeout = time.Duration(r.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(r.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(r.DialTimeout) * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Enabled reports whether a Redis URL was provided.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}
