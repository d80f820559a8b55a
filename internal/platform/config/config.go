package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"5000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	HuggingFaceAPIKey   string `env:"HUGGINGFACE_API_KEY"`
	InferenceURL        string `env:"INFERENCE_URL" default:"https://router.huggingface.co/hf-inference/models/cardiffnlp/twitter-roberta-base-sentiment"`
	InferenceInputKey   string `env:"INFERENCE_INPUT_KEY" default:"inputs"`
	InferenceBatchShape string `env:"INFERENCE_BATCH_SHAPE" default:"nested"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	GeminiModel   string `env:"GEMINI_MODEL" default:"gemini-1.5-flash"`

	RedditBaseURL   string `env:"REDDIT_BASE_URL" default:"https://www.reddit.com"`
	RedditSubreddit string `env:"REDDIT_SUBREDDIT" default:"technology"`
	RedditLimit     int    `env:"REDDIT_LIMIT" default:"10"`
	RedditUserAgent string `env:"REDDIT_USER_AGENT" default:"feedback-pulse/1.0"`

	FeedCacheTTL    time.Duration `env:"FEED_CACHE_TTL" default:"60s"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" default:"15s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDatabase loads only what the migrate command needs.
func LoadDatabase() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	// checked in a fixed order so the reported variable is deterministic
	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"HUGGINGFACE_API_KEY", cfg.HuggingFaceAPIKey},
		{"GEMINI_API_KEY", cfg.GeminiAPIKey},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	switch cfg.InferenceInputKey {
	case "inputs", "text":
	default:
		return fmt.Errorf("INFERENCE_INPUT_KEY must be \"inputs\" or \"text\", got %q", cfg.InferenceInputKey)
	}

	switch cfg.InferenceBatchShape {
	case "nested", "flat":
	default:
		return fmt.Errorf("INFERENCE_BATCH_SHAPE must be \"nested\" or \"flat\", got %q", cfg.InferenceBatchShape)
	}

	if cfg.RedditLimit < 1 || cfg.RedditLimit > 100 {
		return errors.New("REDDIT_LIMIT must be between 1 and 100")
	}
	if cfg.UpstreamTimeout <= 0 {
		return errors.New("UPSTREAM_TIMEOUT must be positive")
	}

	if cfg.AppEnv == "production" {
		mode := sslMode(cfg.DatabaseURL)
		if mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
