package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all settings for the CLI tools and the feed daemon,
// populated from environment variables.
type Config struct {
	// ComCat API access.
	ComcatBaseURL string        `env:"COMCAT_BASE_URL" envDefault:"https://earthquake.usgs.gov/fdsnws/event/1"`
	ComcatTimeout time.Duration `env:"COMCAT_TIMEOUT" envDefault:"60s"`

	// Batch detail fetching.
	DetailWorkers int `env:"DETAIL_WORKERS" envDefault:"4"`

	// Feed daemon.
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaTopic       string        `env:"KAFKA_TOPIC" envDefault:"quake-events"`
	FeedPollInterval time.Duration `env:"FEED_POLL_INTERVAL" envDefault:"60s"`
	FeedLookback     time.Duration `env:"FEED_LOOKBACK" envDefault:"1h"`
	FeedMinMagnitude float64       `env:"FEED_MIN_MAGNITUDE" envDefault:"0"`

	// Operational endpoints and shutdown.
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.ComcatBaseURL == "" {
		return nil, errors.New("COMCAT_BASE_URL is required")
	}
	if cfg.ComcatTimeout <= 0 {
		return nil, errors.New("COMCAT_TIMEOUT must be positive")
	}
	if cfg.DetailWorkers <= 0 {
		return nil, errors.New("DETAIL_WORKERS must be positive")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}
	if cfg.FeedPollInterval <= 0 {
		return nil, errors.New("FEED_POLL_INTERVAL must be positive")
	}
	if cfg.FeedLookback <= 0 {
		return nil, errors.New("FEED_LOOKBACK must be positive")
	}

	return &cfg, nil
}
