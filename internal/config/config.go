// SPDX-License-Identifier: MIT

// Package config loads pwsctl settings with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds everything pwsctl needs to talk to the API.
type Config struct {
	APIKey      string        `yaml:"api_key" envconfig:"PWS_API_KEY"`
	BaseURL     string        `yaml:"base_url" envconfig:"PWS_BASE_URL"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"PWS_TIMEOUT"`
	Retries     int           `yaml:"retries" envconfig:"PWS_RETRIES"`
	RateLimit   float64       `yaml:"rate_limit" envconfig:"PWS_RATE_LIMIT"`
	RateBurst   int           `yaml:"rate_burst" envconfig:"PWS_RATE_BURST"`
	Concurrency int           `yaml:"concurrency" envconfig:"PWS_CONCURRENCY"`
	LogLevel    string        `yaml:"log_level" envconfig:"PWS_LOG_LEVEL"`
}

func defaults() Config {
	return Config{
		Timeout:     30 * time.Second,
		Retries:     2,
		RateLimit:   10,
		RateBurst:   20,
		Concurrency: 5,
	}
}

// Load builds the config: defaults, then the YAML file at path (if path is
// non-empty; a missing file is an error), then PWS_* environment variables.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process("pws", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot work with. The API key is not
// checked here; the client reports its own error when no key is available.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must not be negative, got %d", c.Retries)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: rate_limit must be positive, got %g", c.RateLimit)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("config: rate_burst must be at least 1, got %d", c.RateBurst)
	}
	if c.Concurrency < 1 || c.Concurrency > 10 {
		return fmt.Errorf("config: concurrency must be between 1 and 10, got %d", c.Concurrency)
	}
	return nil
}
