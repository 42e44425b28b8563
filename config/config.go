// Package config provides hierarchical configuration loading for agentjury.
// Precedence: defaults < YAML file < .env file < environment variables.
package config

import (
	"slices"
	"time"

	"github.com/hupe1980/agentjury/cost"
	"github.com/hupe1980/agentjury/logging"
)

// Config holds all runtime configuration of the jury service.
type Config struct {
	Server       Server                  `yaml:"server"`
	OpenAI       Provider                `yaml:"openai"`
	Anthropic    Provider                `yaml:"anthropic"`
	Models       Models                  `yaml:"models"`
	Pricing      map[string]cost.Pricing `yaml:"pricing"`
	Moderation   Moderation              `yaml:"moderation"`
	RateLimit    RateLimit               `yaml:"rate_limit"`
	Debate       Debate                  `yaml:"debate"`
	Logging      Logging                 `yaml:"logging"`
	FeatureFlags []string                `yaml:"feature_flags"`
}

// Server holds HTTP server configuration.
type Server struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	// RequestTimeout bounds a whole debate stream. Zero disables the limit.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Provider holds the credentials of a model provider.
type Provider struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Models holds the selectable backing models.
type Models struct {
	Options         []string          `yaml:"options"`
	Alternates      map[string]string `yaml:"alternates"`
	MaxOutputTokens int               `yaml:"max_output_tokens"`
}

// Moderation holds moderation service configuration.
type Moderation struct {
	Model              string        `yaml:"model"`
	MaxChars           int           `yaml:"max_chars"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	CacheMaxCost       int64         `yaml:"cache_max_cost"`
	BreakerMaxFailures int           `yaml:"breaker_max_failures"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout"`
}

// RateLimit holds the fixed-window debate rate limit.
type RateLimit struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// Debate holds orchestrator tuning.
type Debate struct {
	DeltaChunkSize    int `yaml:"delta_chunk_size"`
	EventBuffer       int `yaml:"event_buffer"`
	MaxWorkerCalls    int `yaml:"max_worker_calls"`
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level          string  `yaml:"level"`
	Format         string  `yaml:"format"`
	SampleRate     float64 `yaml:"sample_rate"`
	TruncateLength int     `yaml:"truncate_length"`
	AddSource      bool    `yaml:"add_source"`
}

// Defaults returns a Config with sensible defaults for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:              ":3000",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			RequestTimeout:    5 * time.Minute,
		},
		Models: Models{
			Options: []string{"gpt-5.2", "gpt-5-mini"},
			Alternates: map[string]string{
				"gpt-5.2":    "gpt-5-mini",
				"gpt-5-mini": "gpt-5.2",
			},
			MaxOutputTokens: 4096,
		},
		Pricing: map[string]cost.Pricing{},
		Moderation: Moderation{
			Model:              "omni-moderation-latest",
			MaxChars:           4000,
			CacheTTL:           10 * time.Minute,
			CacheMaxCost:       10_000,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
		RateLimit: RateLimit{
			Max:    10,
			Window: time.Minute,
		},
		Debate: Debate{
			DeltaChunkSize:    80,
			EventBuffer:       64,
			MaxWorkerCalls:    16,
			MaxConcurrentRuns: 10,
		},
		Logging: Logging{
			Level:          "info",
			Format:         "json",
			SampleRate:     1,
			TruncateLength: 200,
		},
		FeatureFlags: []string{},
	}
}

// Configured reports whether a debate backend is available.
func (c *Config) Configured() bool {
	return c.OpenAI.APIKey != ""
}

// HasFeature reports whether flag is enabled.
func (c *Config) HasFeature(flag string) bool {
	return slices.Contains(c.FeatureFlags, flag)
}

// LoggerOptions converts the logging section into logger construction options.
func (l Logging) LoggerOptions() logging.Options {
	opts := logging.DefaultOptions()
	if level, ok := logging.ParseLevel(l.Level); ok {
		opts.Level = level
	}
	opts.Format = l.Format
	opts.SampleRate = l.SampleRate
	opts.AddSource = l.AddSource
	opts.Service = "agentjury"
	return opts
}
