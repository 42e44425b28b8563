package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentjury/cost"
	"github.com/hupe1980/agentjury/logging"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentjury.yaml"

// DefaultEnvFile is the dotenv file read before the environment overlay.
const DefaultEnvFile = ".env"

// Load returns a Config using the default file locations.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile, DefaultEnvFile)
}

// LoadFrom returns a Config loaded from the given YAML and dotenv paths using
// the hierarchy: defaults < YAML < .env < ENV. Both files are optional.
// Variables already present in the environment win over the dotenv file.
func LoadFrom(yamlPath, envPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadDotenv(envPath); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	issues := loadEnv(&cfg)

	if err := validate(&cfg, issues); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if path is empty or the file does not exist.
func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotenv populates unset environment variables from path.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg. Only non-empty values
// override the current config. Unparsable values are returned as issues.
func loadEnv(cfg *Config) []string {
	var issues []string
	parse := func(key string, err error) {
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v", key, err))
		}
	}

	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.BaseURL, "ANTHROPIC_BASE_URL")
	setString(&cfg.Moderation.Model, "OPENAI_MODERATION_MODEL")

	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			parse("PORT", errors.New("must be a number"))
		} else {
			cfg.Server.Addr = ":" + v
		}
	}
	setString(&cfg.Server.Addr, "AGENTJURY_ADDR")

	if v := os.Getenv("OPENAI_PRICING_OVERRIDES"); v != "" {
		var overrides map[string]cost.Pricing
		if err := json.Unmarshal([]byte(v), &overrides); err != nil {
			parse("OPENAI_PRICING_OVERRIDES", errors.New("must be a JSON object"))
		} else {
			for name, p := range overrides {
				cfg.Pricing[name] = p
			}
		}
	}

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	parse("LOG_SAMPLE_RATE", setFloat64(&cfg.Logging.SampleRate, "LOG_SAMPLE_RATE"))
	parse("LOG_TRUNCATE_LENGTH", setInt(&cfg.Logging.TruncateLength, "LOG_TRUNCATE_LENGTH"))

	if v := os.Getenv("FEATURE_FLAGS"); v != "" {
		cfg.FeatureFlags = splitList(v)
	}

	parse("RATE_LIMIT_MAX", setInt(&cfg.RateLimit.Max, "RATE_LIMIT_MAX"))
	parse("RATE_LIMIT_WINDOW", setDuration(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW"))

	return issues
}

// validate checks cfg and aggregates every problem into one error.
func validate(cfg *Config, issues []string) error {
	check := func(ok bool, field, msg string) {
		if !ok {
			issues = append(issues, field+": "+msg)
		}
	}

	if cfg.Pricing == nil {
		cfg.Pricing = map[string]cost.Pricing{}
	}

	check(cfg.Server.Addr != "", "server.addr", "is required")
	check(len(cfg.Models.Options) > 0, "models.options", "must list at least one model")
	check(cfg.Models.MaxOutputTokens >= 0, "models.max_output_tokens", "must be >= 0")
	for name, p := range cfg.Pricing {
		check(p.InputUSDPer1M >= 0 && p.OutputUSDPer1M >= 0, "pricing."+name, "must not be negative")
	}
	check(cfg.Moderation.MaxChars >= 1, "moderation.max_chars", "must be >= 1")
	check(cfg.Moderation.BreakerMaxFailures >= 1, "moderation.breaker_max_failures", "must be >= 1")
	check(cfg.RateLimit.Max >= 1, "rate_limit.max", "must be >= 1")
	check(cfg.RateLimit.Window > 0, "rate_limit.window", "must be positive")
	check(cfg.Debate.DeltaChunkSize >= 1, "debate.delta_chunk_size", "must be >= 1")
	check(cfg.Debate.EventBuffer >= 0, "debate.event_buffer", "must be >= 0")
	check(cfg.Debate.MaxWorkerCalls >= 0, "debate.max_worker_calls", "must be >= 0")

	_, ok := logging.ParseLevel(cfg.Logging.Level)
	check(ok, "logging.level", "must be one of debug, info, warn, error")
	check(cfg.Logging.Format == "json" || cfg.Logging.Format == "text", "logging.format", "must be json or text")
	check(cfg.Logging.SampleRate >= 0 && cfg.Logging.SampleRate <= 1, "logging.sample_rate", "must be between 0 and 1")
	check(cfg.Logging.TruncateLength >= 50 && cfg.Logging.TruncateLength <= 1000, "logging.truncate_length", "must be between 50 and 1000")

	if len(issues) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(issues, ", "))
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("must be an integer")
		}
		*dst = n
	}
	return nil
}

func setFloat64(dst *float64, key string) error {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("must be a number")
		}
		*dst = f
	}
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("must be a duration such as 60s")
		}
		*dst = d
	}
	return nil
}
