// Package config loads the enricher's configuration from the environment, an optional
// YAML overlay, and command-line overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Ishaangg/conference-agent/internal/engine"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/Netflix/go-env"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds every tunable of a run. Durations and the rate are kept as text and
// parsed by EngineOptions so env, YAML and flags share one syntax. API keys are read
// from the environment only.
type Config struct {
	BatchSize             int    `env:"BATCH_SIZE,default=3" yaml:"batch_size"`
	MaxWorkers            int    `env:"MAX_WORKERS,default=3" yaml:"max_workers"`
	MaxConcurrentSearches int    `env:"MAX_CONCURRENT_SEARCHES,default=5" yaml:"max_concurrent_searches"`
	PacingDelay           string `env:"PACING_DELAY,default=500ms" yaml:"pacing_delay"`
	RequestTimeout        string `env:"REQUEST_TIMEOUT,default=60s" yaml:"request_timeout"`
	RateLimitRPS          string `env:"RATE_LIMIT_RPS,default=0" yaml:"rate_limit_rps"`
	SkipEnrichment        bool   `env:"SKIP_ENRICHMENT,default=false" yaml:"skip_enrichment"`
	ResearchFocus         string `env:"RESEARCH_FOCUS" yaml:"research_focus"`
	LogLevel              string `env:"LOG_LEVEL,default=info" yaml:"log_level"`

	EnrichProvider   string `env:"ENRICH_PROVIDER,default=gemini" yaml:"enrich_provider"`
	ClassifyProvider string `env:"CLASSIFY_PROVIDER,default=gemini" yaml:"classify_provider"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY" yaml:"-"`
	GeminiModel   string `env:"GEMINI_MODEL,default=gemini-2.5-flash" yaml:"gemini_model"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" yaml:"gemini_base_url"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY" yaml:"-"`
	OpenAIModel   string `env:"OPENAI_MODEL,default=gpt-4o-mini-search-preview" yaml:"openai_model"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" yaml:"openai_base_url"`

	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY" yaml:"-"`
	AnthropicModel   string `env:"ANTHROPIC_MODEL,default=claude-sonnet-4-5" yaml:"anthropic_model"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL" yaml:"anthropic_base_url"`
}

// Load reads the process environment and, when path is non-empty, overlays the YAML
// file at path.
func Load(path string) (*Config, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, core.E(core.KindConfiguration, "config", fmt.Errorf("failed to read environment: %w", err))
	}
	return LoadFrom(es, path)
}

// LoadFrom is Load over an explicit environment set.
func LoadFrom(es env.EnvSet, path string) (*Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, core.E(core.KindConfiguration, "config", fmt.Errorf("failed to load config: %w", err))
	}
	if strings.TrimSpace(path) != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return core.E(core.KindConfiguration, "config", fmt.Errorf("read %s: %w", path, err))
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return core.E(core.KindConfiguration, "config", fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

// EngineOptions converts the config into the engine's single options value.
func (c *Config) EngineOptions() (engine.Options, error) {
	pacing, err := parseDuration("PACING_DELAY", c.PacingDelay)
	if err != nil {
		return engine.Options{}, err
	}
	timeout, err := parseDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	if err != nil {
		return engine.Options{}, err
	}
	rps := 0.0
	if s := strings.TrimSpace(c.RateLimitRPS); s != "" {
		rps, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return engine.Options{}, core.E(core.KindConfiguration, "config", fmt.Errorf("RATE_LIMIT_RPS: %w", err))
		}
	}

	opts := engine.Options{
		BatchSize:             c.BatchSize,
		MaxWorkers:            c.MaxWorkers,
		MaxConcurrentPerBatch: c.MaxConcurrentSearches,
		PacingDelay:           pacing,
		RequestTimeout:        timeout,
		RateLimitRPS:          rps,
		SkipEnrichment:        c.SkipEnrichment,
	}
	if err := opts.Validate(); err != nil {
		return engine.Options{}, err
	}
	return opts, nil
}

// Validate checks the engine knobs and that the selected providers have credentials.
func (c *Config) Validate() error {
	if _, err := c.EngineOptions(); err != nil {
		return err
	}

	var errs []error
	keys := map[string]string{}
	if !c.SkipEnrichment {
		switch strings.ToLower(strings.TrimSpace(c.EnrichProvider)) {
		case ProviderGemini:
			keys["GEMINI_API_KEY"] = c.GeminiAPIKey
		case ProviderOpenAI:
			keys["OPENAI_API_KEY"] = c.OpenAIAPIKey
		default:
			errs = append(errs, fmt.Errorf("ENRICH_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.EnrichProvider))
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.ClassifyProvider)) {
	case ProviderGemini:
		keys["GEMINI_API_KEY"] = c.GeminiAPIKey
	case ProviderAnthropic:
		keys["ANTHROPIC_API_KEY"] = c.AnthropicAPIKey
	default:
		errs = append(errs, fmt.Errorf("CLASSIFY_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderAnthropic, c.ClassifyProvider))
	}
	for _, name := range slices.Sorted(maps.Keys(keys)) {
		if strings.TrimSpace(keys[name]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return core.E(core.KindConfiguration, "config", err)
	}
	return nil
}

func parseDuration(name, value string) (time.Duration, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, core.E(core.KindConfiguration, "config", fmt.Errorf("%s: %w", name, err))
	}
	return d, nil
}
