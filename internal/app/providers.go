package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ishaangg/conference-agent/internal/anthropic"
	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/internal/config"
	"github.com/Ishaangg/conference-agent/internal/enrich"
	"github.com/Ishaangg/conference-agent/internal/engine"
	"github.com/Ishaangg/conference-agent/internal/gemini"
	"github.com/Ishaangg/conference-agent/internal/observability"
	"github.com/Ishaangg/conference-agent/internal/openai"
	"github.com/Ishaangg/conference-agent/internal/repair"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"go.uber.org/zap"
)

// NewEngine builds the engine and the provider clients selected by cfg.
func NewEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*engine.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}

	var gem *gemini.Client
	geminiClient := func() (*gemini.Client, error) {
		if gem != nil {
			return gem, nil
		}
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			Focus:   cfg.ResearchFocus,
		})
		if err != nil {
			return nil, err
		}
		gem = c
		return gem, nil
	}

	var enricher enrich.Enricher
	if !opts.SkipEnrichment {
		switch provider(cfg.EnrichProvider) {
		case config.ProviderGemini:
			enricher, err = geminiClient()
		case config.ProviderOpenAI:
			enricher, err = openai.New(openai.Config{
				APIKey:  cfg.OpenAIAPIKey,
				Model:   cfg.OpenAIModel,
				BaseURL: cfg.OpenAIBaseURL,
				Focus:   cfg.ResearchFocus,
			})
		default:
			err = core.E(core.KindConfiguration, "providers", fmt.Errorf("unknown enrich provider %q", cfg.EnrichProvider))
		}
		if err != nil {
			return nil, err
		}
	}

	var classifier classify.Classifier
	switch provider(cfg.ClassifyProvider) {
	case config.ProviderGemini:
		classifier, err = geminiClient()
	case config.ProviderAnthropic:
		classifier, err = anthropic.New(anthropic.Config{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
		})
	default:
		err = core.E(core.KindConfiguration, "providers", fmt.Errorf("unknown classify provider %q", cfg.ClassifyProvider))
	}
	if err != nil {
		return nil, err
	}

	return engine.New(opts, engine.Deps{
		Enricher:   enricher,
		Classifier: classifier,
		Repairer:   repair.New(nil),
		Logger:     logger,
		Metrics:    metrics,
	})
}

func provider(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
