// Package anthropic implements batch classification on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 4096
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Classifier struct {
	client anthropic.Client
	model  string
}

var _ classify.Classifier = (*Classifier)(nil)

func New(cfg Config) (*Classifier, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, core.E(core.KindConfiguration, "anthropic", errors.New("ANTHROPIC_API_KEY is required"))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Classifier{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Classify sends one batch prompt and returns the concatenated text blocks.
func (c *Classifier) Classify(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: classify.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyErr(err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

func classifyErr(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode/100 == 5 {
			return core.E(core.KindTransientService, "anthropic", err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.E(core.KindTransientService, "anthropic", err)
	}
	return err
}
