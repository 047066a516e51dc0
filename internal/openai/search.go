// Package openai implements the attendee research lookup against an OpenAI
// compatible chat completions endpoint with web search enabled.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/enrich"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini-search-preview"

	defaultTimeout = 60 * time.Second
)

const systemMessage = "You are a research assistant. Provide accurate, up-to-date information about people and organizations in the pharmaceutical and healthcare industry."

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Focus   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type webSearchOptions struct {
	SearchContextSize string `json:"search_context_size"`
}

type chatRequest struct {
	Model            string           `json:"model"`
	Messages         []chatMessage    `json:"messages"`
	WebSearchOptions webSearchOptions `json:"web_search_options"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Searcher is safe for concurrent use.
type Searcher struct {
	client   *resty.Client
	endpoint string
	model    string
	focus    string
}

var _ enrich.Enricher = (*Searcher)(nil)

func New(cfg Config) (*Searcher, error) {
	client := resty.New()
	client.SetTimeout(defaultTimeout)
	return NewWithClient(cfg, client)
}

func NewWithClient(cfg Config, client *resty.Client) (*Searcher, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, core.E(core.KindConfiguration, "openai", errors.New("OPENAI_API_KEY is required"))
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, core.E(core.KindConfiguration, "openai", fmt.Errorf("invalid base url: %w", err))
	}
	if client == nil {
		return nil, core.E(core.KindConfiguration, "openai", errors.New("resty client is required"))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	client.SetRetryCount(0)
	client.SetAuthToken(apiKey)

	return &Searcher{
		client:   client,
		endpoint: base + "/chat/completions",
		model:    model,
		focus:    strings.TrimSpace(cfg.Focus),
	}, nil
}

// Enrich runs one web-search completion for the attendee. On failure it returns a
// fallback text together with the error.
func (s *Searcher) Enrich(ctx context.Context, item attendee.Item) (string, error) {
	query := enrich.BuildQuery(item, s.focus)
	text, err := s.search(ctx, query)
	if err != nil {
		return enrich.FallbackText(err), err
	}
	if text == "" {
		return "No results found for query: '" + query + "'", nil
	}
	return text, nil
}

func (s *Searcher) search(ctx context.Context, query string) (string, error) {
	var out chatResponse
	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model: s.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemMessage},
				{Role: "user", Content: "Please provide information about: " + query},
			},
			WebSearchOptions: webSearchOptions{SearchContextSize: "high"},
		}).
		SetResult(&out).
		Post(s.endpoint)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", core.E(core.KindTransientService, "openai", err)
	}

	status := response.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		err := fmt.Errorf("search returned status %d: %s", status, strings.TrimSpace(response.String()))
		if isTransientHTTPStatus(status) {
			return "", core.E(core.KindTransientService, "openai", err)
		}
		return "", err
	}

	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
