// Package gemini implements both the per-attendee research lookup (Google Search
// grounded generation) and the batch classification step on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/internal/enrich"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// Focus steers the research query. Empty uses enrich.DefaultFocus.
	Focus string
}

// Client is safe for concurrent use; it holds only immutable configuration and the
// underlying genai client.
type Client struct {
	client *genai.Client
	model  string
	focus  string
}

var (
	_ enrich.Enricher     = (*Client)(nil)
	_ classify.Classifier = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, core.E(core.KindConfiguration, "gemini", errors.New("GEMINI_API_KEY is required"))
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, core.E(core.KindConfiguration, "gemini", errors.New("GEMINI_MODEL is required"))
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
		focus:  strings.TrimSpace(cfg.Focus),
	}, nil
}

const researchInstruction = `You are a pharmaceutical industry research assistant. Given a person and their organization, use web search to find:
- their connection to the pharmaceutical industry, clinical research, and drug development
- involvement in oncology, women's health, or organ/transplant studies
- relevant roles, publications, and clinical trials
- the organization's therapeutic focus areas
State clearly when information about the individual is not available, and fall back to what is known about the organization.`

// Enrich runs one grounded search for the attendee. On failure it returns a fallback
// text together with the error.
func (c *Client) Enrich(ctx context.Context, item attendee.Item) (string, error) {
	query := enrich.BuildQuery(item, c.focus)
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text("Please provide information about: "+query),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: researchInstruction}}},
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			CandidateCount: 1,
		},
	)
	if err != nil {
		err = classifyErr(err)
		return enrich.FallbackText(err), err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "No results found for query: '" + query + "'", nil
	}
	return text, nil
}

// Classify sends one batch prompt and returns the raw model text.
func (c *Client) Classify(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: classify.SystemPrompt}}},
			CandidateCount:    1,
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return "", classifyErr(err)
	}
	return resp.Text(), nil
}

func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return core.E(core.KindTransientService, "gemini", err)
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return core.E(core.KindTransientService, "gemini", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.E(core.KindTransientService, "gemini", err)
	}
	return err
}
