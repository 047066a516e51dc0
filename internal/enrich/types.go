package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/redact"
)

// Enricher performs one remote lookup for one attendee.
//
// Implementations must be safe for concurrent use and must not retry. On failure they
// return a non-empty fallback text alongside the error so downstream classification
// still has something to read.
type Enricher interface {
	Enrich(ctx context.Context, item attendee.Item) (string, error)
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(ctx context.Context, item attendee.Item) (string, error)

func (f EnricherFunc) Enrich(ctx context.Context, item attendee.Item) (string, error) {
	return f(ctx, item)
}

// Outcome is the result of enriching one item. Failed lookups still produce an Outcome
// with Err set and Text carrying an explanatory message.
type Outcome struct {
	Item attendee.Item
	Text string
	Err  error
}

// FallbackText is the text recorded for a failed lookup.
func FallbackText(err error) string {
	if err == nil {
		return ""
	}
	return "Error performing web search: " + redact.Secrets(err.Error())
}

// Failed builds an Outcome for an item whose lookup failed, filling Text when the
// client did not provide one.
func Failed(item attendee.Item, text string, err error) Outcome {
	if strings.TrimSpace(text) == "" {
		text = FallbackText(err)
	}
	return Outcome{Item: item, Text: text, Err: err}
}

// PromptRecord is the structured view of an Outcome embedded in classification prompts.
type PromptRecord struct {
	PersonName    string `json:"person_name"`
	Organization  string `json:"organization"`
	Email         string `json:"email"`
	CompanyDomain string `json:"company_domain"`
	SearchResult  string `json:"search_result"`
}

func (o Outcome) PromptRecord() PromptRecord {
	org := o.Item.Organization
	if strings.TrimSpace(org) == "" {
		org = attendee.UnknownName
	}
	return PromptRecord{
		PersonName:    o.Item.DisplayName,
		Organization:  org,
		Email:         o.Item.Email,
		CompanyDomain: o.Item.Domain,
		SearchResult:  o.Text,
	}
}

// DefaultFocus steers the per-attendee research query.
const DefaultFocus = "pharmaceutical executive OR researcher OR scientist; association with the " +
	"pharmaceutical industry, oncology, women's health, or organ studies research; " +
	"role in clinical trials or drug development"

// BuildQuery builds the research query for one attendee.
func BuildQuery(item attendee.Item, focus string) string {
	focus = strings.TrimSpace(focus)
	if focus == "" {
		focus = DefaultFocus
	}
	subject := item.DisplayName
	if org := strings.TrimSpace(item.Organization); org != "" {
		subject = fmt.Sprintf("%s (%s)", subject, org)
	}
	return fmt.Sprintf("%s. Focus: %s.", subject, focus)
}
