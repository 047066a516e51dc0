// Package classify defines the batch classification step and its record shape.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ishaangg/conference-agent/internal/enrich"
)

// Record is one classified attendee parsed out of a batch response.
type Record struct {
	PersonName   string `json:"person_name"`
	Category     string `json:"category"`
	SubCategory  string `json:"sub_category"`
	Organization string `json:"organization"`
	Domain       string `json:"domain"`
}

// Header returns the stable CSV header for Record.
func Header() []string {
	return []string{"person_name", "category", "sub_category", "organization", "domain"}
}

// Values returns the record's fields in Header() order.
func (r Record) Values() []string {
	return []string{r.PersonName, r.Category, r.SubCategory, r.Organization, r.Domain}
}

// Classifier turns one batch prompt into one raw text response. The response is
// expected to contain a JSON array of records but may carry formatting noise.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, prompt string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// SystemPrompt is sent as the system instruction by classifier backends that support one.
const SystemPrompt = "You are a pharmaceutical industry analyst. You classify conference attendees " +
	"using the research notes provided. You answer with JSON only."

// Categories and sub-categories the classifier must choose from.
var (
	Categories    = []string{"Pharmaceutical", "Healthcare", "Other"}
	SubCategories = []string{"Pharma", "Oncology", "Women's Health", "Organ Studies", "Not a Lead"}
)

// BuildPrompt embeds the batch's outcomes as a JSON array in a fixed instruction.
func BuildPrompt(outcomes []enrich.Outcome) (string, error) {
	records := make([]enrich.PromptRecord, 0, len(outcomes))
	for _, o := range outcomes {
		records = append(records, o.PromptRecord())
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal batch outcomes: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Classify each of the following %d attendees.\n\n", len(records))
	sb.WriteString("Return ONLY a JSON array with one object per attendee and these keys:\n")
	sb.WriteString("- person_name (string)\n")
	fmt.Fprintf(&sb, "- category (string; exactly one of: %s)\n", quoteJoin(Categories))
	fmt.Fprintf(&sb, "- sub_category (string; exactly one of: %s)\n", quoteJoin(SubCategories))
	sb.WriteString("- organization (string)\n")
	sb.WriteString("- domain (string; the company_domain of the attendee)\n\n")
	sb.WriteString("Pick a single value for category and sub_category; never list alternatives.\n\n")
	sb.WriteString("Attendees:\n")
	sb.Write(b)
	sb.WriteString("\n")
	return sb.String(), nil
}

func quoteJoin(vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
