package enrich_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/enrich"
)

func TestFailedFillsFallbackText(t *testing.T) {
	item := attendee.New(attendee.Row{FirstName: "Ada", Email: "ada@acme.io"})

	o := enrich.Failed(item, "", errors.New("dial tcp: Bearer abc123 refused"))
	if !strings.HasPrefix(o.Text, "Error performing web search: ") {
		t.Fatalf("unexpected text %q", o.Text)
	}
	if strings.Contains(o.Text, "abc123") {
		t.Fatalf("fallback text leaked a token: %q", o.Text)
	}

	o = enrich.Failed(item, "client supplied", errors.New("boom"))
	if o.Text != "client supplied" || o.Err == nil {
		t.Fatalf("unexpected outcome: %#v", o)
	}
}

func TestPromptRecord(t *testing.T) {
	item := attendee.New(attendee.Row{Email: "nobody"})
	rec := enrich.Outcome{Item: item, Text: "nothing found"}.PromptRecord()
	if rec.Organization != attendee.UnknownName || rec.PersonName != attendee.UnknownName {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if rec.CompanyDomain != attendee.UnknownDomain || rec.SearchResult != "nothing found" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestBuildQuery(t *testing.T) {
	item := attendee.New(attendee.Row{FirstName: "Ada", LastName: "Lovelace", Email: "ada@acme.io", Organization: "Acme"})
	got := enrich.BuildQuery(item, "oncology trials")
	if got != "Ada Lovelace (Acme). Focus: oncology trials." {
		t.Fatalf("unexpected query %q", got)
	}
	if !strings.Contains(enrich.BuildQuery(item, " "), "pharmaceutical") {
		t.Fatalf("expected default focus")
	}
}
