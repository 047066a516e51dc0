package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"google.golang.org/genai"
)

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temp net err" }
func (tempNetErr) Timeout() bool   { return false }
func (tempNetErr) Temporary() bool { return true }

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_500", in: genai.APIError{Code: 500}, wantTransient: true},
		{name: "api_401", in: genai.APIError{Code: 401}, wantTransient: false},
		{name: "net_temporary", in: tempNetErr{}, wantTransient: true},
		{name: "deadline", in: context.DeadlineExceeded, wantTransient: true},
		{name: "wrapped_api_429", in: errors.New(genai.APIError{Code: 429}.Error()), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			if isTransient := core.IsKind(got, core.KindTransientService); isTransient != tt.wantTransient {
				t.Fatalf("transient=%v want=%v (err=%T %v)", isTransient, tt.wantTransient, got, got)
			}
		})
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Config{Model: "gemini-2.5-flash"})
	if !core.IsKind(err, core.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err = New(context.Background(), Config{APIKey: "k"})
	if !core.IsKind(err, core.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func fakeGemini(t *testing.T, status int, text string, seen *atomic.Value) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if seen != nil {
			seen.Store(string(b))
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": text}},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEnrichAndClassifyAgainstFakeServer(t *testing.T) {
	var seen atomic.Value
	srv := fakeGemini(t, http.StatusOK, "Ada leads oncology trials at Acme.", &seen)
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "test-key", Model: "gemini-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	item := attendee.New(attendee.Row{FirstName: "Ada", Email: "ada@acme.io", Organization: "Acme"})
	text, err := c.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if text != "Ada leads oncology trials at Acme." {
		t.Fatalf("unexpected text %q", text)
	}
	if body, _ := seen.Load().(string); !strings.Contains(body, "Ada (Acme)") || !strings.Contains(body, "googleSearch") {
		t.Fatalf("request missing query or search tool: %s", body)
	}

	raw, err := c.Classify(context.Background(), "classify these")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if raw == "" {
		t.Fatalf("expected raw classifier text")
	}
}

func TestEnrichReturnsFallbackTextOnServerError(t *testing.T) {
	srv := fakeGemini(t, http.StatusServiceUnavailable, "", nil)
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "test-key", Model: "gemini-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := c.Enrich(context.Background(), attendee.New(attendee.Row{Email: "x@acme.io"}))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !core.IsKind(err, core.KindTransientService) {
		t.Fatalf("expected transient service error, got %v", err)
	}
	if !strings.HasPrefix(text, "Error performing web search:") {
		t.Fatalf("unexpected fallback text %q", text)
	}
}
