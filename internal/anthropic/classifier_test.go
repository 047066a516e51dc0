package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	if !core.IsKind(err, core.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClassifyConcatenatesTextBlocks(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"stop_reason": "end_turn",
			"content": [
				{"type": "text", "text": "[{\"person_name\":\"Ada\","},
				{"type": "text", "text": "\"category\":\"Pharmaceutical\"}]"}
			],
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "test-key", Model: "claude-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Classify(context.Background(), "Attendees:\n[]")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got != `[{"person_name":"Ada","category":"Pharmaceutical"}]` {
		t.Fatalf("unexpected text %q", got)
	}
	if body["model"] != "claude-test" {
		t.Fatalf("unexpected model in request: %v", body["model"])
	}
}

func TestClassifyServerErrorIsTransientAndNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Classify(context.Background(), "x")
	if !core.IsKind(err, core.KindTransientService) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}
