package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		in   error
		want core.Kind
	}{
		{name: "nil", in: nil, want: core.KindUnknown},
		{name: "plain", in: base, want: core.KindUnknown},
		{name: "tagged", in: core.E(core.KindItemEnrichment, "enrich", base), want: core.KindItemEnrichment},
		{name: "wrapped_tagged", in: fmt.Errorf("classify: %w", core.TelemetryUnavailable(base)), want: core.KindTelemetryUnavailable},
		{name: "message_only", in: errors.New("telemetry_unavailable"), want: core.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.KindOf(tt.in); got != tt.want {
				t.Fatalf("KindOf()=%s want=%s", got, tt.want)
			}
		})
	}
}

func TestIsKindSearchesNestedTags(t *testing.T) {
	inner := core.E(core.KindTransientService, "gemini", errors.New("429"))
	outer := core.E(core.KindItemEnrichment, "enrich", inner)

	if !core.IsKind(outer, core.KindItemEnrichment) {
		t.Fatalf("expected outer kind to match")
	}
	if !core.IsKind(outer, core.KindTransientService) {
		t.Fatalf("expected nested kind to match")
	}
	if core.IsKind(outer, core.KindConfiguration) {
		t.Fatalf("unexpected configuration kind")
	}
	if !errors.Is(outer, errors.Unwrap(inner)) {
		t.Fatalf("expected chain to reach the root cause")
	}

	joined := errors.Join(
		core.E(core.KindTransientService, "anthropic", errors.New("503")),
		core.TelemetryUnavailable(errors.New("no telemetry key configured")),
	)
	if !core.IsKind(joined, core.KindTelemetryUnavailable) {
		t.Fatalf("expected later joined branch to match")
	}
	if !core.IsKind(fmt.Errorf("classify: %w", joined), core.KindTransientService) {
		t.Fatalf("expected wrapped join to match first branch")
	}
	if core.IsKind(joined, core.KindBatchUnrecoverable) {
		t.Fatalf("unexpected batch_unrecoverable kind")
	}
}

func TestErrorMessage(t *testing.T) {
	err := core.E(core.KindConfiguration, "config", errors.New("BATCH_SIZE must be positive"))
	if got := err.Error(); got != "config: BATCH_SIZE must be positive" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := core.E(core.KindBatchUnrecoverable, "", nil).Error(); got != "batch_unrecoverable" {
		t.Fatalf("unexpected message %q", got)
	}
}
