package engine

import (
	"fmt"
	"time"

	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
)

// Options is the single set of concurrency knobs handed to the engine at construction.
//
// Worst-case simultaneous remote calls is MaxWorkers * MaxConcurrentPerBatch; the
// per-batch cap is not a global cap. RateLimitRPS adds an optional global ceiling.
type Options struct {
	BatchSize             int
	MaxWorkers            int
	MaxConcurrentPerBatch int

	// PacingDelay is waited by every item task before it asks for a permit.
	PacingDelay time.Duration

	// RequestTimeout bounds each remote call. Zero disables it.
	RequestTimeout time.Duration

	// RateLimitRPS caps enrichment calls per second across all batches. Zero disables it.
	RateLimitRPS float64

	// SkipEnrichment classifies items directly with empty research text.
	SkipEnrichment bool
}

func DefaultOptions() Options {
	return Options{
		BatchSize:             3,
		MaxWorkers:            3,
		MaxConcurrentPerBatch: 5,
		PacingDelay:           500 * time.Millisecond,
		RequestTimeout:        60 * time.Second,
	}
}

func (o Options) Validate() error {
	switch {
	case o.BatchSize <= 0:
		return core.E(core.KindConfiguration, "engine options", fmt.Errorf("batch size must be > 0, got %d", o.BatchSize))
	case o.MaxWorkers <= 0:
		return core.E(core.KindConfiguration, "engine options", fmt.Errorf("max workers must be > 0, got %d", o.MaxWorkers))
	case o.MaxConcurrentPerBatch <= 0:
		return core.E(core.KindConfiguration, "engine options", fmt.Errorf("max concurrent per batch must be > 0, got %d", o.MaxConcurrentPerBatch))
	case o.PacingDelay < 0:
		return core.E(core.KindConfiguration, "engine options", fmt.Errorf("pacing delay must be >= 0, got %s", o.PacingDelay))
	case o.RequestTimeout < 0:
		return core.E(core.KindConfiguration, "engine options", fmt.Errorf("request timeout must be >= 0, got %s", o.RequestTimeout))
	case o.RateLimitRPS < 0:
		return core.E(core.KindConfiguration, "engine options", fmt.Errorf("rate limit must be >= 0, got %v", o.RateLimitRPS))
	}
	return nil
}
