package engine

import (
	"errors"
	"sync"

	"github.com/Ishaangg/conference-agent/internal/classify"
)

var errAggregatorFrozen = errors.New("aggregator is frozen")

// Aggregator merges batch results into one unordered collection. Absorb is safe for
// concurrent use; Freeze ends accumulation.
type Aggregator struct {
	mu      sync.Mutex
	records []classify.Record
	frozen  bool
}

// Absorb appends the records of an ok batch. Discarded batches contribute nothing.
func (a *Aggregator) Absorb(r BatchResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		return errAggregatorFrozen
	}
	if !r.OK {
		return nil
	}
	a.records = append(a.records, r.Records...)
	return nil
}

// Freeze stops accumulation and returns a copy of the collected records.
func (a *Aggregator) Freeze() []classify.Record {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frozen = true
	out := make([]classify.Record, len(a.records))
	copy(out, a.records)
	return out
}
