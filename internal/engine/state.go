package engine

import (
	"fmt"
	"sync"
)

// BatchState is the lifecycle state of one batch.
type BatchState int

const (
	BatchPending BatchState = iota
	BatchSubmitted
	BatchRunning
	BatchCompleted
	BatchDiscarded
)

func (s BatchState) String() string {
	switch s {
	case BatchPending:
		return "pending"
	case BatchSubmitted:
		return "submitted"
	case BatchRunning:
		return "running"
	case BatchCompleted:
		return "completed"
	case BatchDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("BatchState(%d)", int(s))
	}
}

// Terminal reports whether the batch has finished.
func (s BatchState) Terminal() bool {
	return s == BatchCompleted || s == BatchDiscarded
}

func isAllowedTransition(from, to BatchState) bool {
	switch from {
	case BatchPending:
		return to == BatchSubmitted
	case BatchSubmitted:
		// A batch whose pipeline panicked before marking itself running goes straight
		// to discarded.
		return to == BatchRunning || to == BatchDiscarded
	case BatchRunning:
		return to == BatchCompleted || to == BatchDiscarded
	default:
		return false
	}
}

// Phase is the global run phase.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseDispatching
	PhaseAwaitingAll
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseDispatching:
		return "dispatching"
	case PhaseAwaitingAll:
		return "awaiting_all"
	case PhaseFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// tracker holds the run phase and per-batch states. Safe for concurrent use.
type tracker struct {
	mu     sync.Mutex
	phase  Phase
	states []BatchState
}

func newTracker(batches int) *tracker {
	return &tracker{phase: PhasePlanning, states: make([]BatchState, batches)}
}

// advance moves the run to the next phase. Phases only move forward one step, except
// that an empty plan may jump straight to finalized.
func (t *tracker) advance(to Phase) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if to == t.phase+1 || (to == PhaseFinalized && t.phase == PhasePlanning && len(t.states) == 0) {
		if to == PhaseFinalized {
			for i, s := range t.states {
				if !s.Terminal() {
					return fmt.Errorf("cannot finalize: batch %d is %s", i, s)
				}
			}
		}
		t.phase = to
		return nil
	}
	return fmt.Errorf("invalid phase transition: %s -> %s", t.phase, to)
}

// transition performs a validated transition for a single batch. The caller supplies
// the expected prior state so races are observable.
func (t *tracker) transition(index int, from, to BatchState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.states) {
		return fmt.Errorf("unknown batch %d", index)
	}
	cur := t.states[index]
	if cur != from {
		return fmt.Errorf("invalid transition for batch %d: expected %s, got %s", index, from, cur)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition for batch %d: %s -> %s", index, from, to)
	}
	t.states[index] = to
	return nil
}

func (t *tracker) state(index int) BatchState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[index]
}

func (t *tracker) currentPhase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}
