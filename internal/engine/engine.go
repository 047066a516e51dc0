// Package engine partitions attendees into batches and runs each batch's
// enrich -> classify -> repair pipeline under two independent concurrency tiers: a
// fixed pool of batch workers and a per-batch permit count for item lookups.
//
// Failures are isolated per item and per batch; nothing is retried and a run always
// ends with a (possibly partial) result.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/internal/enrich"
	"github.com/Ishaangg/conference-agent/internal/observability"
	"github.com/Ishaangg/conference-agent/internal/repair"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps are the collaborators of an Engine. Enricher may be nil when
// Options.SkipEnrichment is set.
type Deps struct {
	Enricher   enrich.Enricher
	Classifier classify.Classifier

	// Repairer defaults to repair.New(nil).
	Repairer *repair.Repairer
	// Logger defaults to a no-op logger.
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

type Engine struct {
	opts    Options
	deps    Deps
	limiter *rate.Limiter
}

func New(opts Options, deps Deps) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if deps.Classifier == nil {
		return nil, core.E(core.KindConfiguration, "engine", errors.New("classifier is required"))
	}
	if deps.Enricher == nil && !opts.SkipEnrichment {
		return nil, core.E(core.KindConfiguration, "engine", errors.New("enricher is required unless enrichment is skipped"))
	}
	if deps.Repairer == nil {
		deps.Repairer = repair.New(nil)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	e := &Engine{opts: opts, deps: deps}
	if opts.RateLimitRPS > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return e, nil
}

// BatchStatus is the terminal view of one batch.
type BatchStatus struct {
	Index      int
	Size       int
	State      BatchState
	Records    int
	ItemErrors int
	Empty      bool
	Err        error
	Duration   time.Duration
}

// Result is the frozen outcome of a run.
type Result struct {
	// Records is the unordered aggregate of every ok batch's records.
	Records    []classify.Record
	Batches    []BatchStatus
	Items      int
	ItemErrors int
	Duration   time.Duration
}

// Discarded returns the number of batches that contributed no records because they
// failed.
func (r *Result) Discarded() int {
	n := 0
	for _, b := range r.Batches {
		if b.State == BatchDiscarded {
			n++
		}
	}
	return n
}

// Run processes every item and returns once every batch is terminal. The returned
// error is non-nil only for misuse; batch and item failures are reported in Result.
func (e *Engine) Run(ctx context.Context, items []attendee.Item) (*Result, error) {
	if e == nil {
		return nil, core.E(core.KindConfiguration, "engine", errors.New("nil engine"))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	log := observability.WithContextLogger(e.deps.Logger, ctx)

	batches := PlanBatches(items, e.opts.BatchSize)
	tr := newTracker(len(batches))
	result := &Result{Items: len(items), Batches: make([]BatchStatus, len(batches))}
	for _, b := range batches {
		result.Batches[b.Index] = BatchStatus{Index: b.Index, Size: len(b.Items), State: BatchPending}
	}

	log.Info("run started",
		zap.Int("items", len(items)),
		zap.Int("batches", len(batches)),
		zap.Int("batchSize", e.opts.BatchSize),
		zap.Int("maxWorkers", e.opts.MaxWorkers),
		zap.Int("maxConcurrentPerBatch", e.opts.MaxConcurrentPerBatch),
		zap.Duration("pacingDelay", e.opts.PacingDelay),
		zap.Bool("skipEnrichment", e.opts.SkipEnrichment),
	)

	if len(batches) == 0 {
		if err := tr.advance(PhaseFinalized); err != nil {
			return nil, err
		}
		result.Duration = time.Since(start)
		log.Info("run finished", zap.Int("records", 0))
		return result, nil
	}

	if err := tr.advance(PhaseDispatching); err != nil {
		return nil, err
	}
	for _, b := range batches {
		if err := tr.transition(b.Index, BatchPending, BatchSubmitted); err != nil {
			return nil, err
		}
	}
	if err := tr.advance(PhaseAwaitingAll); err != nil {
		return nil, err
	}

	x := &Executor{
		workers:    e.opts.MaxWorkers,
		timeout:    e.opts.RequestTimeout,
		skip:       e.opts.SkipEnrichment,
		classifier: e.deps.Classifier,
		repairer:   e.deps.Repairer,
		tracker:    tr,
		logger:     log,
		metrics:    e.deps.Metrics,
		total:      len(items),
		batches:    len(batches),
		fanout: &Fanout{
			enricher: e.deps.Enricher,
			limit:    int64(e.opts.MaxConcurrentPerBatch),
			pacing:   e.opts.PacingDelay,
			timeout:  e.opts.RequestTimeout,
			limiter:  e.limiter,
			logger:   log,
			metrics:  e.deps.Metrics,
		},
	}

	var agg Aggregator
	x.Execute(ctx, batches, func(br BatchResult) {
		if err := agg.Absorb(br); err != nil {
			log.Error("absorb batch", zap.Int("batch", br.Index+1), zap.Error(err))
		}
		st := &result.Batches[br.Index]
		st.State = tr.state(br.Index)
		st.Records = len(br.Records)
		st.ItemErrors = br.ItemErrors
		st.Empty = br.Empty
		st.Err = br.Err
		st.Duration = br.Duration
		result.ItemErrors += br.ItemErrors
	})

	if err := tr.advance(PhaseFinalized); err != nil {
		return nil, err
	}
	result.Records = agg.Freeze()
	result.Duration = time.Since(start)

	log.Info("run finished",
		zap.Int("items", result.Items),
		zap.Int("batches", len(result.Batches)),
		zap.Int("batchesDiscarded", result.Discarded()),
		zap.Int("itemErrors", result.ItemErrors),
		zap.Int("records", len(result.Records)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
