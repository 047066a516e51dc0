package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/internal/enrich"
	"github.com/Ishaangg/conference-agent/internal/observability"
	"github.com/Ishaangg/conference-agent/internal/repair"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/redact"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/worker"
	"go.uber.org/zap"
)

// BatchResult is the outcome of one batch pipeline. OK=false means the batch was
// discarded and contributes no records.
type BatchResult struct {
	Index   int
	Records []classify.Record
	OK      bool

	// Empty marks an ok batch whose classification was skipped because of a
	// telemetry-unavailable error.
	Empty bool

	ItemErrors int
	Repair     repair.Report
	Err        error
	Duration   time.Duration
}

func (r BatchResult) status() string {
	switch {
	case !r.OK:
		return "discarded"
	case r.Empty:
		return "empty"
	default:
		return "ok"
	}
}

// Executor runs batch pipelines on a fixed pool of MaxWorkers goroutines.
type Executor struct {
	workers    int
	timeout    time.Duration
	skip       bool
	fanout     *Fanout
	classifier classify.Classifier
	repairer   *repair.Repairer
	tracker    *tracker
	logger     *zap.Logger
	metrics    *observability.Metrics
	total      int
	batches    int
}

// Execute submits every batch and calls onDone once per batch, from a single
// goroutine, as batches finish. It returns when every batch is terminal.
func (x *Executor) Execute(ctx context.Context, batches []Batch, onDone func(BatchResult)) {
	worker.ProcessAllWithCallback(
		ctx,
		batches,
		x.run,
		func(res worker.Result[Batch, BatchResult]) {
			br := res.Output
			if res.Err != nil {
				br = BatchResult{Index: res.Input.Index, Err: res.Err}
				x.logger.Error("batch pipeline panicked",
					zap.Int("batch", res.Input.Index+1),
					zap.Error(res.Err),
				)
				x.metrics.BatchFinished(br.status(), 0)
			}

			to := BatchCompleted
			if !br.OK {
				to = BatchDiscarded
			}
			from := x.tracker.state(br.Index)
			if err := x.tracker.transition(br.Index, from, to); err != nil {
				x.logger.Error("batch state", zap.Error(err))
			}
			onDone(br)
		},
		worker.Options{Workers: x.workers},
	)
}

func (x *Executor) run(ctx context.Context, b Batch) (BatchResult, error) {
	if err := x.tracker.transition(b.Index, BatchSubmitted, BatchRunning); err != nil {
		x.logger.Error("batch state", zap.Error(err))
	}

	start := time.Now()
	x.metrics.BatchStarted()

	log := x.logger.With(zap.Int("batch", b.Index+1))
	log.Info("batch started",
		zap.Int("of", x.batches),
		zap.Int("firstItem", b.Offset+1),
		zap.Int("lastItem", b.Offset+len(b.Items)),
		zap.Int("totalItems", x.total),
	)

	res := x.pipeline(ctx, b, log)
	res.Index = b.Index
	res.Duration = time.Since(start)
	x.metrics.BatchFinished(res.status(), res.Duration)

	switch {
	case !res.OK:
		log.Error("batch discarded",
			zap.String("kind", core.KindOf(res.Err).String()),
			zap.String("error", redact.Secrets(res.Err.Error())),
			zap.Duration("duration", res.Duration),
		)
	case res.Empty:
		log.Warn("classification skipped; telemetry unavailable",
			zap.String("error", redact.Secrets(res.Err.Error())),
		)
	default:
		log.Info("batch completed",
			zap.Int("records", len(res.Records)),
			zap.Int("itemErrors", res.ItemErrors),
			zap.Stringer("repair", res.Repair),
			zap.Duration("duration", res.Duration),
		)
	}
	return res, nil
}

func (x *Executor) pipeline(ctx context.Context, b Batch, log *zap.Logger) BatchResult {
	var outcomes []enrich.Outcome
	if x.skip {
		outcomes = make([]enrich.Outcome, 0, len(b.Items))
		for _, item := range b.Items {
			outcomes = append(outcomes, enrich.Outcome{Item: item})
		}
	} else {
		outcomes = x.fanout.Run(ctx, b.Items)
	}

	res := BatchResult{}
	for _, o := range outcomes {
		if o.Err != nil {
			res.ItemErrors++
		}
	}

	prompt, err := classify.BuildPrompt(outcomes)
	if err != nil {
		res.Err = err
		return res
	}

	raw, err := x.classify(ctx, prompt)
	if err != nil {
		res.Err = err
		if core.IsKind(err, core.KindTelemetryUnavailable) {
			res.OK, res.Empty = true, true
		}
		return res
	}

	records, report, err := x.repairer.Records(raw)
	res.Repair = report
	x.metrics.RepairStage(string(report.Stage))
	if err != nil {
		res.Err = err
		return res
	}
	if len(records) > len(b.Items) {
		res.Err = core.E(core.KindBatchUnrecoverable, "classify",
			fmt.Errorf("response has %d records for %d attendees", len(records), len(b.Items)))
		return res
	}
	if len(report.Substitutions) > 0 {
		log.Warn("ambiguous enumerations collapsed to first listed value",
			zap.Strings("canonical", report.Substitutions),
		)
	}

	res.Records = records
	res.OK = true
	return res
}

func (x *Executor) classify(ctx context.Context, prompt string) (string, error) {
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}
	return x.classifier.Classify(ctx, prompt)
}
