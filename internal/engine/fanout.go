package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/enrich"
	"github.com/Ishaangg/conference-agent/internal/observability"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const auditTextLimit = 500

// Fanout runs the enricher over one batch's items under a per-batch permit count and a
// pacing delay. Every item yields exactly one outcome.
type Fanout struct {
	enricher enrich.Enricher
	limit    int64
	pacing   time.Duration
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// Run blocks until every item has an outcome. Outcomes are in completion order.
func (f *Fanout) Run(ctx context.Context, items []attendee.Item) []enrich.Outcome {
	if len(items) == 0 {
		return nil
	}

	// Fresh permits per batch.
	sem := semaphore.NewWeighted(f.limit)

	var (
		mu       sync.Mutex
		outcomes = make([]enrich.Outcome, 0, len(items))
		wg       sync.WaitGroup
	)
	for _, item := range items {
		wg.Go(func() {
			out := f.one(ctx, sem, item)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
		})
	}
	wg.Wait()
	return outcomes
}

func (f *Fanout) one(ctx context.Context, sem *semaphore.Weighted, item attendee.Item) enrich.Outcome {
	if f.pacing > 0 {
		t := time.NewTimer(f.pacing)
		select {
		case <-ctx.Done():
			t.Stop()
			return enrich.Failed(item, "", core.E(core.KindItemEnrichment, "pacing", ctx.Err()))
		case <-t.C:
		}
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		return enrich.Failed(item, "", core.E(core.KindItemEnrichment, "acquire permit", err))
	}
	defer sem.Release(1)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return enrich.Failed(item, "", core.E(core.KindItemEnrichment, "rate limit", err))
		}
	}

	f.metrics.ItemStarted()
	text, err := f.call(ctx, item)
	f.metrics.ItemFinished(err == nil)

	if err != nil {
		err = core.E(core.KindItemEnrichment, "enrich "+item.ID, err)
		out := enrich.Failed(item, text, err)
		f.logger.Warn("item enrichment failed",
			zap.String("item", item.ID),
			zap.String("error", out.Text),
		)
		return out
	}

	f.logger.Debug("item enriched",
		zap.String("item", item.ID),
		zap.String("text", truncate(text, auditTextLimit)),
	)
	return enrich.Outcome{Item: item, Text: text}
}

func (f *Fanout) call(ctx context.Context, item attendee.Item) (text string, err error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("enricher panic: %v", r)
		}
	}()
	return f.enricher.Enrich(ctx, item)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
