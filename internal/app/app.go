// Package app wires attendee ingestion, the enrichment engine and result export into
// runnable commands.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/internal/engine"
	"github.com/Ishaangg/conference-agent/internal/observability"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/io/local"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Runner runs the engine over a loaded attendee list.
type Runner interface {
	Run(ctx context.Context, items []attendee.Item) (*engine.Result, error)
}

// RecordFile writes classification records to a local CSV file.
type RecordFile struct {
	Path string
}

var _ core.OutputAdapter[classify.Record] = RecordFile{}

func (f RecordFile) Store(_ context.Context, records []classify.Record) (err error) {
	out, err := os.Create(f.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close results %s: %w", f.Path, cerr)
		}
	}()

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	if err := local.WriteCSV(out, classify.Header(), rows); err != nil {
		return fmt.Errorf("write results %s: %w", f.Path, err)
	}
	return nil
}

// NewRunID returns a sortable unique id for one run.
func NewRunID() string {
	return ulid.Make().String()
}

// Run loads attendees from src, runs them through runner, and stores the aggregate in
// sink. Batch and item failures do not fail the run; only load, store and engine
// misuse errors are returned.
func Run(
	ctx context.Context,
	src core.InputAdapter[attendee.Item],
	sink core.OutputAdapter[classify.Record],
	runner Runner,
	logger *zap.Logger,
) (*engine.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, ok := observability.RunIDFromContext(ctx); !ok {
		ctx = observability.WithRunID(ctx, NewRunID())
	}
	log := observability.WithContextLogger(logger, ctx)

	loadStart := time.Now()
	items, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	log.Info("attendees loaded",
		zap.Int("items", len(items)),
		zap.Duration("duration", time.Since(loadStart).Round(time.Millisecond)),
	)

	res, err := runner.Run(ctx, items)
	if err != nil {
		return nil, err
	}

	if err := sink.Store(ctx, res.Records); err != nil {
		return res, fmt.Errorf("store results: %w", err)
	}
	log.Info("results stored", zap.Int("records", len(res.Records)))
	return res, nil
}
