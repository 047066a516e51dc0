package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Ishaangg/conference-agent/internal/app"
	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/config"
	"github.com/Ishaangg/conference-agent/internal/observability"
	"github.com/Ishaangg/conference-agent/internal/version"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/redact"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitIO     = 1
	exitConfig = 2
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stderr))
}

func execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %s\n", redact.Secrets(err.Error()))
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var usage *usageError
	if errors.As(err, &usage) || core.IsKind(err, core.KindConfiguration) {
		return exitConfig
	}
	return exitIO
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "enricher",
		Short:         "Research and classify conference attendees in concurrent batches",
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	root.AddCommand(newLocalCmd())
	return root
}

type localFlags struct {
	input         string
	output        string
	configPath    string
	metricsFile   string
	batchSize     int
	maxWorkers    int
	maxConcurrent int
	pacingDelay   time.Duration
	skipEnrich    bool
}

func newLocalCmd() *cobra.Command {
	var f localFlags
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Read attendees from a CSV file and write classified records to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocal(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.input, "input", "", "Input CSV with First Name, Last Name, Email, Organization columns")
	flags.StringVar(&f.output, "output", "", "Output CSV path")
	flags.StringVar(&f.configPath, "config", "", "Optional YAML file overlaid on environment config")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this path after the run")
	flags.IntVar(&f.batchSize, "batch-size", 0, "Items per batch (env: BATCH_SIZE)")
	flags.IntVar(&f.maxWorkers, "max-workers", 0, "Concurrent batch pipelines (env: MAX_WORKERS)")
	flags.IntVar(&f.maxConcurrent, "max-concurrent", 0, "Concurrent lookups per batch (env: MAX_CONCURRENT_SEARCHES)")
	flags.DurationVar(&f.pacingDelay, "pacing-delay", 0, "Delay before each lookup acquires a permit (env: PACING_DELAY)")
	flags.BoolVar(&f.skipEnrich, "skip-enrichment", false, "Classify without web research (env: SKIP_ENRICHMENT)")
	return cmd
}

// applyFlags overrides cfg with the flags the user actually set.
func applyFlags(cmd *cobra.Command, f localFlags, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if flags.Changed("max-workers") {
		cfg.MaxWorkers = f.maxWorkers
	}
	if flags.Changed("max-concurrent") {
		cfg.MaxConcurrentSearches = f.maxConcurrent
	}
	if flags.Changed("pacing-delay") {
		cfg.PacingDelay = f.pacingDelay.String()
	}
	if flags.Changed("skip-enrichment") {
		cfg.SkipEnrichment = f.skipEnrich
	}
}

func runLocal(cmd *cobra.Command, f localFlags) error {
	if f.input == "" || f.output == "" {
		return &usageError{err: errors.New("--input and --output are required")}
	}
	ctx := cmd.Context()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return core.E(core.KindConfiguration, "logger", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	metrics := observability.NewMetrics()
	eng, err := app.NewEngine(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	ctx = observability.WithRunID(ctx, app.NewRunID())
	res, err := app.Run(ctx, attendee.FileSource{Path: f.input}, app.RecordFile{Path: f.output}, eng, logger)
	if err != nil {
		return err
	}

	if f.metricsFile != "" {
		if err := metrics.WriteTextfile(f.metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	observability.WithContextLogger(logger, ctx).Info("run summary",
		zap.Int("items", res.Items),
		zap.Int("batches", len(res.Batches)),
		zap.Int("batchesDiscarded", res.Discarded()),
		zap.Int("itemErrors", res.ItemErrors),
		zap.Int("records", len(res.Records)),
		zap.Duration("duration", res.Duration.Round(time.Millisecond)),
		zap.String("output", f.output),
	)
	return nil
}
