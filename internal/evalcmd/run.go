package evalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/eval/dataset"
	"github.com/lehigh-university-libraries/bookswap/internal/eval/metrics"
	"github.com/lehigh-university-libraries/bookswap/internal/eval/results"
)

type runOptions struct {
	datasetPath string
	outputDir   string
	outputJSON  string
	tolerance   float64
	sampleSize  int
	concurrency int
	strict      bool

	engine *credit.Engine
	out    io.Writer
}

func isGlobPattern(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func executeRun(ctx context.Context, opts runOptions) error {
	slog.Info("Starting credit replay", "dataset", opts.datasetPath, "tolerance", opts.tolerance)

	records, err := dataset.NewLoader(opts.datasetPath).LoadSample(opts.sampleSize)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	slog.Info("Dataset loaded", "records", len(records))

	replayed, err := replayRecords(ctx, opts.engine, records, opts.tolerance, opts.concurrency)
	if err != nil {
		return err
	}

	agg := metrics.AggregateReplayResults(replayed, opts.datasetPath, opts.tolerance)
	agg.PrintSummary(opts.out)

	path, err := results.SaveToYAML(opts.outputDir, agg)
	if err != nil {
		return err
	}
	fmt.Fprintf(opts.out, "\nReport saved to: %s\n", path)

	if opts.outputJSON != "" {
		if err := agg.SaveToJSON(opts.outputJSON); err != nil {
			return err
		}
		fmt.Fprintf(opts.out, "JSON results saved to: %s\n", opts.outputJSON)
	}

	if opts.strict && agg.Mismatched > 0 {
		return fmt.Errorf("%d of %d records disagree with their expected credits", agg.Mismatched, agg.WithExpectation)
	}
	if opts.strict && agg.Failed > 0 {
		return fmt.Errorf("%d records could not be scored", agg.Failed)
	}

	return nil
}

// replayRecords scores every record, keeping dataset order in the output
func replayRecords(ctx context.Context, engine *credit.Engine, records []dataset.IntakeRecord, tolerance float64, concurrency int) ([]metrics.ReplayResult, error) {
	replayed := make([]metrics.ReplayResult, len(records))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		go func(idx int, record dataset.IntakeRecord) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			replayed[idx] = replayRecord(engine, record, tolerance)
		}(i, record)
	}

	wg.Wait()
	return replayed, nil
}

func replayRecord(engine *credit.Engine, record dataset.IntakeRecord, tolerance float64) metrics.ReplayResult {
	if err := record.Visual.Validate(); err != nil {
		slog.Warn("Skipping invalid record", "id", record.ID, "err", err)
		return metrics.ReplayResult{
			ID:    record.ID,
			Title: record.GetTitle(),
			Error: err.Error(),
		}
	}

	got := engine.Compute(record.Visual, record.Factors)
	result := metrics.Compare(record.ID, record.GetTitle(), got, record.Visual.Rejected(), record.ExpectedCredits, tolerance)
	if !result.Matched {
		slog.Debug("Replay mismatch", "id", record.ID, "expected", *record.ExpectedCredits, "got", got.FinalCredits)
	}
	return result
}
