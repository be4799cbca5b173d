package evalcmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/bookswap/internal/config"
	"github.com/lehigh-university-libraries/bookswap/internal/eval/metrics"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command for replaying recorded intakes
func NewRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay recorded intakes through the credit engine",
		Long: `Replays recorded intakes through the credit engine and compares the result
with the credits staff recorded for each book.

Datasets may be a Parquet file, a JSONL file, or a glob of per-intake JSON
files. Records without expected_credits are scored but not compared.`,
		Example: `  # Replay a JSONL export
  bookswap eval run --dataset intakes.jsonl

  # Replay every saved intake and fail on any disagreement
  bookswap eval run --dataset 'intakes/**/*.json' --strict

  # Allow half a credit of drift
  bookswap eval run --dataset intakes.parquet --tolerance 0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isGlobPattern(opts.datasetPath) {
				if _, err := os.Stat(opts.datasetPath); os.IsNotExist(err) {
					return fmt.Errorf("dataset file not found: %s", opts.datasetPath)
				}
			}
			if opts.tolerance < 0 {
				return fmt.Errorf("--tolerance must not be negative")
			}
			if opts.concurrency < 1 {
				opts.concurrency = 1
			}

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			opts.engine = cfg.NewEngine()
			opts.out = cmd.OutOrStdout()

			return executeRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "Parquet file, JSONL file, or glob of JSON intake records (required)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "evals", "Directory for the YAML report")
	cmd.Flags().StringVar(&opts.outputJSON, "output-json", "", "Optional path for the aggregate results as JSON")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", metrics.DefaultTolerance, "Allowed difference between replayed and expected credits")
	cmd.Flags().IntVar(&opts.sampleSize, "sample", -1, "Number of records to replay (-1 for all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Number of records scored in parallel")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any record disagrees with its expected credits")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
