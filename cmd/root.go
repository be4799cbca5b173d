package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bookswap",
		Short: "Book donation kiosk that grades donated books and awards credits",
		Long: `Bookswap runs the donation kiosk: donors photograph a book, a vision model
grades its condition, and a deterministic engine turns the grade into credits.

The CLI can also score hand-graded books and replay recorded intakes to check
the credit engine against past decisions.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Path to config file (default ./bookswap.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScoreCmd())
	cmd.AddCommand(newAssessCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}
