package cmd

import (
	"github.com/lehigh-university-libraries/bookswap/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Credit engine evaluation tools",
		Long: `Evaluation tools for checking the credit engine against recorded intakes.

Recorded intakes carry the visual assessment, the donation context and,
optionally, the credits staff agreed on. Replaying them catches scoring
changes before they reach the kiosk.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd())

	return cmd
}
