package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var file string
	var asJSON bool
	var flags factorFlags

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a hand-graded book",
		Long: `Scores a visual assessment stored in a JSON file without calling a vision
provider. Staff use it to grade books by hand or to check a disputed award.

The file holds the same record a provider returns:

  {"cover_condition": 9, "spine_condition": 8, "pages_condition": 8,
   "binding_integrity": 8, "cleanliness": 9, "has_annotations": false,
   "annotation_severity": "none", "is_complete": true,
   "should_reject": false, "justification": "Clean copy."}`,
		Example: `  # Score a graded book
  bookswap score --file grade.json --title "Dune" --first-time-donor

  # Print the full assessment as JSON
  bookswap score --file grade.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := readVisualAssessment(file)
			if err != nil {
				return err
			}

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			result := cfg.NewEngine().Compute(v, flags.factors())

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			renderAssessment(cmd.OutOrStdout(), v, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding the visual assessment (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the credit assessment as JSON")
	flags.register(cmd)

	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readVisualAssessment(path string) (credit.VisualAssessment, error) {
	var v credit.VisualAssessment

	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if v.AnnotationSeverity == "" {
		v.AnnotationSeverity = credit.AnnotationNone
	}
	if err := v.Validate(); err != nil {
		return v, fmt.Errorf("invalid visual assessment in %s: %w", path, err)
	}
	return v, nil
}
