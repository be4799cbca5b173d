package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/bookswap/internal/assessment"
	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/spf13/cobra"
)

// AssessOutput is what assess --json prints
type AssessOutput struct {
	Visual   credit.VisualAssessment `json:"visual_assessment"`
	Credit   credit.CreditAssessment `json:"credit_assessment"`
	Model    string                  `json:"model,omitempty"`
	Attempts int                     `json:"attempts"`
	Fallback bool                    `json:"fallback"`
}

func newAssessCmd() *cobra.Command {
	var photos []string
	var description string
	var asJSON bool
	var flags factorFlags

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Grade book photos with the configured provider and score them",
		Long: `Sends labeled photos of a book to the configured vision provider, then scores
the returned assessment exactly like the kiosk does. Nothing is recorded.

Labels: ` + strings.Join(assessment.PhotoLabels, ", "),
		Example: `  # Grade a book from two photos
  bookswap assess --photo cover=cover.jpg --photo spine=spine.jpg

  # Use Ollama and add donation context
  BOOKSWAP_ASSESSMENT_PROVIDER=ollama bookswap assess --photo cover=cover.jpg --new-book`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildAssessRequest(photos, description)
			if err != nil {
				return err
			}

			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			assessor, closeProvider, err := newAssessor(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeProvider(); err != nil {
					slog.Error("Unable to close provider", "err", err)
				}
			}()

			slog.Info("Assessing photos", "provider", cfg.Assessment.Provider, "photos", len(req.Photos))
			result, err := assessor.Assess(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to assess book: %w", err)
			}

			scored := cfg.NewEngine().Compute(result.Visual, flags.factors())

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), AssessOutput{
					Visual:   result.Visual,
					Credit:   scored,
					Model:    result.Model,
					Attempts: result.Attempts,
					Fallback: result.Fallback,
				})
			}

			out := cmd.OutOrStdout()
			renderAssessment(out, result.Visual, scored)
			s := newAssessmentStyles()
			fmt.Fprintln(out)
			fmt.Fprintln(out, s.dim.Render(fmt.Sprintf("model %s, %d attempt(s)", result.Model, result.Attempts)))
			if result.Fallback {
				fmt.Fprintln(out, s.warn.Render("provider unavailable; neutral fallback assessment used"))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&photos, "photo", nil, "Labeled photo as label=path (repeatable)")
	cmd.Flags().StringVar(&description, "description", "", "Donor's description of the book")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	flags.register(cmd)

	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

// buildAssessRequest reads label=path pairs into an assessment request
func buildAssessRequest(specs []string, description string) (assessment.Request, error) {
	req := assessment.Request{Description: strings.TrimSpace(description)}

	for _, spec := range specs {
		label, path, ok := strings.Cut(spec, "=")
		label = strings.ToLower(strings.TrimSpace(label))
		if !ok || path == "" {
			return req, fmt.Errorf("invalid --photo %q, expected label=path", spec)
		}
		if !assessment.IsPhotoLabel(label) {
			return req, fmt.Errorf("unknown photo label %q (use %s)", label, strings.Join(assessment.PhotoLabels, ", "))
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("failed to read %s photo: %w", label, err)
		}
		mimeType := http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			return req, fmt.Errorf("%s is not an image (%s)", path, mimeType)
		}

		req.Photos = append(req.Photos, assessment.Photo{Label: label, MIMEType: mimeType, Data: data})
	}

	if len(req.Photos) == 0 {
		return req, assessment.ErrNoPhotos
	}
	return req, nil
}
