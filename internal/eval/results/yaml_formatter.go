package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the report
type EvalConfig struct {
	DatasetPath string         `yaml:"datasetpath"`
	SampleSize  int            `yaml:"samplesize"`
	Tolerance   float64        `yaml:"tolerance"`
	Weights     map[string]any `yaml:"weights"`
	Timestamp   string         `yaml:"timestamp"`
}

// EvalSummary mirrors the aggregate counters
type EvalSummary struct {
	Scored       int     `yaml:"scored"`
	Failed       int     `yaml:"failed"`
	Rejected     int     `yaml:"rejected"`
	Matched      int     `yaml:"matched"`
	Mismatched   int     `yaml:"mismatched"`
	TotalCredits float64 `yaml:"totalcredits"`
	MeanCredits  float64 `yaml:"meancredits"`
	MaxAbsDelta  float64 `yaml:"maxabsdelta"`
}

// EvalResult represents a single replayed intake
type EvalResult struct {
	Identifier      string                 `yaml:"identifier"`
	Title           string                 `yaml:"title,omitempty"`
	FinalCredits    float64                `yaml:"finalcredits"`
	ExpectedCredits *float64               `yaml:"expectedcredits,omitempty"`
	Delta           float64                `yaml:"delta"`
	Matched         bool                   `yaml:"matched"`
	Rejected        bool                   `yaml:"rejected"`
	Breakdown       credit.CreditBreakdown `yaml:"breakdown"`
	Error           string                 `yaml:"error,omitempty"`
}

// EvalSpec represents the complete report
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary EvalSummary  `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// Build converts aggregate results into the report document
func Build(agg *metrics.AggregateResults) EvalSpec {
	spec := EvalSpec{
		Config: EvalConfig{
			DatasetPath: agg.DatasetPath,
			SampleSize:  agg.TotalRecords,
			Tolerance:   agg.Tolerance,
			Weights: map[string]any{
				"condition": credit.ConditionWeight,
				"demand":    credit.DemandWeight,
				"rarity":    credit.RarityWeight,
				"bonus":     credit.BonusWeight,
			},
			Timestamp: agg.EvaluationDate.Format(time.RFC3339),
		},
		Summary: EvalSummary{
			Scored:       agg.Scored,
			Failed:       agg.Failed,
			Rejected:     agg.Rejected,
			Matched:      agg.Matched,
			Mismatched:   agg.Mismatched,
			TotalCredits: agg.TotalCredits,
			MeanCredits:  agg.MeanCredits,
			MaxAbsDelta:  agg.MaxAbsDelta,
		},
		Results: make([]EvalResult, 0, len(agg.Results)),
	}

	for _, r := range agg.Results {
		spec.Results = append(spec.Results, EvalResult{
			Identifier:      r.ID,
			Title:           r.Title,
			FinalCredits:    r.Credit.FinalCredits,
			ExpectedCredits: r.Expected,
			Delta:           r.Delta,
			Matched:         r.Matched,
			Rejected:        r.Rejected,
			Breakdown:       r.Credit.CreditBreakdown,
			Error:           r.Error,
		})
	}

	return spec
}

// SaveToYAML writes the report to outputDir and returns the file path
func SaveToYAML(outputDir string, agg *metrics.AggregateResults) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", outputDir, err)
	}

	name := strings.TrimSuffix(filepath.Base(agg.DatasetPath), filepath.Ext(agg.DatasetPath))
	name = strings.NewReplacer("*", "", "?", "", "[", "", "]", "", "{", "", "}", "").Replace(name)
	if name == "" {
		name = "replay"
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s-%s.yaml", name, agg.EvaluationDate.Format("2006-01-02_15-04-05")))

	spec := Build(agg)
	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}
