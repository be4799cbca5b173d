package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
)

// DefaultTolerance is how far a replayed score may drift from the recorded
// expectation before it counts as a mismatch
const DefaultTolerance = 0.01

// ReplayResult is the outcome of re-scoring a single recorded intake
type ReplayResult struct {
	ID       string                  `json:"id"`
	Title    string                  `json:"title,omitempty"`
	Credit   credit.CreditAssessment `json:"credit_assessment"`
	Expected *float64                `json:"expected_credits,omitempty"`
	Delta    float64                 `json:"delta"`
	Matched  bool                    `json:"matched"`
	Rejected bool                    `json:"rejected"`
	Error    string                  `json:"error,omitempty"`
}

// Compare records how far the computed assessment lands from the expected
// credits. Records without an expectation always match.
func Compare(id, title string, got credit.CreditAssessment, rejected bool, expected *float64, tolerance float64) ReplayResult {
	result := ReplayResult{
		ID:       id,
		Title:    title,
		Credit:   got,
		Expected: expected,
		Matched:  true,
		Rejected: rejected,
	}
	if expected != nil {
		result.Delta = credit.RoundCredits(got.FinalCredits - *expected)
		// small epsilon so a delta equal to the tolerance still matches
		result.Matched = math.Abs(got.FinalCredits-*expected) <= tolerance+1e-9
	}
	return result
}

// AggregateResults represents aggregated replay metrics
type AggregateResults struct {
	TotalRecords    int     `json:"total_records"`
	Scored          int     `json:"scored"`
	Failed          int     `json:"failed"`
	WithExpectation int     `json:"with_expectation"`
	Matched         int     `json:"matched"`
	Mismatched      int     `json:"mismatched"`
	Rejected        int     `json:"rejected"`
	TotalCredits    float64 `json:"total_credits"`
	MeanCredits     float64 `json:"mean_credits"`
	MeanAbsDelta    float64 `json:"mean_abs_delta"`
	MaxAbsDelta     float64 `json:"max_abs_delta"`
	Accuracy        float64 `json:"accuracy"`
	Tolerance       float64 `json:"tolerance"`

	Results        []ReplayResult `json:"results"`
	EvaluationDate time.Time      `json:"evaluation_date"`
	DatasetPath    string         `json:"dataset_path"`
}

// AggregateReplayResults aggregates replay results
func AggregateReplayResults(results []ReplayResult, datasetPath string, tolerance float64) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Results:        results,
		EvaluationDate: time.Now(),
		DatasetPath:    datasetPath,
		Tolerance:      tolerance,
	}

	var totalAbsDelta float64
	for _, r := range results {
		if r.Error != "" {
			agg.Failed++
			continue
		}

		agg.Scored++
		agg.TotalCredits += r.Credit.FinalCredits
		if r.Rejected {
			agg.Rejected++
		}

		if r.Expected == nil {
			continue
		}
		agg.WithExpectation++
		if r.Matched {
			agg.Matched++
		} else {
			agg.Mismatched++
		}

		absDelta := math.Abs(r.Delta)
		totalAbsDelta += absDelta
		agg.MaxAbsDelta = math.Max(agg.MaxAbsDelta, absDelta)
	}

	agg.TotalCredits = credit.RoundCredits(agg.TotalCredits)
	if agg.Scored > 0 {
		agg.MeanCredits = credit.RoundCredits(agg.TotalCredits / float64(agg.Scored))
	}
	if agg.WithExpectation > 0 {
		agg.MeanAbsDelta = credit.RoundCredits(totalAbsDelta / float64(agg.WithExpectation))
		agg.Accuracy = float64(agg.Matched) / float64(agg.WithExpectation)
	}

	return agg
}

// PrintSummary writes a human-readable summary of the replay
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "BOOKSWAP CREDIT REPLAY SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Dataset: %s\n", a.DatasetPath)
	fmt.Fprintf(w, "Tolerance: %.2f credits\n", a.Tolerance)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SCORING")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Total Records: %d\n", a.TotalRecords)
	fmt.Fprintf(w, "Scored: %d\n", a.Scored)
	fmt.Fprintf(w, "Failed: %d\n", a.Failed)
	fmt.Fprintf(w, "Rejected: %d\n", a.Rejected)
	fmt.Fprintf(w, "Total Credits: %.2f\n", a.TotalCredits)
	fmt.Fprintf(w, "Mean Credits: %.2f\n", a.MeanCredits)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "AGREEMENT WITH RECORDED CREDITS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	if a.WithExpectation == 0 {
		fmt.Fprintln(w, "No records carry expected_credits")
	} else {
		fmt.Fprintf(w, "Matched: %d/%d (%.1f%%)\n", a.Matched, a.WithExpectation, a.Accuracy*100)
		fmt.Fprintf(w, "Mean |delta|: %.2f\n", a.MeanAbsDelta)
		fmt.Fprintf(w, "Max |delta|: %.2f\n", a.MaxAbsDelta)
		for _, r := range a.Results {
			if r.Expected != nil && !r.Matched {
				fmt.Fprintf(w, "  %s: expected %.2f, got %.2f\n", r.ID, *r.Expected, r.Credit.FinalCredits)
			}
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}
