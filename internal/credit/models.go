package credit

import (
	"errors"
	"fmt"
)

// AnnotationSeverity describes how much writing or highlighting was found in a book
type AnnotationSeverity string

const (
	AnnotationNone  AnnotationSeverity = "none"
	AnnotationMinor AnnotationSeverity = "minor"
	AnnotationHeavy AnnotationSeverity = "heavy"
)

// VisualAssessment is the structured condition report produced by the
// visual assessment provider for a single intake attempt
type VisualAssessment struct {
	CoverCondition     int                `json:"cover_condition" parquet:"cover_condition"`
	SpineCondition     int                `json:"spine_condition" parquet:"spine_condition"`
	PagesCondition     int                `json:"pages_condition" parquet:"pages_condition"`
	BindingIntegrity   int                `json:"binding_integrity" parquet:"binding_integrity"`
	Cleanliness        int                `json:"cleanliness" parquet:"cleanliness"`
	HasAnnotations     bool               `json:"has_annotations" parquet:"has_annotations"`
	AnnotationSeverity AnnotationSeverity `json:"annotation_severity" parquet:"annotation_severity"`
	IsComplete         bool               `json:"is_complete" parquet:"is_complete"`
	ShouldReject       bool               `json:"should_reject" parquet:"should_reject"`
	Justification      string             `json:"justification" parquet:"justification"`
}

// ContextualFactors are caller-supplied signals that are not visible in the photos
type ContextualFactors struct {
	BookTitle        string `json:"book_title,omitempty" parquet:"book_title"`
	BookAuthor       string `json:"book_author,omitempty" parquet:"book_author"`
	IsFirstTimeDonor bool   `json:"is_first_time_donor" parquet:"is_first_time_donor"`
	IsThemeEvent     bool   `json:"is_theme_event" parquet:"is_theme_event"`
	IsNewBook        bool   `json:"is_new_book" parquet:"is_new_book"`
	HasCraftMatch    bool   `json:"has_craft_match" parquet:"has_craft_match"`
}

// CreditBreakdown holds the weighted contribution of each scoring component
type CreditBreakdown struct {
	ConditionCredits float64 `json:"condition_credits" yaml:"condition_credits"`
	DemandCredits    float64 `json:"demand_credits" yaml:"demand_credits"`
	RarityCredits    float64 `json:"rarity_credits" yaml:"rarity_credits"`
	BonusCredits     float64 `json:"bonus_credits" yaml:"bonus_credits"`
}

// CreditAssessment is the engine's output for one visual assessment
type CreditAssessment struct {
	ConditionScore  float64         `json:"condition_score" yaml:"condition_score"`
	DemandScore     float64         `json:"demand_score" yaml:"demand_score"`
	RarityScore     float64         `json:"rarity_score" yaml:"rarity_score"`
	BonusFactors    float64         `json:"bonus_factors" yaml:"bonus_factors"`
	FinalCredits    float64         `json:"final_credits" yaml:"final_credits"`
	CreditBreakdown CreditBreakdown `json:"credit_breakdown" yaml:"credit_breakdown"`
	Justification   string          `json:"justification" yaml:"justification"`
}

// Rejected reports whether the assessment went through the rejection gate
func (v VisualAssessment) Rejected() bool {
	return v.ShouldReject || !v.IsComplete
}

// Validate checks that a record honours the provider contract.
// The engine itself never calls this; it is meant for boundaries that accept
// records from outside the process.
func (v VisualAssessment) Validate() error {
	var errs []error

	features := []struct {
		name  string
		value int
	}{
		{"cover_condition", v.CoverCondition},
		{"spine_condition", v.SpineCondition},
		{"pages_condition", v.PagesCondition},
		{"binding_integrity", v.BindingIntegrity},
		{"cleanliness", v.Cleanliness},
	}
	for _, f := range features {
		if f.value < 0 || f.value > 10 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 10, got %d", f.name, f.value))
		}
	}

	switch v.AnnotationSeverity {
	case AnnotationNone, AnnotationMinor, AnnotationHeavy:
	default:
		errs = append(errs, fmt.Errorf("annotation_severity must be one of none, minor, heavy, got %q", v.AnnotationSeverity))
	}

	return errors.Join(errs...)
}
