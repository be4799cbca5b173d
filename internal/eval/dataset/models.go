package dataset

import "github.com/lehigh-university-libraries/bookswap/internal/credit"

// IntakeRecord is one recorded intake used to replay the credit engine.
// ExpectedCredits holds the credits staff agreed the book was worth, when known.
type IntakeRecord struct {
	ID              string                   `json:"id" parquet:"id"`
	Visual          credit.VisualAssessment  `json:"visual_assessment" parquet:"visual_assessment"`
	Factors         credit.ContextualFactors `json:"factors" parquet:"factors"`
	ExpectedCredits *float64                 `json:"expected_credits,omitempty" parquet:"expected_credits,optional"`
}

// HasExpectation reports whether the record carries a ground-truth credit value
func (r *IntakeRecord) HasExpectation() bool {
	return r.ExpectedCredits != nil
}

// GetTitle returns the book title, or the record ID when the donor gave none
func (r *IntakeRecord) GetTitle() string {
	if r.Factors.BookTitle != "" {
		return r.Factors.BookTitle
	}
	return r.ID
}
