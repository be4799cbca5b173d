package models

import (
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
)

// IntakeSession represents one donation intake attempt at the kiosk.
// Sessions are written once; re-running intake creates a new session.
type IntakeSession struct {
	ID          string                   `json:"id"`
	Images      []ImageItem              `json:"images"`
	Description string                   `json:"description,omitempty"`
	Factors     credit.ContextualFactors `json:"factors"`
	Visual      credit.VisualAssessment  `json:"visual_assessment"`
	Credit      credit.CreditAssessment  `json:"credit_assessment"`
	Provider    string                   `json:"provider,omitempty"`
	Model       string                   `json:"model,omitempty"`
	Attempts    int                      `json:"attempts"`
	Fallback    bool                     `json:"fallback"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ImageItem represents an uploaded book photo
type ImageItem struct {
	ID          string `json:"id"`
	ImagePath   string `json:"image_path"`
	ImageURL    string `json:"image_url"`
	ImageType   string `json:"image_type"` // "cover", "spine", "pages", "back", "inside"
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
}

// Rejected reports whether the book went through the rejection gate
func (s *IntakeSession) Rejected() bool {
	return s.Visual.Rejected()
}
