// Package assessment asks a vision model to grade the physical condition of a
// donated book and turns its reply into a credit.VisualAssessment.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/providers"
)

// ErrMalformedResponse is returned when the model reply cannot be turned into
// a valid visual assessment
var ErrMalformedResponse = errors.New("malformed assessment response")

// ErrNoPhotos is returned when a request carries nothing to grade
var ErrNoPhotos = errors.New("at least one photo is required")

// Photo labels understood by the grading prompt
var PhotoLabels = []string{"cover", "spine", "pages", "back", "inside"}

// Photo is a single labeled picture of the book
type Photo struct {
	Label    string
	MIMEType string
	Data     []byte
}

// Request is one intake attempt's photos and the donor's description
type Request struct {
	Photos      []Photo
	Description string
}

// Result is a visual assessment plus how it was obtained
type Result struct {
	Visual   credit.VisualAssessment
	Model    string
	Attempts int
	Fallback bool
}

// Assessor produces a visual assessment for an intake request
type Assessor interface {
	Assess(ctx context.Context, req Request) (Result, error)
}

// Service grades photos with an LLM provider
type Service struct {
	provider providers.Provider
	models   []string
	timeout  time.Duration
}

// NewService returns a Service that tries models in order. The model list is
// fixed for the lifetime of the Service.
func NewService(provider providers.Provider, models []string, timeout time.Duration) *Service {
	return &Service{
		provider: provider,
		models:   append([]string(nil), models...),
		timeout:  timeout,
	}
}

// Models returns the configured model fallback list
func (s *Service) Models() []string {
	return append([]string(nil), s.models...)
}

// Assess grades the request. When a model fails with a transient error the
// next model in the list is tried; if every model is unavailable the last
// transient error is returned so a Retrying wrapper can back off.
func (s *Service) Assess(ctx context.Context, req Request) (Result, error) {
	if len(req.Photos) == 0 {
		return Result{}, ErrNoPhotos
	}
	if len(s.models) == 0 {
		return Result{}, fmt.Errorf("no models configured")
	}

	cfg := providers.Config{
		Temperature: 0,
		Prompt:      buildAssessmentPrompt(req.Description),
		Images:      toImages(req.Photos),
		JSON:        true,
	}

	var lastErr error
	attempts := 0
	for _, model := range s.models {
		attempts++
		cfg.Model = model

		raw, err := s.generate(ctx, cfg)
		if err != nil {
			if providers.IsTransient(err) {
				slog.Warn("Model unavailable, trying next", "model", model, "err", err)
				lastErr = err
				continue
			}
			return Result{Model: model, Attempts: attempts}, fmt.Errorf("failed to assess with %s: %w", model, err)
		}

		visual, err := ParseAssessment(raw)
		if err != nil {
			return Result{Model: model, Attempts: attempts}, err
		}

		slog.Info("Visual assessment generated", "model", model, "should_reject", visual.ShouldReject, "is_complete", visual.IsComplete)
		return Result{Visual: visual, Model: model, Attempts: attempts}, nil
	}

	return Result{Attempts: attempts}, fmt.Errorf("all models unavailable: %w", lastErr)
}

func (s *Service) generate(ctx context.Context, cfg providers.Config) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.ExtractText(ctx, cfg)
}

// assessmentResponse mirrors the JSON object requested in the prompt. Pointers
// let us tell a missing field from a zero score.
type assessmentResponse struct {
	CoverCondition     *int    `json:"cover_condition"`
	SpineCondition     *int    `json:"spine_condition"`
	PagesCondition     *int    `json:"pages_condition"`
	BindingIntegrity   *int    `json:"binding_integrity"`
	Cleanliness        *int    `json:"cleanliness"`
	HasAnnotations     *bool   `json:"has_annotations"`
	AnnotationSeverity *string `json:"annotation_severity"`
	IsComplete         *bool   `json:"is_complete"`
	ShouldReject       *bool   `json:"should_reject"`
	Justification      string  `json:"justification"`
}

// ParseAssessment decodes a model reply into a validated visual assessment.
// Markdown code fences around the JSON are tolerated.
func ParseAssessment(response string) (credit.VisualAssessment, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var r assessmentResponse
	if err := json.Unmarshal([]byte(response), &r); err != nil {
		return credit.VisualAssessment{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var missing []string
	scores := []struct {
		name  string
		value *int
	}{
		{"cover_condition", r.CoverCondition},
		{"spine_condition", r.SpineCondition},
		{"pages_condition", r.PagesCondition},
		{"binding_integrity", r.BindingIntegrity},
		{"cleanliness", r.Cleanliness},
	}
	for _, s := range scores {
		if s.value == nil {
			missing = append(missing, s.name)
		}
	}
	if r.IsComplete == nil {
		missing = append(missing, "is_complete")
	}
	if r.ShouldReject == nil {
		missing = append(missing, "should_reject")
	}
	if len(missing) > 0 {
		return credit.VisualAssessment{}, fmt.Errorf("%w: missing fields %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	v := credit.VisualAssessment{
		CoverCondition:   *r.CoverCondition,
		SpineCondition:   *r.SpineCondition,
		PagesCondition:   *r.PagesCondition,
		BindingIntegrity: *r.BindingIntegrity,
		Cleanliness:      *r.Cleanliness,
		IsComplete:       *r.IsComplete,
		ShouldReject:     *r.ShouldReject,
		Justification:    strings.TrimSpace(r.Justification),
	}
	if r.HasAnnotations != nil {
		v.HasAnnotations = *r.HasAnnotations
	}
	v.AnnotationSeverity = credit.AnnotationNone
	if r.AnnotationSeverity != nil && *r.AnnotationSeverity != "" {
		v.AnnotationSeverity = credit.AnnotationSeverity(strings.ToLower(strings.TrimSpace(*r.AnnotationSeverity)))
	}

	if err := v.Validate(); err != nil {
		return credit.VisualAssessment{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if v.HasAnnotations != (v.AnnotationSeverity != credit.AnnotationNone) {
		slog.Debug("Annotation flag disagrees with severity; severity wins",
			"has_annotations", v.HasAnnotations, "annotation_severity", v.AnnotationSeverity)
	}

	return v, nil
}

// NeutralFallback is substituted when the provider cannot be reached: mid-range
// scores, no annotations, complete and not rejected.
func NeutralFallback() credit.VisualAssessment {
	return credit.VisualAssessment{
		CoverCondition:     5,
		SpineCondition:     5,
		PagesCondition:     5,
		BindingIntegrity:   5,
		Cleanliness:        5,
		HasAnnotations:     false,
		AnnotationSeverity: credit.AnnotationNone,
		IsComplete:         true,
		ShouldReject:       false,
		Justification:      "Automated condition assessment was unavailable; a neutral default assessment was applied.",
	}
}

// IsPhotoLabel reports whether label is one of PhotoLabels
func IsPhotoLabel(label string) bool {
	for _, l := range PhotoLabels {
		if l == label {
			return true
		}
	}
	return false
}

func toImages(photos []Photo) []providers.Image {
	images := make([]providers.Image, 0, len(photos))
	for _, p := range photos {
		mime := p.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		images = append(images, providers.Image{Label: p.Label, MIMEType: mime, Data: p.Data})
	}
	return images
}
