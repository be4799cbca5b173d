package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodResponse = `{
  "cover_condition": 9,
  "spine_condition": 8,
  "pages_condition": 8,
  "binding_integrity": 9,
  "cleanliness": 7,
  "has_annotations": true,
  "annotation_severity": "Minor",
  "is_complete": true,
  "should_reject": false,
  "justification": "Light shelf wear, a name written inside the cover."
}`

// scriptedProvider returns one reply per call, keyed by model
type scriptedProvider struct {
	replies map[string]string
	errs    map[string]error
	calls   []providers.Config
}

func (p *scriptedProvider) ExtractText(_ context.Context, cfg providers.Config) (string, error) {
	p.calls = append(p.calls, cfg)
	if err := p.errs[cfg.Model]; err != nil {
		return "", err
	}
	return p.replies[cfg.Model], nil
}

func cover() []Photo {
	return []Photo{{Label: "cover", MIMEType: "image/png", Data: []byte("png")}}
}

func TestParseAssessment(t *testing.T) {
	v, err := ParseAssessment("```json\n" + goodResponse + "\n```")
	require.NoError(t, err)

	assert.Equal(t, credit.VisualAssessment{
		CoverCondition:     9,
		SpineCondition:     8,
		PagesCondition:     8,
		BindingIntegrity:   9,
		Cleanliness:        7,
		HasAnnotations:     true,
		AnnotationSeverity: credit.AnnotationMinor,
		IsComplete:         true,
		ShouldReject:       false,
		Justification:      "Light shelf wear, a name written inside the cover.",
	}, v)
}

func TestParseAssessmentErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		contains string
	}{
		{"not json", "The book looks great!", "malformed"},
		{"missing scores", `{"cover_condition": 9, "is_complete": true, "should_reject": false}`, "spine_condition"},
		{"missing flags", `{"cover_condition":9,"spine_condition":9,"pages_condition":9,"binding_integrity":9,"cleanliness":9}`, "is_complete"},
		{"out of range", `{"cover_condition":12,"spine_condition":9,"pages_condition":9,"binding_integrity":9,"cleanliness":9,"is_complete":true,"should_reject":false}`, "cover_condition must be between 0 and 10"},
		{"unknown severity", `{"cover_condition":9,"spine_condition":9,"pages_condition":9,"binding_integrity":9,"cleanliness":9,"is_complete":true,"should_reject":false,"annotation_severity":"lots"}`, "annotation_severity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAssessment(tt.response)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseAssessmentDefaultsSeverity(t *testing.T) {
	v, err := ParseAssessment(`{"cover_condition":9,"spine_condition":9,"pages_condition":9,"binding_integrity":9,"cleanliness":9,"is_complete":true,"should_reject":false}`)
	require.NoError(t, err)
	assert.Equal(t, credit.AnnotationNone, v.AnnotationSeverity)
	assert.False(t, v.HasAnnotations)
}

func TestServiceAssess(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{"gemini-2.5-flash": goodResponse}}
	s := NewService(p, []string{"gemini-2.5-flash"}, 0)

	res, err := s.Assess(context.Background(), Request{Photos: cover(), Description: "paperback, read once"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", res.Model)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Fallback)
	assert.Equal(t, 9, res.Visual.CoverCondition)

	require.Len(t, p.calls, 1)
	call := p.calls[0]
	assert.Zero(t, call.Temperature)
	assert.True(t, call.JSON)
	assert.Contains(t, call.Prompt, "paperback, read once")
	require.Len(t, call.Images, 1)
	assert.Equal(t, "cover", call.Images[0].Label)
}

func TestServiceFallsThroughModelList(t *testing.T) {
	p := &scriptedProvider{
		replies: map[string]string{"backup": goodResponse},
		errs:    map[string]error{"primary": fmt.Errorf("busy: %w", providers.ErrTransient)},
	}
	s := NewService(p, []string{"primary", "backup"}, 0)

	res, err := s.Assess(context.Background(), Request{Photos: cover()})
	require.NoError(t, err)
	assert.Equal(t, "backup", res.Model)
	assert.Equal(t, 2, res.Attempts)
}

func TestServiceAllModelsUnavailable(t *testing.T) {
	p := &scriptedProvider{errs: map[string]error{
		"a": providers.ErrTransient,
		"b": providers.ErrTransient,
	}}
	s := NewService(p, []string{"a", "b"}, 0)

	res, err := s.Assess(context.Background(), Request{Photos: cover()})
	require.Error(t, err)
	assert.True(t, providers.IsTransient(err))
	assert.Equal(t, 2, res.Attempts)
}

func TestServicePermanentErrorStops(t *testing.T) {
	p := &scriptedProvider{errs: map[string]error{"a": errors.New("invalid api key")}}
	s := NewService(p, []string{"a", "b"}, 0)

	_, err := s.Assess(context.Background(), Request{Photos: cover()})
	require.Error(t, err)
	assert.False(t, providers.IsTransient(err))
	assert.Len(t, p.calls, 1)
}

func TestServiceRequiresPhotos(t *testing.T) {
	s := NewService(&scriptedProvider{}, []string{"a"}, 0)
	_, err := s.Assess(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoPhotos)
}

func TestServiceDefaultsMIMEType(t *testing.T) {
	p := &scriptedProvider{replies: map[string]string{"a": goodResponse}}
	s := NewService(p, []string{"a"}, 0)

	_, err := s.Assess(context.Background(), Request{Photos: []Photo{{Label: "spine", Data: []byte("x")}}})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", p.calls[0].Images[0].MIMEType)
}

func TestNeutralFallback(t *testing.T) {
	v := NeutralFallback()
	require.NoError(t, v.Validate())
	assert.False(t, v.Rejected())
	assert.False(t, v.HasAnnotations)

	// mid-range scores land on the low band of every threshold
	got := credit.ComputeCreditAssessment(v, credit.ContextualFactors{})
	assert.Equal(t, 1.0, got.ConditionScore)
	assert.True(t, strings.HasPrefix(got.Justification, v.Justification))
}

func TestBuildAssessmentPrompt(t *testing.T) {
	p := buildAssessmentPrompt("")
	assert.Contains(t, p, "(no description provided)")
	for _, label := range PhotoLabels {
		assert.Contains(t, p, label)
	}
	assert.Contains(t, p, `"annotation_severity": "none"`)
}

func TestIsPhotoLabel(t *testing.T) {
	assert.True(t, IsPhotoLabel("cover"))
	assert.True(t, IsPhotoLabel("inside"))
	assert.False(t, IsPhotoLabel("Cover"))
	assert.False(t, IsPhotoLabel("selfie"))
}
