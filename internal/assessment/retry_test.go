package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/credit"
	"github.com/lehigh-university-libraries/bookswap/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceAssessor replays a fixed list of outcomes
type sequenceAssessor struct {
	errs  []error
	calls int
}

func (s *sequenceAssessor) Assess(_ context.Context, _ Request) (Result, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Result{Attempts: 1}, s.errs[i]
	}
	return Result{Visual: credit.VisualAssessment{CoverCondition: 10, IsComplete: true}, Model: "m", Attempts: 1}, nil
}

func newTestRetrying(next Assessor, policy RetryPolicy) (*Retrying, *[]time.Duration) {
	var slept []time.Duration
	r := NewRetrying(next, policy)
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	r.jitter = func(time.Duration) time.Duration { return 0 }
	return r, &slept
}

func TestRetryingSucceedsAfterTransientErrors(t *testing.T) {
	next := &sequenceAssessor{errs: []error{providers.ErrTransient, providers.ErrTransient}}
	r, slept := newTestRetrying(next, RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second})

	res, err := r.Assess(context.Background(), Request{})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 10, res.Visual.CoverCondition)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestRetryingFallsBackWhenExhausted(t *testing.T) {
	next := &sequenceAssessor{errs: []error{
		providers.ErrTransient, providers.ErrTransient, providers.ErrTransient,
	}}
	r, slept := newTestRetrying(next, RetryPolicy{MaxRetries: 2, BaseDelay: 10 * time.Millisecond})

	res, err := r.Assess(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, NeutralFallback(), res.Visual)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, next.calls)
	assert.Len(t, *slept, 2)
}

func TestRetryingPassesPermanentErrors(t *testing.T) {
	boom := errors.New("invalid api key")
	next := &sequenceAssessor{errs: []error{boom}}
	r, slept := newTestRetrying(next, DefaultRetryPolicy)

	_, err := r.Assess(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, *slept)
}

func TestRetryingMalformedIsNotRetried(t *testing.T) {
	next := &sequenceAssessor{errs: []error{ErrMalformedResponse}}
	r, _ := newTestRetrying(next, DefaultRetryPolicy)

	_, err := r.Assess(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 1, next.calls)
}

func TestRetryingHonoursContext(t *testing.T) {
	next := &sequenceAssessor{errs: []error{providers.ErrTransient, providers.ErrTransient}}
	r := NewRetrying(next, RetryPolicy{MaxRetries: 3, BaseDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Assess(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, next.calls)
}

func TestBackoff(t *testing.T) {
	r, _ := newTestRetrying(nil, RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second})

	assert.Equal(t, time.Second, r.Backoff(1))
	assert.Equal(t, 2*time.Second, r.Backoff(2))
	assert.Equal(t, 4*time.Second, r.Backoff(3))
	assert.Equal(t, 5*time.Second, r.Backoff(4))
	assert.Equal(t, 5*time.Second, r.Backoff(40))
}

func TestBackoffJitterBounded(t *testing.T) {
	r := NewRetrying(nil, RetryPolicy{BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second})
	for i := 0; i < 100; i++ {
		d := r.Backoff(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 100*time.Millisecond)
	}
}
