package assessment

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/providers"
)

// RetryPolicy controls how transient provider failures are retried
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy is used when no policy is configured
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

// Retrying wraps an Assessor, retrying transient failures with exponential
// backoff plus jitter. Once retries are exhausted it returns NeutralFallback
// with Fallback set instead of an error. Other errors pass through untouched.
type Retrying struct {
	next   Assessor
	policy RetryPolicy

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(limit time.Duration) time.Duration
}

// NewRetrying wraps next with the given policy
func NewRetrying(next Assessor, policy RetryPolicy) *Retrying {
	return &Retrying{
		next:   next,
		policy: policy,
		sleep:  sleepContext,
		jitter: randomJitter,
	}
}

// Assess implements Assessor
func (r *Retrying) Assess(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.Backoff(attempt)
			slog.Warn("Retrying visual assessment", "attempt", attempt, "delay", delay, "err", lastErr)
			if err := r.sleep(ctx, delay); err != nil {
				return Result{Attempts: attempts}, err
			}
		}

		res, err := r.next.Assess(ctx, req)
		attempts += max(res.Attempts, 1)
		if err == nil {
			res.Attempts = attempts
			return res, nil
		}
		if !providers.IsTransient(err) {
			res.Attempts = attempts
			return res, err
		}
		lastErr = err
	}

	slog.Error("Visual assessment retries exhausted, using neutral fallback", "attempts", attempts, "err", lastErr)
	return Result{
		Visual:   NeutralFallback(),
		Attempts: attempts,
		Fallback: true,
	}, nil
}

// Backoff returns the wait before the given retry (1-based): BaseDelay doubled
// per retry, capped at MaxDelay, plus up to BaseDelay of jitter
func (r *Retrying) Backoff(retry int) time.Duration {
	delay := r.policy.BaseDelay
	for i := 1; i < retry; i++ {
		delay *= 2
		if r.policy.MaxDelay > 0 && delay >= r.policy.MaxDelay {
			break
		}
	}
	if r.policy.MaxDelay > 0 && delay > r.policy.MaxDelay {
		delay = r.policy.MaxDelay
	}
	return delay + r.jitter(r.policy.BaseDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
