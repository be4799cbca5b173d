package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Intake outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	IntakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookswap_intakes_total",
			Help: "Total number of intake attempts by outcome",
		},
		[]string{"outcome"},
	)

	AssessmentFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookswap_assessment_fallbacks_total",
			Help: "Total number of intakes scored with the neutral fallback assessment",
		},
	)

	AssessmentAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookswap_assessment_attempts_total",
			Help: "Total number of visual assessment provider calls",
		},
		[]string{"provider"},
	)

	CreditsAwarded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookswap_credits_awarded",
			Help:    "Distribution of final credits awarded per accepted intake",
			Buckets: prometheus.LinearBuckets(0, 0.5, 18),
		},
	)

	AssessmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bookswap_assessment_duration_seconds",
			Help: "Duration of visual assessment including retries",
		},
		[]string{"provider"},
	)
)
