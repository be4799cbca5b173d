// Package credit converts a visual condition assessment and contextual
// donation signals into a credit award.
//
// Everything in this package is pure computation: no I/O, no shared mutable
// state, no randomness. An Engine may be used concurrently.
package credit

import (
	"fmt"
	"math"
	"strings"
)

// Component weights applied by the final aggregator
const (
	ConditionWeight = 0.5
	DemandWeight    = 0.3
	RarityWeight    = 0.1
	BonusWeight     = 1.0
)

// Nominal maximum for each component score
const (
	MaxConditionScore = 5.0
	MaxDemandScore    = 3.0
	MaxRarityScore    = 1.0
	MaxBonusFactors   = 5.0
)

// RejectionSuffix is appended to the provider justification for rejected books
const RejectionSuffix = " - Book rejected due to severe damage or missing pages."

// BonusSchedule lists the amount each contextual flag is worth and the ceiling
// applied to their sum
type BonusSchedule struct {
	FirstTimeDonor float64
	ThemeEvent     float64
	NewBook        float64
	CraftMatch     float64
	Cap            float64
}

// DefaultBonusSchedule is the promotional schedule used at the kiosk
var DefaultBonusSchedule = BonusSchedule{
	FirstTimeDonor: 1,
	ThemeEvent:     0.5,
	NewBook:        2,
	CraftMatch:     1,
	Cap:            MaxBonusFactors,
}

// Engine computes credit assessments
type Engine struct {
	demand  DemandSource
	rarity  RaritySource
	bonuses BonusSchedule
}

// Option configures an Engine
type Option func(*Engine)

// WithDemandSource replaces the curated placeholder demand lists
func WithDemandSource(d DemandSource) Option {
	return func(e *Engine) {
		if d != nil {
			e.demand = d
		}
	}
}

// WithRaritySource replaces the zero rarity placeholder
func WithRaritySource(r RaritySource) Option {
	return func(e *Engine) {
		if r != nil {
			e.rarity = r
		}
	}
}

// WithBonusSchedule overrides the bonus amounts and cap
func WithBonusSchedule(s BonusSchedule) Option {
	return func(e *Engine) {
		e.bonuses = s
	}
}

// NewEngine returns an Engine using the default sources unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		demand:  defaultDemand,
		rarity:  defaultRarity,
		bonuses: DefaultBonusSchedule,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// ComputeCreditAssessment scores a visual assessment with the default engine
func ComputeCreditAssessment(v VisualAssessment, f ContextualFactors) CreditAssessment {
	return defaultEngine.Compute(v, f)
}

// Compute converts a visual assessment plus contextual factors into a credit
// award. It never fails; out-of-range inputs are compared literally.
func (e *Engine) Compute(v VisualAssessment, f ContextualFactors) CreditAssessment {
	if v.Rejected() {
		return CreditAssessment{
			Justification: v.Justification + RejectionSuffix,
		}
	}

	condition := CalculateConditionScore(v)
	demand := clamp(e.demand.DemandScore(f.BookTitle, f.BookAuthor), 0, MaxDemandScore)
	rarity := clamp(e.rarity.RarityScore(f.BookTitle, f.BookAuthor), 0, MaxRarityScore)
	bonus := e.bonuses.Apply(f)

	conditionCredits := condition * ConditionWeight
	demandCredits := demand * DemandWeight
	rarityCredits := rarity * RarityWeight
	bonusCredits := bonus * BonusWeight

	// Total is rounded from the unrounded sum, not from the rounded parts.
	total := conditionCredits + demandCredits + rarityCredits + bonusCredits

	result := CreditAssessment{
		ConditionScore: condition,
		DemandScore:    demand,
		RarityScore:    rarity,
		BonusFactors:   bonus,
		FinalCredits:   RoundCredits(total),
		CreditBreakdown: CreditBreakdown{
			ConditionCredits: RoundCredits(conditionCredits),
			DemandCredits:    RoundCredits(demandCredits),
			RarityCredits:    RoundCredits(rarityCredits),
			BonusCredits:     RoundCredits(bonusCredits),
		},
	}
	result.Justification = v.Justification + formatBreakdown(result)

	return result
}

// CalculateConditionScore collapses the cover, spine and page scores plus the
// annotation severity into a 0-5 condition score. Binding integrity and
// cleanliness are not part of the formula.
func CalculateConditionScore(v VisualAssessment) float64 {
	score := 3.0

	score += bandScore(v.CoverCondition)
	score += bandScore(v.SpineCondition)

	if v.PagesCondition >= 8 {
		score++
	} else {
		score--
	}

	score += annotationPenalty(v.AnnotationSeverity)

	// completeness credit, guaranteed by the rejection gate
	score++

	return clamp(score, 0, MaxConditionScore)
}

// CalculateBonusFactors sums the default bonus schedule for the given factors
func CalculateBonusFactors(f ContextualFactors) float64 {
	return DefaultBonusSchedule.Apply(f)
}

// Apply sums the bonuses earned by f and clamps the total to [0, Cap]
func (s BonusSchedule) Apply(f ContextualFactors) float64 {
	var bonus float64
	if f.IsFirstTimeDonor {
		bonus += s.FirstTimeDonor
	}
	if f.IsThemeEvent {
		bonus += s.ThemeEvent
	}
	if f.IsNewBook {
		bonus += s.NewBook
	}
	if f.HasCraftMatch {
		bonus += s.CraftMatch
	}
	return clamp(bonus, 0, s.Cap)
}

// RoundCredits rounds half away from zero to two decimal places
func RoundCredits(v float64) float64 {
	return math.Round(v*100) / 100
}

func bandScore(v int) float64 {
	switch {
	case v >= 9:
		return 1
	case v >= 7:
		return 0
	default:
		return -1
	}
}

// Severity is authoritative even when HasAnnotations disagrees with it.
func annotationPenalty(s AnnotationSeverity) float64 {
	switch AnnotationSeverity(strings.ToLower(string(s))) {
	case AnnotationMinor:
		return -0.5
	case AnnotationHeavy:
		return -1
	default:
		return 0
	}
}

// clamp bounds v to [lo, hi]; NaN maps to lo
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func formatBreakdown(a CreditAssessment) string {
	var b strings.Builder
	b.WriteString("\n\nCredit Breakdown:\n")
	fmt.Fprintf(&b, "- Condition: %.1f/%g (%.2f credits)\n", a.ConditionScore, MaxConditionScore, a.CreditBreakdown.ConditionCredits)
	fmt.Fprintf(&b, "- Demand: %.1f/%g (%.2f credits)\n", a.DemandScore, MaxDemandScore, a.CreditBreakdown.DemandCredits)
	fmt.Fprintf(&b, "- Rarity: %.1f/%g (%.2f credits)\n", a.RarityScore, MaxRarityScore, a.CreditBreakdown.RarityCredits)
	fmt.Fprintf(&b, "- Bonus: %.1f/%g (%.2f credits)\n", a.BonusFactors, MaxBonusFactors, a.CreditBreakdown.BonusCredits)
	fmt.Fprintf(&b, "Total: %.2f credits", a.FinalCredits)
	return b.String()
}
