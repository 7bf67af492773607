package model

import "time"

// Signal names. Each identifies one scoring algorithm; snapshots are
// comparable only within the same name.
const (
	SignalYieldCurve    = "yield_curve"
	SignalJobsInflation = "jobs_inflation"
	SignalHousing       = "housing_affordability"
	SignalBankStress    = "bank_stress"
)

// Classifier tags attached to scored signals.
const (
	TagInverted    = "inverted"
	TagOverheating = "overheating"
	TagStagflation = "stagflation"
	TagGoldilocks  = "goldilocks"
	TagNeutral     = "neutral"
	TagStrained    = "strained"
	TagBankStress  = "bank_stress"
)

// Trend direction of the recession probability vs. the prior snapshot.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Recession assessment bands.
const (
	AssessmentLow      = "low"
	AssessmentModerate = "moderate"
	AssessmentElevated = "elevated"
	AssessmentHigh     = "high"
)

// ScoredSignal is one derived score at one point in time. Score is
// always within [0, 1]; higher means more stressed or divergent.
// DataAsOf is the date the underlying observations reflect, not the
// computation time.
type ScoredSignal struct {
	Name     string
	Score    float64
	Summary  string
	Tags     []string
	DataAsOf time.Time
}

// HasTag reports whether the signal carries the given tag.
func (s *ScoredSignal) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RecessionSnapshot is the composite recession probability derived from
// a weighted combination of the individual signal scores.
type RecessionSnapshot struct {
	Probability float64
	Assessment  string
	Spread      float64 // 10Y-2Y yield spread driving part of the composite
	Trend       string  // direction vs. the prior stored snapshot
	SignalCount int
	DataAsOf    time.Time
}
