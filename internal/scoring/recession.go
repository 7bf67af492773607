package scoring

import (
	"fmt"
	"time"

	"EconSentinel/internal/model"
)

// RecessionWeights is the fixed composite weight vector. Weights sum to
// 1.0; the yield curve carries the most weight as historically the best
// single predictor.
var RecessionWeights = map[string]float64{
	model.SignalYieldCurve:    0.40,
	model.SignalJobsInflation: 0.30,
	model.SignalHousing:       0.15,
	model.SignalBankStress:    0.15,
}

// trendEpsilon is the minimum probability move counted as a trend.
const trendEpsilon = 0.02

// ComputeRecessionProbability derives the composite probability from the
// cycle's scored signals. Missing signals renormalize the remaining
// weights. The trend is computed against the immediately preceding
// stored snapshot (prior may be nil on the first cycle), never by
// recomputation.
func ComputeRecessionProbability(signals []*model.ScoredSignal, spread float64, prior *model.RecessionSnapshot, asOf time.Time) (*model.RecessionSnapshot, error) {
	var weightedSum, weightTotal float64
	for _, sig := range signals {
		w, ok := RecessionWeights[sig.Name]
		if !ok {
			continue
		}
		weightedSum += sig.Score * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return nil, fmt.Errorf("no contributing signals: %w", ErrInsufficientData)
	}
	probability := clamp01(weightedSum / weightTotal)

	trend := model.TrendFlat
	if prior != nil {
		switch {
		case probability > prior.Probability+trendEpsilon:
			trend = model.TrendUp
		case probability < prior.Probability-trendEpsilon:
			trend = model.TrendDown
		}
	}

	return &model.RecessionSnapshot{
		Probability: probability,
		Assessment:  AssessProbability(probability),
		Spread:      spread,
		Trend:       trend,
		SignalCount: len(signals),
		DataAsOf:    asOf,
	}, nil
}

// AssessProbability maps a probability to its categorical band.
func AssessProbability(p float64) string {
	switch {
	case p >= 0.7:
		return model.AssessmentHigh
	case p >= 0.4:
		return model.AssessmentElevated
	case p >= 0.2:
		return model.AssessmentModerate
	default:
		return model.AssessmentLow
	}
}
