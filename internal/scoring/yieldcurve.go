package scoring

import (
	"fmt"
	"time"

	"EconSentinel/internal/model"
)

// spreadScale converts the 10Y-2Y spread (percentage points) into
// score units: a spread of -1.0 saturates the score at 1.0, +1.0 at 0.
const spreadScale = 0.5

// ScoreYieldCurve scores yield-curve inversion from the 10Y-2Y spread.
// The score rises monotonically as the spread falls, saturating at the
// bounds: score = clamp01(0.5 - 0.5*spread). An inversion since 1970
// has preceded every US recession, typically by 6-24 months.
func ScoreYieldCurve(spread *model.EconomicSeries, asOf time.Time) (*model.ScoredSignal, error) {
	s, err := latestValue(spread, "spread")
	if err != nil {
		return nil, err
	}

	score := clamp01(0.5 - spreadScale*s)

	var tags []string
	var summary string
	switch {
	case s < 0:
		tags = append(tags, model.TagInverted)
		summary = fmt.Sprintf("Yield curve is inverted at %.2f%%. The 10Y-2Y spread has preceded every US recession since 1970.", s)
	case s < 0.5:
		summary = fmt.Sprintf("Yield curve is nearly flat at %.2f%%, approaching inversion territory.", s)
	case s > 2.0:
		summary = fmt.Sprintf("Yield curve is steep at %.2f%%, consistent with expectations of growth and/or inflation.", s)
	default:
		summary = fmt.Sprintf("Yield curve spread is %.2f%%, in normal range.", s)
	}

	return &model.ScoredSignal{
		Name:     model.SignalYieldCurve,
		Score:    score,
		Summary:  summary,
		Tags:     tags,
		DataAsOf: asOf,
	}, nil
}
