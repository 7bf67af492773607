package scoring

import (
	"fmt"
	"math"
	"time"

	"EconSentinel/internal/model"
)

// Quadrant boundaries and baselines for the jobs/inflation signal.
// Employment is "tight" below the natural-rate proxy, inflation "hot"
// above the elevated threshold; deviations are measured against the
// baselines and normalized by deviationScale.
const (
	unemploymentBaseline = 4.0 // percent, natural-rate proxy
	inflationBaseline    = 2.0 // percent YoY, Fed target
	tightLaborThreshold  = 4.0 // percent unemployment
	hotInflationLimit    = 3.0 // percent YoY core CPI
	deviationScale       = 4.0
)

// ScoreJobsInflation scores the divergence between the labor market and
// core inflation. Exactly one quadrant tag applies per evaluation.
func ScoreJobsInflation(unemployment, coreCPI *model.EconomicSeries, asOf time.Time) (*model.ScoredSignal, error) {
	u, err := latestValue(unemployment, "unemployment")
	if err != nil {
		return nil, err
	}
	pi, err := yoyChange(coreCPI)
	if err != nil {
		return nil, fmt.Errorf("core CPI YoY: %w", err)
	}

	devU := clamp01(math.Abs(u-unemploymentBaseline) / deviationScale)
	devPi := clamp01(math.Abs(pi-inflationBaseline) / deviationScale)
	score := clamp01(0.5*devU + 0.5*devPi)

	tight := u < tightLaborThreshold
	hot := pi > hotInflationLimit

	var tag, summary string
	switch {
	case tight && hot:
		tag = model.TagOverheating
		summary = fmt.Sprintf("Tight labor market (%.1f%% unemployment) with core inflation at %.1f%% YoY: classic overheating.", u, pi)
	case !tight && hot:
		tag = model.TagStagflation
		summary = fmt.Sprintf("Unemployment at %.1f%% with core inflation still %.1f%% YoY: stagflation risk, the worst macro mix.", u, pi)
	case tight && !hot:
		tag = model.TagGoldilocks
		summary = fmt.Sprintf("Strong job market (%.1f%% unemployment) with core inflation contained at %.1f%% YoY: goldilocks conditions.", u, pi)
	default:
		tag = model.TagNeutral
		summary = fmt.Sprintf("Unemployment %.1f%%, core inflation %.1f%% YoY: no strong divergence.", u, pi)
	}

	return &model.ScoredSignal{
		Name:     model.SignalJobsInflation,
		Score:    score,
		Summary:  summary,
		Tags:     []string{tag},
		DataAsOf: asOf,
	}, nil
}
