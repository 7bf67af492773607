// Package scoring turns raw economic series into bounded, comparable
// signal scores. Every scorer is a pure function: identical inputs
// produce identical outputs, no I/O, no wall-clock dependence beyond
// the data_as_of stamp supplied by the caller.
package scoring

import (
	"errors"
	"fmt"

	"EconSentinel/internal/model"
)

// ErrInsufficientData marks a scorer whose required inputs are missing
// or too short to compute. Callers surface it as a per-signal failure.
var ErrInsufficientData = errors.New("insufficient data")

// Inputs bundles every raw series the scorers can consume. Fields a
// given scorer does not use may be nil.
type Inputs struct {
	Spread         *model.EconomicSeries // 10Y-2Y treasury spread (T10Y2Y)
	Unemployment   *model.EconomicSeries // unemployment rate (UNRATE)
	CoreCPI        *model.EconomicSeries // core CPI index (CUSR0000SA0L1E)
	HomePrice      *model.EconomicSeries // median sales price (MSPUS)
	MortgageRate   *model.EconomicSeries // 30-year fixed average (MORTGAGE30US)
	HourlyEarnings *model.EconomicSeries // average hourly earnings (AHETPI)
	Bank           *model.BankStats
}

// clamp01 bounds v to [0, 1]. Scores never leave this range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// latestValue returns the most recent value of a series, or
// ErrInsufficientData if the series is nil or empty.
func latestValue(s *model.EconomicSeries, what string) (float64, error) {
	obs, ok := s.Latest()
	if !ok {
		return 0, fmt.Errorf("%s series empty: %w", what, ErrInsufficientData)
	}
	return obs.Value, nil
}

// yoyChange returns the year-over-year percent change of a monthly
// index series at its latest observation. Requires at least 13
// observations.
func yoyChange(s *model.EconomicSeries) (float64, error) {
	changes := s.PctChange(12)
	if len(changes) == 0 {
		return 0, ErrInsufficientData
	}
	return changes[len(changes)-1].Value, nil
}
