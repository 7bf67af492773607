package model

import "time"

// Source identifies an upstream data provider.
type Source string

const (
	SourceFRED     Source = "fred"
	SourceBLS      Source = "bls"
	SourceTreasury Source = "treasury"
	SourceFDIC     Source = "fdic"
)

// Observation is a single dated value in a time series.
type Observation struct {
	Date  time.Time
	Value float64
}

// EconomicSeries holds one named time series from one provider.
// Observations are ascending by date with no duplicate dates.
type EconomicSeries struct {
	SeriesID     string
	Label        string
	Unit         string
	Frequency    string
	Source       Source
	Observations []Observation
}

// Latest returns the most recent observation, or false if the series is empty.
func (s *EconomicSeries) Latest() (Observation, bool) {
	if s == nil || len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// TrimBefore returns a copy of the series keeping only observations
// strictly before cutoff. Used during backfill to reconstruct what the
// series looked like "as of" a historical date.
func (s *EconomicSeries) TrimBefore(cutoff time.Time) *EconomicSeries {
	if s == nil {
		return nil
	}
	trimmed := &EconomicSeries{
		SeriesID:  s.SeriesID,
		Label:     s.Label,
		Unit:      s.Unit,
		Frequency: s.Frequency,
		Source:    s.Source,
	}
	for _, o := range s.Observations {
		if o.Date.Before(cutoff) {
			trimmed.Observations = append(trimmed.Observations, o)
		}
	}
	return trimmed
}

// PctChange computes period-over-period percent change. The returned
// observations carry the change value dated at the later observation.
// Zero-valued base observations are skipped.
func (s *EconomicSeries) PctChange(periods int) []Observation {
	if s == nil || periods <= 0 || len(s.Observations) <= periods {
		return nil
	}
	changes := make([]Observation, 0, len(s.Observations)-periods)
	for i := periods; i < len(s.Observations); i++ {
		prev := s.Observations[i-periods].Value
		if prev == 0 {
			continue
		}
		curr := s.Observations[i].Value
		changes = append(changes, Observation{
			Date:  s.Observations[i].Date,
			Value: (curr - prev) / abs(prev) * 100,
		})
	}
	return changes
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// BankStats summarizes FDIC banking-system health indicators.
type BankStats struct {
	TotalInstitutions   int
	ProblemInstitutions int
	RecentFailures      int // failures in the last 12 months
	AsOf                time.Time
}
