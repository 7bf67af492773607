package model

import (
	"testing"
	"time"
)

func seriesOf(values ...float64) *EconomicSeries {
	s := &EconomicSeries{SeriesID: "TEST"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		s.Observations = append(s.Observations, Observation{
			Date:  start.AddDate(0, i, 0),
			Value: v,
		})
	}
	return s
}

func TestLatest(t *testing.T) {
	s := seriesOf(1, 2, 3)
	obs, ok := s.Latest()
	if !ok || obs.Value != 3 {
		t.Fatalf("expected latest value 3, got %+v ok=%v", obs, ok)
	}

	if _, ok := (&EconomicSeries{}).Latest(); ok {
		t.Fatal("empty series should report no latest")
	}
	var nilSeries *EconomicSeries
	if _, ok := nilSeries.Latest(); ok {
		t.Fatal("nil series should report no latest")
	}
}

func TestTrimBefore(t *testing.T) {
	s := seriesOf(1, 2, 3, 4)
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	trimmed := s.TrimBefore(cutoff)
	if len(trimmed.Observations) != 2 {
		t.Fatalf("expected 2 observations strictly before cutoff, got %d", len(trimmed.Observations))
	}
	if trimmed.Observations[1].Value != 2 {
		t.Errorf("wrong last value: %+v", trimmed.Observations[1])
	}
	// Original untouched.
	if len(s.Observations) != 4 {
		t.Errorf("trim mutated the source series")
	}
	if trimmed.SeriesID != s.SeriesID {
		t.Errorf("metadata not carried over")
	}
}

func TestPctChange(t *testing.T) {
	s := seriesOf(100, 110, 99)
	changes := s.PctChange(1)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Value != 10 {
		t.Errorf("expected +10%%, got %.2f", changes[0].Value)
	}
	if changes[1].Value != -10 {
		t.Errorf("expected -10%%, got %.2f", changes[1].Value)
	}
	if !changes[0].Date.Equal(s.Observations[1].Date) {
		t.Errorf("change dated at the wrong observation")
	}
}

func TestPctChange_Degenerate(t *testing.T) {
	if got := seriesOf(100).PctChange(1); got != nil {
		t.Errorf("single observation: expected nil, got %+v", got)
	}
	if got := seriesOf(100, 110).PctChange(0); got != nil {
		t.Errorf("zero periods: expected nil, got %+v", got)
	}
	// Zero base observations are skipped, not divided by.
	changes := seriesOf(0, 50, 100).PctChange(1)
	if len(changes) != 1 {
		t.Fatalf("expected zero-base pair skipped, got %d changes", len(changes))
	}
	if changes[0].Value != 100 {
		t.Errorf("expected +100%%, got %.2f", changes[0].Value)
	}
}

func TestHasTag(t *testing.T) {
	sig := &ScoredSignal{Tags: []string{TagInverted}}
	if !sig.HasTag(TagInverted) {
		t.Error("expected tag present")
	}
	if sig.HasTag(TagStrained) {
		t.Error("unexpected tag")
	}
}
