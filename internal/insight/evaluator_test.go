package insight

import (
	"path/filepath"
	"testing"
	"time"

	"EconSentinel/internal/model"
	"EconSentinel/internal/store"
)

func newTestEvaluator(t *testing.T) (*Evaluator, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewEvaluator(st), st
}

func seedSignal(t *testing.T, st store.Store, name string, scores ...float64) {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range scores {
		err := st.RecordSignal(&model.ScoredSignal{
			Name:     name,
			Score:    score,
			DataAsOf: start.AddDate(0, i, 0),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func seedRecession(t *testing.T, st store.Store, snaps ...model.RecessionSnapshot) {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range snaps {
		snaps[i].DataAsOf = start.AddDate(0, i, 0)
		if err := st.RecordRecession(&snaps[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestChanges_LatestAgainstWindowStart(t *testing.T) {
	ev, st := newTestEvaluator(t)
	// Each step is +0.12/+0.13, but the report compares the endpoints:
	// one change of +0.25 for the whole window.
	seedSignal(t, st, model.SignalBankStress, 0.30, 0.42, 0.55)
	seedSignal(t, st, model.SignalYieldCurve, 0.50, 0.55, 0.58) // net move below threshold

	changes, err := ev.Changes(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(changes), changes)
	}
	c := changes[0]
	if c.Signal != model.SignalBankStress {
		t.Errorf("unexpected signal in changes: %s", c.Signal)
	}
	if c.From != 0.30 || c.To != 0.55 {
		t.Errorf("expected endpoints 0.30 -> 0.55, got %+v", c)
	}
	if c.Delta < 0.249 || c.Delta > 0.251 {
		t.Errorf("expected delta +0.25, got %.4f", c.Delta)
	}
	if c.Direction != DirectionRising {
		t.Errorf("expected rising direction, got %s", c.Direction)
	}
	if !c.FromDate.Before(c.ToDate) {
		t.Errorf("FromDate %v not before ToDate %v", c.FromDate, c.ToDate)
	}
}

func TestChanges_NetMoveCancelsOut(t *testing.T) {
	ev, st := newTestEvaluator(t)
	// Big swings inside the window but the endpoints nearly match, so
	// nothing is reported.
	seedSignal(t, st, model.SignalJobsInflation, 0.30, 0.60, 0.20, 0.32)

	changes, err := ev.Changes(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes for a round trip, got %+v", changes)
	}
}

func TestChanges_FallingMove(t *testing.T) {
	ev, st := newTestEvaluator(t)
	seedSignal(t, st, model.SignalHousing, 0.70, 0.55)

	changes, err := ev.Changes(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Direction != DirectionFalling {
		t.Errorf("expected falling, got %s", changes[0].Direction)
	}
	if changes[0].Delta >= 0 {
		t.Errorf("expected negative delta, got %.2f", changes[0].Delta)
	}
}

func TestChanges_ExactThresholdCounts(t *testing.T) {
	ev, st := newTestEvaluator(t)
	seedSignal(t, st, model.SignalJobsInflation, 0.30, 0.40) // delta exactly 0.10

	changes, err := ev.Changes(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("a move of exactly the threshold must count, got %d changes", len(changes))
	}
}

func TestAlerts_ScoreCrossing(t *testing.T) {
	ev, st := newTestEvaluator(t)
	// Crosses up once, stays high, then crosses back down.
	seedSignal(t, st, model.SignalBankStress, 0.42, 0.55, 0.60, 0.45)

	alerts, err := ev.Alerts(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	var crossings []Alert
	for _, a := range alerts {
		if a.Kind == AlertScoreCrossing {
			crossings = append(crossings, a)
		}
	}
	if len(crossings) != 2 {
		t.Fatalf("expected 2 crossings (up then down), got %d: %+v", len(crossings), crossings)
	}
	if crossings[0].Signal != model.SignalBankStress {
		t.Errorf("wrong signal: %s", crossings[0].Signal)
	}
}

func TestAlerts_CurveCrossingFiresOnce(t *testing.T) {
	ev, st := newTestEvaluator(t)
	// Spread inverts once and stays negative; only the crossing fires.
	seedRecession(t, st,
		model.RecessionSnapshot{Probability: 0.30, Spread: 0.10},
		model.RecessionSnapshot{Probability: 0.32, Spread: -0.05},
		model.RecessionSnapshot{Probability: 0.33, Spread: -0.07},
	)

	alerts, err := ev.Alerts(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	var crossings []Alert
	for _, a := range alerts {
		if a.Kind == AlertCurveCrossing {
			crossings = append(crossings, a)
		}
	}
	if len(crossings) != 1 {
		t.Fatalf("expected exactly 1 curve crossing, got %d: %+v", len(crossings), crossings)
	}
}

func TestAlerts_SignalTrendReversal(t *testing.T) {
	ev, st := newTestEvaluator(t)
	// Two rising months then a fall breaks the streak.
	seedSignal(t, st, model.SignalHousing, 0.20, 0.28, 0.36, 0.31)

	alerts, err := ev.Alerts(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	var reversals []Alert
	for _, a := range alerts {
		if a.Kind == AlertTrendReversal {
			reversals = append(reversals, a)
		}
	}
	if len(reversals) != 1 {
		t.Fatalf("expected 1 trend reversal, got %d: %+v", len(reversals), reversals)
	}
	if reversals[0].Signal != model.SignalHousing {
		t.Errorf("expected signal %q on the alert, got %q", model.SignalHousing, reversals[0].Signal)
	}
}

func TestAlerts_MonotoneSignalHasNoReversal(t *testing.T) {
	ev, st := newTestEvaluator(t)
	seedSignal(t, st, model.SignalHousing, 0.20, 0.28, 0.36, 0.44)

	alerts, err := ev.Alerts(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range alerts {
		if a.Kind == AlertTrendReversal {
			t.Fatalf("unexpected reversal for a monotone series: %+v", a)
		}
	}
}

func TestAlerts_RecessionTrendReversal(t *testing.T) {
	ev, st := newTestEvaluator(t)
	seedRecession(t, st,
		model.RecessionSnapshot{Probability: 0.30, Spread: 0.5},
		model.RecessionSnapshot{Probability: 0.38, Spread: 0.5},
		model.RecessionSnapshot{Probability: 0.46, Spread: 0.5},
		model.RecessionSnapshot{Probability: 0.41, Spread: 0.5},
	)

	alerts, err := ev.Alerts(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	var reversals []Alert
	for _, a := range alerts {
		if a.Kind == AlertTrendReversal {
			reversals = append(reversals, a)
		}
	}
	if len(reversals) != 1 {
		t.Fatalf("expected 1 trend reversal, got %d: %+v", len(reversals), reversals)
	}
}

func TestAlerts_RecessionShift(t *testing.T) {
	ev, st := newTestEvaluator(t)
	seedRecession(t, st,
		model.RecessionSnapshot{Probability: 0.30, Spread: 0.5, Assessment: model.AssessmentModerate},
		model.RecessionSnapshot{Probability: 0.45, Spread: 0.5, Assessment: model.AssessmentElevated},
		model.RecessionSnapshot{Probability: 0.50, Spread: 0.5, Assessment: model.AssessmentElevated},
	)

	alerts, err := ev.Alerts(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	var shifts []Alert
	for _, a := range alerts {
		if a.Kind == AlertRecessionShift {
			shifts = append(shifts, a)
		}
	}
	// 0.30 -> 0.45 exceeds the threshold; 0.45 -> 0.50 does not.
	if len(shifts) != 1 {
		t.Fatalf("expected 1 shift alert, got %d: %+v", len(shifts), shifts)
	}
}

func TestAlerts_EmptyStore(t *testing.T) {
	ev, _ := newTestEvaluator(t)
	alerts, err := ev.Alerts(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts on empty store, got %+v", alerts)
	}
}
