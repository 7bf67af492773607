// Package insight derives change reports and alert conditions from
// stored snapshot history. It only reads the store; it never fetches or
// recomputes scores.
package insight

import (
	"fmt"
	"time"

	"EconSentinel/internal/model"
	"EconSentinel/internal/scoring"
	"EconSentinel/internal/store"
)

// Detection thresholds.
const (
	SignificantDelta = 0.10 // minimum score move reported as a change
	ScoreAlertLevel  = 0.5  // signal score boundary that triggers alerts
	RecessionShift   = 0.10 // composite probability jump that triggers an alert
)

// Alert kinds.
const (
	AlertScoreCrossing  = "score_crossing"
	AlertCurveCrossing  = "curve_crossing"
	AlertTrendReversal  = "trend_reversal"
	AlertRecessionShift = "recession_shift"
)

// Change directions.
const (
	DirectionRising  = "rising"
	DirectionFalling = "falling"
)

// Change is one significant score move for a signal: its latest
// snapshot against the snapshot nearest the lookback boundary.
type Change struct {
	Signal    string
	From      float64
	To        float64
	Delta     float64 // signed, To - From
	Direction string
	FromDate  time.Time
	ToDate    time.Time
}

// Alert is one triggered alert condition. Signal is empty for alerts
// derived from the composite recession history.
type Alert struct {
	Kind    string
	Signal  string
	Message string
	AsOf    time.Time
}

// Evaluator detects changes and alerts over stored history.
type Evaluator struct {
	Store store.Store
}

// NewEvaluator creates an evaluator over the given store.
func NewEvaluator(st store.Store) *Evaluator {
	return &Evaluator{Store: st}
}

// Changes reports, per registered signal, the move between the latest
// snapshot and the oldest snapshot in the lookback window. Only moves
// of at least SignificantDelta are reported; signals with fewer than
// two snapshots in the window are skipped.
func (e *Evaluator) Changes(since time.Time) ([]Change, error) {
	var changes []Change
	for _, name := range scoring.SignalNames() {
		history, err := e.Store.SignalHistory(name, since)
		if err != nil {
			return nil, fmt.Errorf("changes for %s: %w", name, err)
		}
		if len(history) < 2 {
			continue
		}
		prev, curr := history[0], history[len(history)-1]
		delta := curr.Score - prev.Score
		if delta < SignificantDelta && delta > -SignificantDelta {
			continue
		}
		direction := DirectionRising
		if delta < 0 {
			direction = DirectionFalling
		}
		changes = append(changes, Change{
			Signal:    name,
			From:      prev.Score,
			To:        curr.Score,
			Delta:     delta,
			Direction: direction,
			FromDate:  prev.DataAsOf,
			ToDate:    curr.DataAsOf,
		})
	}
	return changes, nil
}

// Alerts evaluates all alert conditions over the lookback window. Each
// condition fires at the snapshot pair where it occurs, so a boundary
// crossed once produces one alert no matter how long the level persists
// afterwards.
func (e *Evaluator) Alerts(since time.Time) ([]Alert, error) {
	var alerts []Alert

	for _, name := range scoring.SignalNames() {
		history, err := e.Store.SignalHistory(name, since)
		if err != nil {
			return nil, fmt.Errorf("alerts for %s: %w", name, err)
		}
		alerts = append(alerts, scoreCrossings(name, history)...)
		alerts = append(alerts, signalTrendReversals(name, history)...)
	}

	recessions, err := e.Store.RecessionHistory(since)
	if err != nil {
		return nil, fmt.Errorf("alerts: %w", err)
	}
	alerts = append(alerts, curveCrossings(recessions)...)
	alerts = append(alerts, recessionTrendReversals(recessions)...)
	alerts = append(alerts, recessionShifts(recessions)...)

	return alerts, nil
}

// scoreCrossings fires when a signal score crosses ScoreAlertLevel in
// either direction between consecutive snapshots.
func scoreCrossings(name string, history []model.ScoredSignal) []Alert {
	var alerts []Alert
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1], history[i]
		switch {
		case prev.Score < ScoreAlertLevel && curr.Score >= ScoreAlertLevel:
			alerts = append(alerts, Alert{
				Kind:   AlertScoreCrossing,
				Signal: name,
				Message: fmt.Sprintf("%s score rose above %.2f (%.2f -> %.2f)",
					name, ScoreAlertLevel, prev.Score, curr.Score),
				AsOf: curr.DataAsOf,
			})
		case prev.Score >= ScoreAlertLevel && curr.Score < ScoreAlertLevel:
			alerts = append(alerts, Alert{
				Kind:   AlertScoreCrossing,
				Signal: name,
				Message: fmt.Sprintf("%s score fell below %.2f (%.2f -> %.2f)",
					name, ScoreAlertLevel, prev.Score, curr.Score),
				AsOf: curr.DataAsOf,
			})
		}
	}
	return alerts
}

// curveCrossings fires when the 10Y-2Y spread crosses zero. A spread
// that stays negative after inverting does not fire again.
func curveCrossings(history []model.RecessionSnapshot) []Alert {
	var alerts []Alert
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1], history[i]
		switch {
		case prev.Spread >= 0 && curr.Spread < 0:
			alerts = append(alerts, Alert{
				Kind: AlertCurveCrossing,
				Message: fmt.Sprintf("yield curve inverted: spread %.2f -> %.2f",
					prev.Spread, curr.Spread),
				AsOf: curr.DataAsOf,
			})
		case prev.Spread < 0 && curr.Spread >= 0:
			alerts = append(alerts, Alert{
				Kind: AlertCurveCrossing,
				Message: fmt.Sprintf("yield curve un-inverted: spread %.2f -> %.2f",
					prev.Spread, curr.Spread),
				AsOf: curr.DataAsOf,
			})
		}
	}
	return alerts
}

// reversal marks where a run of three same-direction snapshots breaks.
type reversal struct {
	from, to float64
	asOf     time.Time
	rising   bool // direction of the broken streak
}

// findReversals scans for three consecutive moves in one direction
// followed by a move the other way. values and dates run in parallel.
func findReversals(values []float64, dates []time.Time) []reversal {
	var out []reversal
	for i := 3; i < len(values); i++ {
		d1 := values[i-2] - values[i-3]
		d2 := values[i-1] - values[i-2]
		d3 := values[i] - values[i-1]
		switch {
		case d1 > 0 && d2 > 0 && d3 < 0:
			out = append(out, reversal{values[i-1], values[i], dates[i], true})
		case d1 < 0 && d2 < 0 && d3 > 0:
			out = append(out, reversal{values[i-1], values[i], dates[i], false})
		}
	}
	return out
}

// signalTrendReversals fires when one signal's score streak breaks.
func signalTrendReversals(name string, history []model.ScoredSignal) []Alert {
	values := make([]float64, len(history))
	dates := make([]time.Time, len(history))
	for i, sig := range history {
		values[i] = sig.Score
		dates[i] = sig.DataAsOf
	}

	var alerts []Alert
	for _, r := range findReversals(values, dates) {
		streak := "falling"
		if r.rising {
			streak = "rising"
		}
		alerts = append(alerts, Alert{
			Kind:   AlertTrendReversal,
			Signal: name,
			Message: fmt.Sprintf("%s reversed after %s streak (%.2f -> %.2f)",
				name, streak, r.from, r.to),
			AsOf: r.asOf,
		})
	}
	return alerts
}

// recessionTrendReversals fires when the composite probability streak
// breaks.
func recessionTrendReversals(history []model.RecessionSnapshot) []Alert {
	values := make([]float64, len(history))
	dates := make([]time.Time, len(history))
	for i, snap := range history {
		values[i] = snap.Probability
		dates[i] = snap.DataAsOf
	}

	var alerts []Alert
	for _, r := range findReversals(values, dates) {
		streak := "falling"
		if r.rising {
			streak = "rising"
		}
		alerts = append(alerts, Alert{
			Kind: AlertTrendReversal,
			Message: fmt.Sprintf("recession probability reversed after %s streak (%.2f -> %.2f)",
				streak, r.from, r.to),
			AsOf: r.asOf,
		})
	}
	return alerts
}

// recessionShifts fires on a composite probability jump larger than
// RecessionShift between consecutive snapshots.
func recessionShifts(history []model.RecessionSnapshot) []Alert {
	var alerts []Alert
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1], history[i]
		delta := curr.Probability - prev.Probability
		if delta <= RecessionShift && delta >= -RecessionShift {
			continue
		}
		alerts = append(alerts, Alert{
			Kind: AlertRecessionShift,
			Message: fmt.Sprintf("recession probability moved %.2f -> %.2f (%s)",
				prev.Probability, curr.Probability, curr.Assessment),
			AsOf: curr.DataAsOf,
		})
	}
	return alerts
}
