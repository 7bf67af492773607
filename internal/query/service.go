// Package query is the read-side API over stored snapshots. Every
// result type has fixed fields so callers (commands, formatters) never
// see raw store rows.
package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"EconSentinel/internal/insight"
	"EconSentinel/internal/model"
	"EconSentinel/internal/provider"
	"EconSentinel/internal/scoring"
	"EconSentinel/internal/store"
)

// Sentinel errors surfaced to callers.
var (
	ErrNoData      = errors.New("no data available for this period")
	ErrUnavailable = errors.New("temporarily unavailable")
)

// DefaultPeriod bounds history queries when the caller gives none.
const DefaultPeriod = "1y"

// SignalRecord is one signal snapshot as presented to callers.
type SignalRecord struct {
	Name     string
	Score    float64
	Summary  string
	Tags     []string
	DataAsOf time.Time
}

// RecessionRecord is one composite snapshot as presented to callers.
type RecessionRecord struct {
	Probability float64
	Assessment  string
	Spread      float64
	Trend       string
	SignalCount int
	DataAsOf    time.Time
}

// RateRecord is one average Treasury interest rate observation.
type RateRecord struct {
	Security string
	Date     time.Time
	Rate     float64
}

// GDPRecord is one real GDP observation with its growth against the
// prior observation where one exists.
type GDPRecord struct {
	Date      time.Time
	Value     float64
	GrowthPct float64
}

// ComparisonRecord summarizes how two signals moved together over the
// snapshots they share.
type ComparisonRecord struct {
	SignalA     string
	SignalB     string
	Correlation float64
	Points      int
}

// Service answers read queries against the store, the evaluator, and
// the live series endpoints.
type Service struct {
	Store     store.Store
	Evaluator *insight.Evaluator
	Treasury  provider.SeriesFetcher
	FRED      provider.SeriesFetcher
}

// NewService creates a query service.
func NewService(st store.Store, ev *insight.Evaluator, treasury, fred provider.SeriesFetcher) *Service {
	return &Service{Store: st, Evaluator: ev, Treasury: treasury, FRED: fred}
}

// LatestSignals returns the most recent snapshot of every registered
// signal. Signals with no stored history are omitted; an empty store
// yields ErrNoData.
func (s *Service) LatestSignals() ([]SignalRecord, error) {
	var records []SignalRecord
	for _, name := range scoring.SignalNames() {
		sig, err := s.Store.LatestSignal(name)
		if err != nil {
			return nil, fmt.Errorf("latest %s: %w", name, ErrUnavailable)
		}
		if sig == nil {
			continue
		}
		records = append(records, toSignalRecord(sig))
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// SignalHistory returns snapshots of one signal over a period like
// "5y", "12m", or "30d", ascending by date.
func (s *Service) SignalHistory(name, period string) ([]SignalRecord, error) {
	since, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	history, err := s.Store.SignalHistory(name, since)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", name, ErrUnavailable)
	}
	if len(history) == 0 {
		return nil, ErrNoData
	}
	records := make([]SignalRecord, len(history))
	for i := range history {
		records[i] = toSignalRecord(&history[i])
	}
	return records, nil
}

// LatestRecession returns the most recent composite snapshot.
func (s *Service) LatestRecession() (*RecessionRecord, error) {
	snap, err := s.Store.LatestRecession()
	if err != nil {
		return nil, fmt.Errorf("latest recession: %w", ErrUnavailable)
	}
	if snap == nil {
		return nil, ErrNoData
	}
	r := toRecessionRecord(snap)
	return &r, nil
}

// RecessionHistory returns composite snapshots over a period,
// ascending by date.
func (s *Service) RecessionHistory(period string) ([]RecessionRecord, error) {
	since, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	history, err := s.Store.RecessionHistory(since)
	if err != nil {
		return nil, fmt.Errorf("recession history: %w", ErrUnavailable)
	}
	if len(history) == 0 {
		return nil, ErrNoData
	}
	records := make([]RecessionRecord, len(history))
	for i := range history {
		records[i] = toRecessionRecord(&history[i])
	}
	return records, nil
}

// Changes returns significant score moves over a period.
func (s *Service) Changes(period string) ([]insight.Change, error) {
	since, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	changes, err := s.Evaluator.Changes(since)
	if err != nil {
		return nil, fmt.Errorf("changes: %w", ErrUnavailable)
	}
	return changes, nil
}

// Alerts returns triggered alert conditions over a period.
func (s *Service) Alerts(period string) ([]insight.Alert, error) {
	since, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	alerts, err := s.Evaluator.Alerts(since)
	if err != nil {
		return nil, fmt.Errorf("alerts: %w", ErrUnavailable)
	}
	return alerts, nil
}

// TreasuryRates fetches average interest rates for marketable Treasury
// securities over a period, live from the FiscalData API.
func (s *Service) TreasuryRates(ctx context.Context, security, period string) ([]RateRecord, error) {
	since, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	series, err := s.Treasury.FetchSeries(ctx, security, since, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("treasury rates %s: %w", security, ErrUnavailable)
	}
	if len(series.Observations) == 0 {
		return nil, ErrNoData
	}
	records := make([]RateRecord, len(series.Observations))
	for i, obs := range series.Observations {
		records[i] = RateRecord{Security: series.Label, Date: obs.Date, Rate: obs.Value}
	}
	return records, nil
}

// gdpSeriesID is real GDP in chained dollars, quarterly.
const gdpSeriesID = "GDPC1"

// GDP fetches real GDP over a period, live from FRED, annotating each
// observation with its quarter-over-quarter growth.
func (s *Service) GDP(ctx context.Context, period string) ([]GDPRecord, error) {
	since, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	series, err := s.FRED.FetchSeries(ctx, gdpSeriesID, since, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("gdp: %w", ErrUnavailable)
	}
	if len(series.Observations) == 0 {
		return nil, ErrNoData
	}
	records := make([]GDPRecord, len(series.Observations))
	for i, obs := range series.Observations {
		records[i] = GDPRecord{Date: obs.Date, Value: obs.Value}
		if i > 0 && series.Observations[i-1].Value != 0 {
			prev := series.Observations[i-1].Value
			records[i].GrowthPct = (obs.Value - prev) / prev * 100
		}
	}
	return records, nil
}

// Compare computes the Pearson correlation between two signals' score
// histories over a period. Snapshots are matched by data date; fewer
// than two shared dates yields ErrNoData.
func (s *Service) Compare(signalA, signalB, period string) (*ComparisonRecord, error) {
	since, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	histA, err := s.Store.SignalHistory(signalA, since)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", signalA, ErrUnavailable)
	}
	histB, err := s.Store.SignalHistory(signalB, since)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", signalB, ErrUnavailable)
	}

	byDate := make(map[string]float64, len(histB))
	for _, sig := range histB {
		byDate[sig.DataAsOf.Format("2006-01-02")] = sig.Score
	}
	var xs, ys []float64
	for _, sig := range histA {
		if score, ok := byDate[sig.DataAsOf.Format("2006-01-02")]; ok {
			xs = append(xs, sig.Score)
			ys = append(ys, score)
		}
	}
	if len(xs) < 2 {
		return nil, ErrNoData
	}
	return &ComparisonRecord{
		SignalA:     signalA,
		SignalB:     signalB,
		Correlation: pearson(xs, ys),
		Points:      len(xs),
	}, nil
}

// pearson returns the correlation coefficient of two equal-length
// samples, or 0 when either side has no variance.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// ParsePeriod converts a lookback period like "5y", "12m", or "30d"
// into the start time of the window, relative to now.
func ParsePeriod(period string) (time.Time, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = DefaultPeriod
	}
	if len(period) < 2 {
		return time.Time{}, fmt.Errorf("invalid period %q (want forms like 5y, 12m, 30d)", period)
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q (want forms like 5y, 12m, 30d)", period)
	}
	now := time.Now().UTC()
	switch period[len(period)-1] {
	case 'y':
		return now.AddDate(-n, 0, 0), nil
	case 'm':
		return now.AddDate(0, -n, 0), nil
	case 'd':
		return now.AddDate(0, 0, -n), nil
	default:
		return time.Time{}, fmt.Errorf("invalid period %q (want forms like 5y, 12m, 30d)", period)
	}
}

func toSignalRecord(sig *model.ScoredSignal) SignalRecord {
	return SignalRecord{
		Name:     sig.Name,
		Score:    sig.Score,
		Summary:  sig.Summary,
		Tags:     sig.Tags,
		DataAsOf: sig.DataAsOf,
	}
}

func toRecessionRecord(snap *model.RecessionSnapshot) RecessionRecord {
	return RecessionRecord{
		Probability: snap.Probability,
		Assessment:  snap.Assessment,
		Spread:      snap.Spread,
		Trend:       snap.Trend,
		SignalCount: snap.SignalCount,
		DataAsOf:    snap.DataAsOf,
	}
}
