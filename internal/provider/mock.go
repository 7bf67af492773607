package provider

import (
	"context"
	"time"

	"EconSentinel/internal/model"
)

// MockSeriesFetcher returns controllable fixed data for development and
// testing. Err, when set, fails every fetch. Series are keyed by series
// ID; unknown IDs get a generated monthly ramp.
type MockSeriesFetcher struct {
	Series map[string]*model.EconomicSeries
	Err    error
	Calls  []string // series IDs fetched, in order
}

func (m *MockSeriesFetcher) Name() string { return "mock" }

func (m *MockSeriesFetcher) FetchSeries(_ context.Context, seriesID string, start, end time.Time) (*model.EconomicSeries, error) {
	m.Calls = append(m.Calls, seriesID)
	if m.Err != nil {
		return nil, m.Err
	}
	if s, ok := m.Series[seriesID]; ok {
		return s.TrimBefore(end.AddDate(0, 0, 1)), nil
	}
	return GenerateMonthlySeries(seriesID, 1.0, 0.01, start, end), nil
}

// MockBankFetcher returns fixed bank stats for testing.
type MockBankFetcher struct {
	Stats *model.BankStats
	Err   error
}

func (m *MockBankFetcher) Name() string { return "mock" }

func (m *MockBankFetcher) FetchBankStats(context.Context) (*model.BankStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Stats, nil
}

// GenerateMonthlySeries builds a monthly series ramping linearly from
// base by step per month, first-of-month dates between start and end.
func GenerateMonthlySeries(seriesID string, base, step float64, start, end time.Time) *model.EconomicSeries {
	series := &model.EconomicSeries{
		SeriesID:  seriesID,
		Label:     seriesID,
		Frequency: "monthly",
		Source:    model.SourceFRED,
	}
	d := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; !d.After(end); i++ {
		if !d.Before(start) {
			series.Observations = append(series.Observations, model.Observation{
				Date:  d,
				Value: base + float64(i)*step,
			})
		}
		d = d.AddDate(0, 1, 0)
	}
	return series
}
