package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"EconSentinel/internal/model"
)

const fredAPIBase = "https://api.stlouisfed.org/fred"

// fredCatalog maps well-known FRED series to their metadata so fetches
// don't need a second metadata round trip.
var fredCatalog = map[string]struct {
	Label     string
	Unit      string
	Frequency string
}{
	"T10Y2Y":       {"10-Year Treasury Minus 2-Year Treasury", "Percent", "daily"},
	"DGS10":        {"10-Year Treasury Constant Maturity Rate", "Percent", "daily"},
	"DGS2":         {"2-Year Treasury Constant Maturity Rate", "Percent", "daily"},
	"UNRATE":       {"Unemployment Rate", "Percent", "monthly"},
	"CPIAUCSL":     {"Consumer Price Index (All Urban Consumers)", "Index 1982-1984=100", "monthly"},
	"CPILFESL":     {"Core CPI (Less Food and Energy)", "Index 1982-1984=100", "monthly"},
	"MSPUS":        {"Median Sales Price of Houses Sold", "Dollars", "quarterly"},
	"MORTGAGE30US": {"30-Year Fixed Rate Mortgage Average", "Percent", "weekly"},
	"AHETPI":       {"Average Hourly Earnings (Private)", "Dollars per Hour", "monthly"},
	"GDPC1":        {"Real Gross Domestic Product", "Billions of Chained 2017 Dollars", "quarterly"},
}

// FREDFetcher implements SeriesFetcher against the St. Louis Fed FRED API.
// Rate limit: 120 requests/minute with an API key.
type FREDFetcher struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewFREDFetcher creates a fetcher with optional proxy support.
func NewFREDFetcher(apiKey, proxyURL string) *FREDFetcher {
	return &FREDFetcher{
		APIKey:  apiKey,
		BaseURL: fredAPIBase,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *FREDFetcher) Name() string { return "fred" }

// fredResponse is the observations payload from FRED.
type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

func (f *FREDFetcher) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) (*model.EconomicSeries, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", f.APIKey)
	params.Set("file_type", "json")
	params.Set("observation_start", start.Format("2006-01-02"))
	params.Set("observation_end", end.Format("2006-01-02"))
	params.Set("sort_order", "asc")

	endpoint := fmt.Sprintf("%s/series/observations?%s", f.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Source: model.SourceFRED, SeriesID: seriesID, Err: err}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &Error{Source: model.SourceFRED, SeriesID: seriesID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Source: model.SourceFRED, SeriesID: seriesID, Err: statusErr(resp.StatusCode)}
	}

	var payload fredResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Source: model.SourceFRED, SeriesID: seriesID, Err: fmt.Errorf("decode: %w", err)}
	}

	series := &model.EconomicSeries{
		SeriesID: seriesID,
		Source:   model.SourceFRED,
	}
	if meta, ok := fredCatalog[seriesID]; ok {
		series.Label = meta.Label
		series.Unit = meta.Unit
		series.Frequency = meta.Frequency
	} else {
		series.Label = seriesID
	}

	for _, obs := range payload.Observations {
		// FRED reports missing values as "."
		if obs.Value == "." {
			continue
		}
		var v float64
		if _, err := fmt.Sscanf(obs.Value, "%f", &v); err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		series.Observations = append(series.Observations, model.Observation{Date: d, Value: v})
	}

	if len(series.Observations) == 0 {
		return nil, &Error{Source: model.SourceFRED, SeriesID: seriesID, Err: fmt.Errorf("no observations returned")}
	}
	return series, nil
}
