package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"EconSentinel/internal/model"
)

const (
	blsAPIBaseV2 = "https://api.bls.gov/publicAPI/v2/timeseries/data/"
	blsAPIBaseV1 = "https://api.bls.gov/publicAPI/v1/timeseries/data/"
)

var blsCatalog = map[string]struct {
	Label string
	Unit  string
}{
	"CUSR0000SA0":    {"CPI-U All Items (Seasonally Adjusted)", "Index 1982-84=100"},
	"CUSR0000SA0L1E": {"CPI-U Less Food and Energy (Core, SA)", "Index 1982-84=100"},
	"LNS14000000":    {"Unemployment Rate (Seasonally Adjusted)", "Percent"},
}

// BLSFetcher implements SeriesFetcher against the Bureau of Labor
// Statistics timeseries API. With an API key the v2 endpoint is used
// (500 req/day); without one it falls back to v1 (25 req/day).
type BLSFetcher struct {
	APIKey string
	Client *http.Client
}

// NewBLSFetcher creates a fetcher with optional proxy support.
func NewBLSFetcher(apiKey, proxyURL string) *BLSFetcher {
	return &BLSFetcher{
		APIKey: apiKey,
		Client: newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *BLSFetcher) Name() string { return "bls" }

type blsResponse struct {
	Status  string `json:"status"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year   string `json:"year"`
				Period string `json:"period"`
				Value  string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

func (f *BLSFetcher) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) (*model.EconomicSeries, error) {
	payload := map[string]any{
		"seriesid":  []string{seriesID},
		"startyear": strconv.Itoa(start.Year()),
		"endyear":   strconv.Itoa(end.Year()),
	}
	apiURL := blsAPIBaseV1
	if f.APIKey != "" {
		payload["registrationkey"] = f.APIKey
		apiURL = blsAPIBaseV2
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: statusErr(resp.StatusCode)}
	}

	var payload2 blsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload2); err != nil {
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: fmt.Errorf("decode: %w", err)}
	}
	if payload2.Status != "REQUEST_SUCCEEDED" {
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: fmt.Errorf("api status %q", payload2.Status)}
	}
	if len(payload2.Results.Series) == 0 {
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: ErrNotFound}
	}

	series := &model.EconomicSeries{
		SeriesID:  seriesID,
		Source:    model.SourceBLS,
		Frequency: "monthly",
	}
	if meta, ok := blsCatalog[seriesID]; ok {
		series.Label = meta.Label
		series.Unit = meta.Unit
	} else {
		series.Label = seriesID
	}

	// BLS returns newest-first; collect monthly observations then reverse.
	raw := payload2.Results.Series[0].Data
	for i := len(raw) - 1; i >= 0; i-- {
		obs := raw[i]
		if !strings.HasPrefix(obs.Period, "M") {
			continue // skip annual/semiannual aggregates
		}
		month, err := strconv.Atoi(strings.TrimPrefix(obs.Period, "M"))
		if err != nil || month < 1 || month > 12 {
			continue
		}
		year, err := strconv.Atoi(obs.Year)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		d := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if d.Before(start) || d.After(end) {
			continue
		}
		series.Observations = append(series.Observations, model.Observation{Date: d, Value: v})
	}

	if len(series.Observations) == 0 {
		return nil, &Error{Source: model.SourceBLS, SeriesID: seriesID, Err: fmt.Errorf("no observations returned")}
	}
	return series, nil
}
