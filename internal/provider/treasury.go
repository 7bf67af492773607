package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"EconSentinel/internal/model"
)

const treasuryAPIBase = "https://api.fiscaldata.treasury.gov/services/api/fiscal_service"

// Treasury series IDs map to security descriptions in the FiscalData
// average interest rates dataset.
var treasurySecurities = map[string]string{
	"treasury_bills": "Treasury Bills",
	"treasury_notes": "Treasury Notes",
	"treasury_bonds": "Treasury Bonds",
}

// TreasuryFetcher implements SeriesFetcher against the Treasury
// FiscalData API (no authentication required).
type TreasuryFetcher struct {
	Client *http.Client
}

// NewTreasuryFetcher creates a fetcher with optional proxy support.
func NewTreasuryFetcher(proxyURL string) *TreasuryFetcher {
	return &TreasuryFetcher{Client: newHTTPClient(proxyURL, 30*time.Second)}
}

func (f *TreasuryFetcher) Name() string { return "treasury" }

type treasuryResponse struct {
	Data []struct {
		RecordDate   string `json:"record_date"`
		SecurityDesc string `json:"security_desc"`
		AvgRate      string `json:"avg_interest_rate_amt"`
	} `json:"data"`
}

func (f *TreasuryFetcher) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) (*model.EconomicSeries, error) {
	desc, ok := treasurySecurities[seriesID]
	if !ok {
		return nil, &Error{Source: model.SourceTreasury, SeriesID: seriesID, Err: ErrNotFound}
	}

	params := url.Values{}
	params.Set("fields", "record_date,security_desc,avg_interest_rate_amt")
	params.Set("filter", fmt.Sprintf("record_date:gte:%s,record_date:lte:%s",
		start.Format("2006-01-02"), end.Format("2006-01-02")))
	params.Set("sort", "record_date")
	params.Set("page[size]", "10000")

	endpoint := fmt.Sprintf("%s/v2/accounting/od/avg_interest_rates?%s", treasuryAPIBase, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Source: model.SourceTreasury, SeriesID: seriesID, Err: err}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &Error{Source: model.SourceTreasury, SeriesID: seriesID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Source: model.SourceTreasury, SeriesID: seriesID, Err: statusErr(resp.StatusCode)}
	}

	var payload treasuryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Source: model.SourceTreasury, SeriesID: seriesID, Err: fmt.Errorf("decode: %w", err)}
	}

	series := &model.EconomicSeries{
		SeriesID:  seriesID,
		Label:     fmt.Sprintf("Average Interest Rate: %s", desc),
		Unit:      "Percent",
		Frequency: "monthly",
		Source:    model.SourceTreasury,
	}
	for _, rec := range payload.Data {
		if rec.SecurityDesc != desc || rec.AvgRate == "" {
			continue
		}
		v, err := strconv.ParseFloat(rec.AvgRate, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", rec.RecordDate)
		if err != nil {
			continue
		}
		series.Observations = append(series.Observations, model.Observation{Date: d, Value: v})
	}

	if len(series.Observations) == 0 {
		return nil, &Error{Source: model.SourceTreasury, SeriesID: seriesID, Err: fmt.Errorf("no observations returned")}
	}
	return series, nil
}
