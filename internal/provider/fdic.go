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

const fdicAPIBase = "https://api.fdic.gov/banks"

// FDICFetcher implements BankDataFetcher against the FDIC BankFind API
// (no authentication required).
type FDICFetcher struct {
	Client *http.Client
}

// NewFDICFetcher creates a fetcher with optional proxy support.
func NewFDICFetcher(proxyURL string) *FDICFetcher {
	return &FDICFetcher{Client: newHTTPClient(proxyURL, 30*time.Second)}
}

func (f *FDICFetcher) Name() string { return "fdic" }

// FetchBankStats aggregates institution counts and recent failures into
// a single banking-system health record.
func (f *FDICFetcher) FetchBankStats(ctx context.Context) (*model.BankStats, error) {
	total, err := f.countInstitutions(ctx, "ACTIVE:1")
	if err != nil {
		return nil, err
	}
	// Active institutions reporting negative return on assets serve as
	// the problem-bank proxy; the official problem-bank list is not
	// published per institution.
	problem, err := f.countInstitutions(ctx, "ACTIVE:1 AND ROA:[-100 TO 0]")
	if err != nil {
		return nil, err
	}
	failures, err := f.countRecentFailures(ctx)
	if err != nil {
		return nil, err
	}

	return &model.BankStats{
		TotalInstitutions:   total,
		ProblemInstitutions: problem,
		RecentFailures:      failures,
		AsOf:                time.Now().UTC(),
	}, nil
}

type fdicMetaResponse struct {
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func (f *FDICFetcher) countInstitutions(ctx context.Context, filters string) (int, error) {
	params := url.Values{}
	params.Set("filters", filters)
	params.Set("limit", "1")

	var payload fdicMetaResponse
	if err := f.get(ctx, fmt.Sprintf("%s/institutions?%s", fdicAPIBase, params.Encode()), &payload); err != nil {
		return 0, err
	}
	return payload.Meta.Total, nil
}

type fdicFailuresResponse struct {
	Data []struct {
		Data struct {
			FailDate string `json:"FAILDATE"`
		} `json:"data"`
	} `json:"data"`
}

func (f *FDICFetcher) countRecentFailures(ctx context.Context) (int, error) {
	params := url.Values{}
	params.Set("sort_by", "FAILDATE")
	params.Set("sort_order", "DESC")
	params.Set("limit", "500")

	var payload fdicFailuresResponse
	if err := f.get(ctx, fmt.Sprintf("%s/failures?%s", fdicAPIBase, params.Encode()), &payload); err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(-1, 0, 0)
	count := 0
	for _, rec := range payload.Data {
		d, err := time.Parse("2006-01-02", rec.Data.FailDate)
		if err != nil {
			// Some records use m/d/yyyy
			d, err = time.Parse("1/2/2006", rec.Data.FailDate)
			if err != nil {
				continue
			}
		}
		if d.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (f *FDICFetcher) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Source: model.SourceFDIC, Err: err}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return &Error{Source: model.SourceFDIC, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &Error{Source: model.SourceFDIC, Err: statusErr(resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Source: model.SourceFDIC, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
