package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"EconSentinel/internal/model"
)

// SeriesFetcher fetches a named time series over a date range.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, seriesID string, start, end time.Time) (*model.EconomicSeries, error)
	Name() string
}

// BankDataFetcher fetches aggregate banking-system health data.
type BankDataFetcher interface {
	FetchBankStats(ctx context.Context) (*model.BankStats, error)
	Name() string
}

// Sentinel causes for provider failures.
var (
	ErrNotFound    = errors.New("series not found")
	ErrRateLimited = errors.New("rate limited")
)

// Error is an upstream fetch failure. All provider failures are
// retryable-or-reportable, never fatal to the process.
type Error struct {
	Source   model.Source
	SeriesID string
	Err      error
}

func (e *Error) Error() string {
	if e.SeriesID == "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.SeriesID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// newHTTPClient builds a client with a bounded timeout and optional proxy.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// statusErr maps an HTTP status to a sentinel cause where one applies.
func statusErr(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("status %d", status)
	}
}
