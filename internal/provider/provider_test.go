package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"EconSentinel/internal/model"
)

func TestFREDFetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_id"); got != "T10Y2Y" {
			t.Errorf("unexpected series_id %q", got)
		}
		if got := r.URL.Query().Get("sort_order"); got != "asc" {
			t.Errorf("expected ascending sort, got %q", got)
		}
		fmt.Fprint(w, `{"observations":[
			{"date":"2025-04-01","value":"0.31"},
			{"date":"2025-05-01","value":"."},
			{"date":"2025-06-01","value":"-0.12"}
		]}`)
	}))
	defer srv.Close()

	f := NewFREDFetcher("test-key", "")
	f.BaseURL = srv.URL

	series, err := f.FetchSeries(context.Background(),
		"T10Y2Y",
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if series.Source != model.SourceFRED {
		t.Errorf("wrong source: %s", series.Source)
	}
	// The "." placeholder must be dropped.
	if len(series.Observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(series.Observations))
	}
	latest, _ := series.Latest()
	if latest.Value != -0.12 {
		t.Errorf("expected latest -0.12, got %.2f", latest.Value)
	}
	if series.Label == "" {
		t.Error("catalog label not applied")
	}
}

func TestFREDFetchSeries_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFREDFetcher("test-key", "")
	f.BaseURL = srv.URL

	_, err := f.FetchSeries(context.Background(), "UNRATE", time.Now().AddDate(-1, 0, 0), time.Now())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Source != model.SourceFRED {
		t.Fatalf("expected a provider error with source, got %v", err)
	}
}

func TestGenerateMonthlySeries(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	s := GenerateMonthlySeries("TEST", 2.0, 0.5, start, end)

	// Jan 1 is before start; Feb through Jun qualify.
	if len(s.Observations) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(s.Observations))
	}
	for i := 1; i < len(s.Observations); i++ {
		if !s.Observations[i].Date.After(s.Observations[i-1].Date) {
			t.Fatal("observations not ascending")
		}
		if s.Observations[i].Value <= s.Observations[i-1].Value {
			t.Fatal("ramp not increasing")
		}
	}
}

func TestMockSeriesFetcher(t *testing.T) {
	known := GenerateMonthlySeries("KNOWN", 1, 0,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	m := &MockSeriesFetcher{Series: map[string]*model.EconomicSeries{"KNOWN": known}}

	// Known IDs are trimmed to the requested window end.
	s, err := m.FetchSeries(context.Background(), "KNOWN", time.Time{}, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	latest, _ := s.Latest()
	if latest.Date.After(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("observation past window end: %s", latest.Date)
	}

	// Err fails every fetch, known or not.
	m.Err = errors.New("down")
	if _, err := m.FetchSeries(context.Background(), "KNOWN", time.Time{}, time.Now()); err == nil {
		t.Fatal("expected error")
	}

	if len(m.Calls) != 2 {
		t.Errorf("expected 2 recorded calls, got %d", len(m.Calls))
	}
}
