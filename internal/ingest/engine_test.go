package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"EconSentinel/internal/model"
	"EconSentinel/internal/provider"
	"EconSentinel/internal/scoring"
	"EconSentinel/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	e := NewEngine(Sources{
		FRED: &provider.MockSeriesFetcher{},
		BLS:  &provider.MockSeriesFetcher{},
		FDIC: &provider.MockBankFetcher{Stats: &model.BankStats{
			TotalInstitutions:   4500,
			ProblemInstitutions: 65,
			RecentFailures:      1,
		}},
	}, st)
	return e, st
}

func TestRunBackfill_WritesAllPeriods(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	needed, err := e.NeedsBackfill()
	if err != nil {
		t.Fatal(err)
	}
	if !needed {
		t.Fatal("fresh store should need backfill")
	}

	if _, err := e.RunBackfill(ctx); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	needed, err = e.NeedsBackfill()
	if err != nil {
		t.Fatal(err)
	}
	if needed {
		t.Fatal("backfill flag not set after full success")
	}

	since := time.Now().UTC().AddDate(0, -BackfillMonths-1, 0)
	for _, name := range scoring.SignalNames() {
		history, err := st.SignalHistory(name, since)
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != BackfillMonths {
			t.Fatalf("%s: expected %d periods, got %d", name, BackfillMonths, len(history))
		}
		for i := 1; i < len(history); i++ {
			if !history[i].DataAsOf.After(history[i-1].DataAsOf) {
				t.Fatalf("%s: history not ascending at %d", name, i)
			}
		}
	}

	recessions, err := st.RecessionHistory(since)
	if err != nil {
		t.Fatal(err)
	}
	if len(recessions) != BackfillMonths {
		t.Fatalf("expected %d recession snapshots, got %d", BackfillMonths, len(recessions))
	}
}

func TestRunBackfill_ProviderFailureIsolated(t *testing.T) {
	e, st := newTestEngine(t)
	e.Sources.BLS = &provider.MockSeriesFetcher{Err: errors.New("bls is down")}
	ctx := context.Background()

	if _, err := e.RunBackfill(ctx); err == nil {
		t.Fatal("expected error when a provider is down")
	}

	// Incomplete backfill must not set the flag.
	needed, err := e.NeedsBackfill()
	if err != nil {
		t.Fatal(err)
	}
	if !needed {
		t.Fatal("flag set despite failed periods")
	}

	// Signals not touching BLS still got their full history.
	since := time.Now().UTC().AddDate(0, -BackfillMonths-1, 0)
	history, err := st.SignalHistory(model.SignalYieldCurve, since)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != BackfillMonths {
		t.Fatalf("yield curve history incomplete: %d", len(history))
	}
	jobs, err := st.SignalHistory(model.SignalJobsInflation, since)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Fatalf("jobs signal written despite failed fetch: %d rows", len(jobs))
	}
}

func TestRunBackfill_Resumable(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// First attempt fails partway because one provider is down.
	e.Sources.FDIC = &provider.MockBankFetcher{Err: errors.New("fdic is down")}
	if _, err := e.RunBackfill(ctx); err == nil {
		t.Fatal("expected first backfill to fail")
	}

	// Provider recovers; a second attempt completes and sets the flag.
	e.Sources.FDIC = &provider.MockBankFetcher{Stats: &model.BankStats{
		TotalInstitutions: 4500, ProblemInstitutions: 65, RecentFailures: 1,
	}}
	if _, err := e.RunBackfill(ctx); err != nil {
		t.Fatalf("second backfill: %v", err)
	}
	needed, err := e.NeedsBackfill()
	if err != nil {
		t.Fatal(err)
	}
	if needed {
		t.Fatal("flag not set after successful retry")
	}
}

func TestRunRefresh(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	result, err := e.RunRefresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(result.Signals) != len(scoring.Registry) {
		t.Fatalf("expected %d signals, got %d", len(scoring.Registry), len(result.Signals))
	}
	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if result.Recession == nil {
		t.Fatal("expected a recession snapshot")
	}
	if result.AsOf.IsZero() {
		t.Fatal("as-of date not set")
	}

	// Every persisted snapshot carries the cycle-wide as-of date.
	for _, sig := range result.Signals {
		stored, err := st.LatestSignal(sig.Name)
		if err != nil {
			t.Fatal(err)
		}
		if stored == nil || !stored.DataAsOf.Equal(result.AsOf) {
			t.Fatalf("%s: stored as-of %v, cycle as-of %v", sig.Name, stored.DataAsOf, result.AsOf)
		}
	}

	v, err := st.GetMeta(store.MetaLastRefresh)
	if err != nil {
		t.Fatal(err)
	}
	if v == "" {
		t.Fatal("last_refresh meta not recorded")
	}
}

func TestRunRefresh_FailureIsolated(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Sources.FDIC = &provider.MockBankFetcher{Err: errors.New("fdic is down")}
	ctx := context.Background()

	result, err := e.RunRefresh(ctx)
	if err != nil {
		t.Fatalf("refresh should survive one provider outage: %v", err)
	}
	if len(result.Signals) != len(scoring.Registry)-1 {
		t.Fatalf("expected %d signals, got %d", len(scoring.Registry)-1, len(result.Signals))
	}
	if _, failed := result.Failures[model.SignalBankStress]; !failed {
		t.Fatalf("bank stress failure not reported: %v", result.Failures)
	}
	if result.Recession == nil {
		t.Fatal("recession should renormalize over surviving signals")
	}
}

func TestRunRefresh_AllProvidersDown(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Sources.FRED = &provider.MockSeriesFetcher{Err: errors.New("fred is down")}
	e.Sources.BLS = &provider.MockSeriesFetcher{Err: errors.New("bls is down")}
	e.Sources.FDIC = &provider.MockBankFetcher{Err: errors.New("fdic is down")}

	if _, err := e.RunRefresh(context.Background()); err == nil {
		t.Fatal("expected refresh to fail with every provider down")
	}
}

func TestVerifyBackfill_SelfHeals(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	// Simulate a flag that lies: set without any stored history.
	if err := st.SetMeta(store.MetaBackfillComplete, time.Now().UTC().Format(time.RFC3339)); err != nil {
		t.Fatal(err)
	}

	if err := e.VerifyBackfill(ctx); err != nil {
		t.Fatalf("verify: %v", err)
	}

	since := time.Now().UTC().AddDate(0, -BackfillMonths-1, 0)
	for _, name := range scoring.SignalNames() {
		history, err := st.SignalHistory(name, since)
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != BackfillMonths {
			t.Fatalf("%s: self-heal left %d periods", name, len(history))
		}
	}
}

func TestVerifyBackfill_NoopBeforeBackfill(t *testing.T) {
	e, st := newTestEngine(t)

	if err := e.VerifyBackfill(context.Background()); err != nil {
		t.Fatal(err)
	}
	history, err := st.SignalHistory(model.SignalYieldCurve, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Fatal("verify must not write before backfill has run")
	}
}
