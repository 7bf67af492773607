// Package ingest orchestrates the FETCH → SCORE → PERSIST cycle:
// one-time historical backfill plus recurring refresh.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"EconSentinel/internal/model"
	"EconSentinel/internal/provider"
	"EconSentinel/internal/scoring"
	"EconSentinel/internal/store"
)

// Externally visible ingestion constants.
const (
	BackfillMonths     = 12 // monthly backfill boundaries
	SeriesLookbackYrs  = 3  // source window pulled per backfill
	RefreshLookbackYrs = 2  // source window pulled per refresh
	FetchTimeout       = 2 * time.Minute
)

// Series IDs required by the scorers, grouped by provider.
const (
	seriesSpread         = "T10Y2Y"
	seriesUnemployment   = "UNRATE"
	seriesHomePrice      = "MSPUS"
	seriesMortgageRate   = "MORTGAGE30US"
	seriesHourlyEarnings = "AHETPI"
	seriesCoreCPI        = "CUSR0000SA0L1E"
)

// Sources holds one fetcher per upstream provider. The four upstreams
// are mutually independent; a failure in one only fails the signals
// that depend on it.
type Sources struct {
	FRED provider.SeriesFetcher
	BLS  provider.SeriesFetcher
	FDIC provider.BankDataFetcher
}

// Engine drives ingestion cycles against the signal store. It is the
// store's only writer.
type Engine struct {
	Sources Sources
	Store   store.Store
}

// NewEngine creates an ingestion engine.
func NewEngine(sources Sources, st store.Store) *Engine {
	return &Engine{Sources: sources, Store: st}
}

// CycleResult reports one ingestion cycle. Failures are per-signal:
// signals absent from both maps were not attempted.
type CycleResult struct {
	AsOf      time.Time
	Signals   []*model.ScoredSignal
	Recession *model.RecessionSnapshot
	Failures  map[string]error
}

// Failed reports whether nothing at all was produced.
func (r *CycleResult) Failed() bool {
	return len(r.Signals) == 0
}

// NeedsBackfill reports whether the one-time historical backfill has
// not completed yet.
func (e *Engine) NeedsBackfill() (bool, error) {
	v, err := e.Store.GetMeta(store.MetaBackfillComplete)
	if err != nil {
		return false, err
	}
	return v == "", nil
}

// RunBackfill reconstructs signal history for the last BackfillMonths
// monthly boundaries. Every series is fetched once over the full
// lookback window, then trimmed per boundary so each period scores
// against only the observations that existed "as of" that date.
//
// The backfill-complete flag is set only after all periods fully
// succeed; on partial failure the whole backfill is safe to re-attempt
// because persistence is an idempotent upsert by (name, data_as_of).
func (e *Engine) RunBackfill(ctx context.Context) (int, error) {
	log.Printf("[INFO] starting historical backfill (%d months)", BackfillMonths)

	now := time.Now().UTC()
	inputs, fetchErrs := e.fetchInputs(ctx, now.AddDate(-SeriesLookbackYrs, 0, 0), now)

	snapshots := 0
	var failures []string
	for monthsAgo := BackfillMonths; monthsAgo >= 1; monthsAgo-- {
		asOf := monthsBack(now, monthsAgo)
		cutoff := asOf.AddDate(0, 0, 1)

		result := e.scoreAndPersist(trimInputs(inputs, cutoff), fetchErrs, asOf)
		snapshots += len(result.Signals)
		if result.Recession != nil {
			snapshots++
		}
		for name, err := range result.Failures {
			failures = append(failures, fmt.Sprintf("%s@%s: %v", name, asOf.Format("2006-01-02"), err))
		}
	}

	if len(failures) > 0 {
		return snapshots, fmt.Errorf("backfill incomplete, %d signal-periods failed (first: %s)", len(failures), failures[0])
	}

	if _, err := e.Store.SetMetaIfAbsent(store.MetaBackfillComplete, now.Format(time.RFC3339)); err != nil {
		return snapshots, fmt.Errorf("mark backfill complete: %w", err)
	}
	log.Printf("[INFO] backfill complete: %d snapshots", snapshots)
	return snapshots, nil
}

// RunRefresh computes one fresh snapshot from live data. data_as_of is
// the latest observation date across the fetched series, so every
// scorer in the cycle observes a consistent as-of date.
func (e *Engine) RunRefresh(ctx context.Context) (*CycleResult, error) {
	log.Println("[INFO] running signal refresh")

	now := time.Now().UTC()
	inputs, fetchErrs := e.fetchInputs(ctx, now.AddDate(-RefreshLookbackYrs, 0, 0), now)

	asOf, ok := latestObservationDate(inputs)
	if !ok {
		return nil, fmt.Errorf("refresh: no series fetched (%d fetch failures)", len(fetchErrs))
	}

	result := e.scoreAndPersist(inputs, fetchErrs, asOf)
	if result.Failed() {
		return result, fmt.Errorf("refresh: no signals computed")
	}

	if err := e.Store.SetMeta(store.MetaLastRefresh, now.Format(time.RFC3339)); err != nil {
		log.Printf("[ERROR] record last refresh: %v", err)
	}
	log.Printf("[INFO] refresh complete: %d signals, %d failures (as of %s)",
		len(result.Signals), len(result.Failures), asOf.Format("2006-01-02"))
	return result, nil
}

// VerifyBackfill self-heals the backfill invariant: if the complete
// flag is set but fewer than BackfillMonths periods are stored for any
// signal, the history is rebuilt. Idempotent upserts make the re-run
// safe.
func (e *Engine) VerifyBackfill(ctx context.Context) error {
	needed, err := e.NeedsBackfill()
	if err != nil {
		return err
	}
	if needed {
		return nil // nothing to verify, backfill hasn't run
	}

	since := monthsBack(time.Now().UTC(), BackfillMonths)
	for _, name := range scoring.SignalNames() {
		history, err := e.Store.SignalHistory(name, since)
		if err != nil {
			return err
		}
		if len(history) < BackfillMonths {
			log.Printf("[WARN] backfill flag set but %s has only %d/%d periods, re-running backfill",
				name, len(history), BackfillMonths)
			if _, err := e.RunBackfill(ctx); err != nil {
				return fmt.Errorf("repair backfill: %w", err)
			}
			return nil
		}
	}
	return nil
}

// fetchInputs pulls every required series concurrently. The providers
// are independent I/O calls with no shared state; persistence stays
// serialized downstream. Returned errors are keyed by the signal names
// the failed fetch affects.
func (e *Engine) fetchInputs(ctx context.Context, start, end time.Time) (*scoring.Inputs, map[string]error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	inputs := &scoring.Inputs{}
	fetchErrs := make(map[string]error)
	var mu sync.Mutex

	fail := func(err error, signals ...string) {
		mu.Lock()
		defer mu.Unlock()
		for _, name := range signals {
			if _, exists := fetchErrs[name]; !exists {
				fetchErrs[name] = err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	fetchFRED := func(seriesID string, dst **model.EconomicSeries, signals ...string) func() error {
		return func() error {
			s, err := e.Sources.FRED.FetchSeries(gctx, seriesID, start, end)
			if err != nil {
				log.Printf("[WARN] fetch %s: %v", seriesID, err)
				fail(err, signals...)
				return nil // isolate: never abort sibling fetches
			}
			mu.Lock()
			*dst = s
			mu.Unlock()
			return nil
		}
	}

	g.Go(fetchFRED(seriesSpread, &inputs.Spread, model.SignalYieldCurve))
	g.Go(fetchFRED(seriesUnemployment, &inputs.Unemployment, model.SignalJobsInflation))
	g.Go(fetchFRED(seriesHomePrice, &inputs.HomePrice, model.SignalHousing))
	g.Go(fetchFRED(seriesMortgageRate, &inputs.MortgageRate, model.SignalHousing))
	g.Go(fetchFRED(seriesHourlyEarnings, &inputs.HourlyEarnings, model.SignalHousing))

	g.Go(func() error {
		s, err := e.Sources.BLS.FetchSeries(gctx, seriesCoreCPI, start, end)
		if err != nil {
			log.Printf("[WARN] fetch %s: %v", seriesCoreCPI, err)
			fail(err, model.SignalJobsInflation)
			return nil
		}
		mu.Lock()
		inputs.CoreCPI = s
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		stats, err := e.Sources.FDIC.FetchBankStats(gctx)
		if err != nil {
			log.Printf("[WARN] fetch bank stats: %v", err)
			fail(err, model.SignalBankStress)
			return nil
		}
		mu.Lock()
		inputs.Bank = stats
		mu.Unlock()
		return nil
	})

	g.Wait()
	return inputs, fetchErrs
}

// scoreAndPersist runs every registered scorer plus the recession
// composite against one as-of date and upserts the results. A fetch or
// scoring failure for one signal never blocks the others; a store
// failure fails that signal's slot for the cycle.
func (e *Engine) scoreAndPersist(inputs *scoring.Inputs, fetchErrs map[string]error, asOf time.Time) *CycleResult {
	result := &CycleResult{AsOf: asOf, Failures: make(map[string]error)}

	for _, scorer := range scoring.Registry {
		if err, failed := fetchErrs[scorer.Name]; failed {
			result.Failures[scorer.Name] = fmt.Errorf("fetch: %w", err)
			continue
		}
		sig, err := scorer.Score(inputs, asOf)
		if err != nil {
			result.Failures[scorer.Name] = err
			continue
		}
		if err := e.Store.RecordSignal(sig); err != nil {
			log.Printf("[ERROR] persist %s: %v", scorer.Name, err)
			result.Failures[scorer.Name] = err
			continue
		}
		result.Signals = append(result.Signals, sig)
	}

	if len(result.Signals) == 0 {
		return result
	}

	var spread float64
	if obs, ok := inputs.Spread.Latest(); ok {
		spread = obs.Value
	}
	prior, err := e.Store.LatestRecession()
	if err != nil {
		log.Printf("[WARN] load prior recession snapshot: %v", err)
	}
	// Only a strictly earlier snapshot counts as "prior"; during a
	// backfill re-run the same period may already be stored.
	if prior != nil && !prior.DataAsOf.Before(asOf) {
		prior = nil
	}

	recession, err := scoring.ComputeRecessionProbability(result.Signals, spread, prior, asOf)
	if err != nil {
		result.Failures["recession_probability"] = err
		return result
	}
	if err := e.Store.RecordRecession(recession); err != nil {
		log.Printf("[ERROR] persist recession snapshot: %v", err)
		result.Failures["recession_probability"] = err
		return result
	}
	result.Recession = recession
	return result
}

// trimInputs truncates every series to observations strictly before
// cutoff, simulating what was known as of a historical date. Bank stats
// have no history upstream and pass through unchanged.
func trimInputs(in *scoring.Inputs, cutoff time.Time) *scoring.Inputs {
	return &scoring.Inputs{
		Spread:         in.Spread.TrimBefore(cutoff),
		Unemployment:   in.Unemployment.TrimBefore(cutoff),
		CoreCPI:        in.CoreCPI.TrimBefore(cutoff),
		HomePrice:      in.HomePrice.TrimBefore(cutoff),
		MortgageRate:   in.MortgageRate.TrimBefore(cutoff),
		HourlyEarnings: in.HourlyEarnings.TrimBefore(cutoff),
		Bank:           in.Bank,
	}
}

// latestObservationDate returns the max observation date across all
// fetched series, the cycle-wide data_as_of for a refresh.
func latestObservationDate(in *scoring.Inputs) (time.Time, bool) {
	var latest time.Time
	for _, s := range []*model.EconomicSeries{
		in.Spread, in.Unemployment, in.CoreCPI,
		in.HomePrice, in.MortgageRate, in.HourlyEarnings,
	} {
		if obs, ok := s.Latest(); ok && obs.Date.After(latest) {
			latest = obs.Date
		}
	}
	return latest, !latest.IsZero()
}

// monthsBack returns the date n months before d, clamped to day 28 so
// month arithmetic never overflows into the next month.
func monthsBack(d time.Time, n int) time.Time {
	day := d.Day()
	if day > 28 {
		day = 28
	}
	anchor := time.Date(d.Year(), d.Month(), day, 0, 0, 0, 0, time.UTC)
	return anchor.AddDate(0, -n, 0)
}
