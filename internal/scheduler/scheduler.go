// Package scheduler drives the ingestion lifecycle: one-time backfill,
// recurring refreshes, and user commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"EconSentinel/internal/ingest"
	"EconSentinel/internal/notifier"
	"EconSentinel/internal/query"
)

// Lifecycle states. Refreshes only run in StateSteady so a snapshot is
// never computed against a partially built history.
const (
	StateNotBackfilled = "not_backfilled"
	StateSteady        = "steady"
)

// Ingestor is the ingestion surface the scheduler drives.
type Ingestor interface {
	NeedsBackfill() (bool, error)
	RunBackfill(ctx context.Context) (int, error)
	RunRefresh(ctx context.Context) (*ingest.CycleResult, error)
	VerifyBackfill(ctx context.Context) error
}

// Sender pushes outbound notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler owns the cron instance and the lifecycle state.
type Scheduler struct {
	Cron     *cron.Cron
	Ingestor Ingestor
	Query    *query.Service
	Notifier Sender
	Ctx      context.Context

	mu    sync.Mutex
	state string
}

// NewScheduler creates a scheduler in the not-backfilled state.
func NewScheduler(ctx context.Context, ing Ingestor, qs *query.Service, sender Sender) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Ingestor: ing,
		Query:    qs,
		Notifier: sender,
		Ctx:      ctx,
		state:    StateNotBackfilled,
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Bootstrap brings the store to steady state: runs the historical
// backfill if it never completed, otherwise verifies (and self-heals)
// the existing history. A fresh backfill is followed by an immediate
// refresh so the current snapshot never waits for the next cron tick.
// Must succeed before Register/Start.
func (s *Scheduler) Bootstrap() error {
	needed, err := s.Ingestor.NeedsBackfill()
	if err != nil {
		return fmt.Errorf("check backfill state: %w", err)
	}

	if needed {
		n, err := s.Ingestor.RunBackfill(s.Ctx)
		if err != nil {
			return fmt.Errorf("bootstrap backfill: %w", err)
		}
		log.Printf("[INFO] bootstrap backfill wrote %d snapshots", n)
		s.setState(StateSteady)
		s.refreshTask()
		return nil
	}

	if err := s.Ingestor.VerifyBackfill(s.Ctx); err != nil {
		return fmt.Errorf("verify backfill: %w", err)
	}
	s.setState(StateSteady)
	return nil
}

// Register schedules the recurring refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes a refresh immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if s.State() != StateSteady {
		log.Println("[WARN] refresh skipped: backfill not complete")
		return
	}

	result, err := s.Ingestor.RunRefresh(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] refresh: %v", err)
		s.trySend(fmt.Sprintf("❌ Refresh failed: %v", err))
		return
	}

	s.trySend(notifier.FormatRefreshReport(result.Signals, result.Recession, result.Failures))

	// Push only alerts triggered by recent snapshots; older ones were
	// already reported by earlier cycles.
	alerts, err := s.Query.Alerts("7d")
	if err != nil && !errors.Is(err, query.ErrNoData) {
		log.Printf("[ERROR] evaluate alerts: %v", err)
		return
	}
	if len(alerts) > 0 {
		s.trySend(notifier.FormatAlerts(alerts))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch fields[0] {
	case "/signals":
		records, err := s.Query.LatestSignals()
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatSignals(records)
	case "/recession":
		record, err := s.Query.LatestRecession()
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatRecession(record)
	case "/changes":
		changes, err := s.Query.Changes("1y")
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatChanges(changes)
	case "/alerts":
		alerts, err := s.Query.Alerts("1y")
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatAlerts(alerts)
	case "/gdp":
		records, err := s.Query.GDP(s.Ctx, "5y")
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatGDP(records)
	case "/compare":
		if len(fields) != 3 {
			return "Usage: /compare <signal> <signal>"
		}
		record, err := s.Query.Compare(fields[1], fields[2], "1y")
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatComparison(record)
	case "/refresh":
		go s.refreshTask()
		return "Refresh started."
	default:
		return notifier.FormatHelp()
	}
}

func replyError(err error) string {
	if errors.Is(err, query.ErrNoData) {
		return "No data available for this period."
	}
	return fmt.Sprintf("⚠️ %v", err)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
