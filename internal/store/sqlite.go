package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"EconSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteStore persists snapshots to a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writers; readers go straight to WAL
}

// DefaultPath returns the per-user database location so state survives
// process restarts.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data/econsentinel.db"
	}
	return filepath.Join(home, ".econsentinel", "data.db")
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL keeps readers unblocked while the ingestion engine writes.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_name TEXT NOT NULL,
			score       REAL NOT NULL,
			summary     TEXT NOT NULL DEFAULT '',
			tags        TEXT NOT NULL DEFAULT '',
			data_as_of  TEXT NOT NULL,
			computed_at INTEGER NOT NULL,
			UNIQUE(signal_name, data_as_of)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_as_of ON signal_snapshots(signal_name, data_as_of)`,

		`CREATE TABLE IF NOT EXISTS recession_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			probability  REAL NOT NULL,
			assessment   TEXT NOT NULL DEFAULT '',
			spread       REAL NOT NULL DEFAULT 0,
			trend        TEXT NOT NULL DEFAULT '',
			signal_count INTEGER NOT NULL DEFAULT 0,
			data_as_of   TEXT NOT NULL UNIQUE,
			computed_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recession_as_of ON recession_snapshots(data_as_of)`,

		`CREATE TABLE IF NOT EXISTS ingestion_meta (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) RecordSignal(sig *model.ScoredSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO signal_snapshots
		(signal_name, score, summary, tags, data_as_of, computed_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(signal_name, data_as_of) DO UPDATE SET
			score=excluded.score, summary=excluded.summary,
			tags=excluded.tags, computed_at=excluded.computed_at`,
		sig.Name, sig.Score, sig.Summary, strings.Join(sig.Tags, ","),
		sig.DataAsOf.Format(dateLayout), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record signal %s: %w", sig.Name, err)
	}
	return nil
}

func (s *SQLiteStore) RecordRecession(snap *model.RecessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO recession_snapshots
		(probability, assessment, spread, trend, signal_count, data_as_of, computed_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(data_as_of) DO UPDATE SET
			probability=excluded.probability, assessment=excluded.assessment,
			spread=excluded.spread, trend=excluded.trend,
			signal_count=excluded.signal_count, computed_at=excluded.computed_at`,
		snap.Probability, snap.Assessment, snap.Spread, snap.Trend,
		snap.SignalCount, snap.DataAsOf.Format(dateLayout), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record recession: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestSignal(name string) (*model.ScoredSignal, error) {
	row := s.db.QueryRow(`SELECT signal_name, score, summary, tags, data_as_of
		FROM signal_snapshots WHERE signal_name = ?
		ORDER BY data_as_of DESC LIMIT 1`, name)
	sig, err := scanSignal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest signal %s: %w", name, err)
	}
	return sig, nil
}

func (s *SQLiteStore) SignalHistory(name string, since time.Time) ([]model.ScoredSignal, error) {
	rows, err := s.db.Query(`SELECT signal_name, score, summary, tags, data_as_of
		FROM signal_snapshots WHERE signal_name = ? AND data_as_of >= ?
		ORDER BY data_as_of ASC`, name, since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("signal history %s: %w", name, err)
	}
	defer rows.Close()

	var history []model.ScoredSignal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("signal history %s: %w", name, err)
		}
		history = append(history, *sig)
	}
	return history, rows.Err()
}

func (s *SQLiteStore) LatestRecession() (*model.RecessionSnapshot, error) {
	row := s.db.QueryRow(`SELECT probability, assessment, spread, trend, signal_count, data_as_of
		FROM recession_snapshots ORDER BY data_as_of DESC LIMIT 1`)
	snap, err := scanRecession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest recession: %w", err)
	}
	return snap, nil
}

func (s *SQLiteStore) RecessionHistory(since time.Time) ([]model.RecessionSnapshot, error) {
	rows, err := s.db.Query(`SELECT probability, assessment, spread, trend, signal_count, data_as_of
		FROM recession_snapshots WHERE data_as_of >= ?
		ORDER BY data_as_of ASC`, since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("recession history: %w", err)
	}
	defer rows.Close()

	var history []model.RecessionSnapshot
	for rows.Next() {
		snap, err := scanRecession(rows)
		if err != nil {
			return nil, fmt.Errorf("recession history: %w", err)
		}
		history = append(history, *snap)
	}
	return history, rows.Err()
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM ingestion_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO ingestion_meta (key, value, updated_at)
		VALUES (?,?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) SetMetaIfAbsent(key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT OR IGNORE INTO ingestion_meta (key, value, updated_at)
		VALUES (?,?,?)`, key, value, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("set meta if absent %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set meta if absent %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSignal(sc scanner) (*model.ScoredSignal, error) {
	var sig model.ScoredSignal
	var tags, asOf string
	if err := sc.Scan(&sig.Name, &sig.Score, &sig.Summary, &tags, &asOf); err != nil {
		return nil, err
	}
	if tags != "" {
		sig.Tags = strings.Split(tags, ",")
	}
	d, err := time.Parse(dateLayout, asOf)
	if err != nil {
		return nil, fmt.Errorf("parse data_as_of %q: %w", asOf, err)
	}
	sig.DataAsOf = d
	return &sig, nil
}

func scanRecession(sc scanner) (*model.RecessionSnapshot, error) {
	var snap model.RecessionSnapshot
	var asOf string
	if err := sc.Scan(&snap.Probability, &snap.Assessment, &snap.Spread, &snap.Trend, &snap.SignalCount, &asOf); err != nil {
		return nil, err
	}
	d, err := time.Parse(dateLayout, asOf)
	if err != nil {
		return nil, fmt.Errorf("parse data_as_of %q: %w", asOf, err)
	}
	snap.DataAsOf = d
	return &snap, nil
}
