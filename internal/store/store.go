package store

import (
	"time"

	"EconSentinel/internal/model"
)

// Meta keys used by the ingestion engine.
const (
	MetaBackfillComplete = "backfill_complete"
	MetaLastRefresh      = "last_refresh"
)

// Store persists signal snapshots, recession snapshots, and ingestion
// metadata. Writes are upserts keyed by (name, data_as_of); rows are
// immutable snapshots; re-ingesting the same period overwrites rather
// than duplicates. Implementations must serialize writers and allow
// concurrent readers; a successful write is durable.
//
// Lookup methods return (nil, nil) when no matching row exists.
type Store interface {
	RecordSignal(sig *model.ScoredSignal) error
	RecordRecession(snap *model.RecessionSnapshot) error

	LatestSignal(name string) (*model.ScoredSignal, error)
	SignalHistory(name string, since time.Time) ([]model.ScoredSignal, error)
	LatestRecession() (*model.RecessionSnapshot, error)
	RecessionHistory(since time.Time) ([]model.RecessionSnapshot, error)

	GetMeta(key string) (string, error)
	SetMeta(key, value string) error
	// SetMetaIfAbsent writes the key only if it does not exist yet and
	// reports whether this call performed the write. The check and the
	// set are atomic with respect to concurrent callers.
	SetMetaIfAbsent(key, value string) (bool, error)

	Close() error
}
