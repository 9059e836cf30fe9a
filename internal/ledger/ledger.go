package ledger

import (
	"context"
	"errors"
	"time"

	"crosscheck/internal/incident"
)

var (
	// ErrUnavailable marks a ledger that cannot be opened, read, or written.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrLocked indicates another run holds the ledger lock.
	ErrLocked = errors.New("ledger locked by another run")
)

// Entry records one reported incident.
type Entry struct {
	ID         incident.IncidentID
	RunID      string
	ReportedAt time.Time
	Source     string
}

// Store is the persisted history of surfaced incidents.
type Store interface {
	HasBeenReported(ctx context.Context, id incident.IncidentID) (bool, error)
	// Record appends entries in one batch. Keys already present are left
	// untouched; either every new key is written or none is.
	Record(ctx context.Context, entries ...Entry) error
}

// Filter narrows List results.
type Filter struct {
	Dataset string
	RunID   string
}

func (f Filter) matches(e Entry) bool {
	if f.Dataset != "" && e.ID.Dataset != f.Dataset {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	return true
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
