package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"crosscheck/internal/incident"
)

// SQLiteStore is the durable ledger backed by a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open connects to the ledger at path, creating it when absent, and verifies
// its integrity. Every failure wraps ErrUnavailable.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: no ledger path configured", ErrUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create ledger directory: %v", ErrUnavailable, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %v", ErrUnavailable, err)
	}
	store, err := prepare(ctx, db, path, []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = FULL",
	})
	if err != nil {
		return nil, err
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		if errors.Is(err, ErrSchemaMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return store, nil
}

// OpenReadOnly connects to an existing ledger without creating or changing
// anything on disk. A missing file yields an error matching fs.ErrNotExist;
// every failure wraps ErrUnavailable.
func OpenReadOnly(ctx context.Context, path string) (*SQLiteStore, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: no ledger path configured", ErrUnavailable)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve ledger path: %v", ErrUnavailable, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %v", ErrUnavailable, err)
	}
	store, err := prepare(ctx, db, path, []string{"PRAGMA busy_timeout = 5000"})
	if err != nil {
		return nil, err
	}
	if err := store.checkSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return store, nil
}

func prepare(ctx context.Context, db *sql.DB, path string, pragmas []string) (*SQLiteStore, error) {
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: apply pragma %q: %v", ErrUnavailable, pragma, execErr)
		}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.verify(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return store, nil
}

// Path returns the ledger file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// HasBeenReported implements Store.
func (s *SQLiteStore) HasBeenReported(ctx context.Context, id incident.IncidentID) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM reported_incidents WHERE dataset = ? AND case_id = ?",
			id.Dataset, id.CaseID,
		).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %v", ErrUnavailable, id, err)
	}
	return count > 0, nil
}

// Record implements Store. The batch is written in a single transaction.
func (s *SQLiteStore) Record(ctx context.Context, entries ...Entry) error {
	ctx = ensureContext(ctx)
	if len(entries) == 0 {
		return nil
	}
	err := retryOnBusy(ctx, func() error {
		return s.recordTx(ctx, entries)
	})
	if err != nil {
		return fmt.Errorf("%w: record %d entries: %v", ErrUnavailable, len(entries), err)
	}
	return nil
}

func (s *SQLiteStore) recordTx(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO reported_incidents (dataset, case_id, run_id, reported_at, source)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (dataset, case_id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		reportedAt := e.ReportedAt
		if reportedAt.IsZero() {
			reportedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, e.ID.Dataset, e.ID.CaseID, e.RunID,
			reportedAt.UTC().Format(time.RFC3339Nano), e.Source); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns recorded entries ordered by report time, then key.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	ctx = ensureContext(ctx)
	query := "SELECT dataset, case_id, run_id, reported_at, source FROM reported_incidents"
	var (
		clauses []string
		args    []any
	)
	if filter.Dataset != "" {
		clauses = append(clauses, "dataset = ?")
		args = append(args, filter.Dataset)
	}
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY reported_at, dataset, case_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			reportedAt string
		)
		if err := rows.Scan(&e.ID.Dataset, &e.ID.CaseID, &e.RunID, &reportedAt, &e.Source); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", ErrUnavailable, err)
		}
		if e.ReportedAt, err = time.Parse(time.RFC3339Nano, reportedAt); err != nil {
			return nil, fmt.Errorf("%w: parse reported_at %q: %v", ErrUnavailable, reportedAt, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ErrUnavailable, err)
	}
	return out, nil
}

// Count returns the number of recorded incidents.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM reported_incidents").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count entries: %v", ErrUnavailable, err)
	}
	return count, nil
}
