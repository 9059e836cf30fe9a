package testsupport

import (
	"context"
	"testing"

	"crosscheck/internal/config"
	"crosscheck/internal/incident"
	"crosscheck/internal/ledger"
)

// MustOpenLedger opens the config's SQLite ledger for tests and registers
// cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.SQLiteStore {
	t.Helper()

	store, err := ledger.Open(context.Background(), cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedLedger records the given incidents as already reported.
func SeedLedger(t testing.TB, store ledger.Store, runID string, ids ...incident.IncidentID) {
	t.Helper()

	entries := make([]ledger.Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, ledger.Entry{ID: id, RunID: runID})
	}
	if err := store.Record(context.Background(), entries...); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
}
