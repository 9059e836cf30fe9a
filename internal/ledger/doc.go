// Package ledger persists which unmatched incidents have already been
// reported, so later runs surface only new gaps.
//
// The ledger is append-only. Store is the narrow interface the reconciliation
// driver depends on; SQLiteStore is the durable implementation and
// MemoryStore backs tests and dry runs. A ledger that cannot be opened, read,
// or verified is fatal: every failure wraps ErrUnavailable so callers abort
// before emitting a report.
//
// Schema changes bump schemaVersion in schema.go; additive changes go in
// migrations/ and are applied on open.
package ledger
