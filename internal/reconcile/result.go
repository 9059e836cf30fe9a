package reconcile

import (
	"context"
	"time"

	"crosscheck/internal/incident"
)

// PrimarySource supplies the per-jurisdiction datasets.
type PrimarySource interface {
	Datasets(ctx context.Context) ([]incident.Dataset, error)
}

// ReferenceSource supplies the canonical reference records.
type ReferenceSource interface {
	References(ctx context.Context) ([]incident.ReferenceRecord, error)
}

// Reporter publishes a run's findings. The ledger is appended only after Emit
// returns nil.
type Reporter interface {
	Emit(ctx context.Context, result *Result) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, result *Result) error

// Emit calls f.
func (f ReporterFunc) Emit(ctx context.Context, result *Result) error {
	return f(ctx, result)
}

// Unmatched is an incident surfaced by this run.
type Unmatched struct {
	Record incident.IncidentRecord
	Key    incident.NormalizedKey
	// Source is the dataset's source location.
	Source   string
	PoolSize int
	// Reexamined marks an incident the ledger already held that was surfaced
	// on request.
	Reexamined bool
}

// ID returns the incident's ledger key.
func (u Unmatched) ID() incident.IncidentID {
	return u.Record.ID()
}

// DatasetSummary tallies one dataset's outcomes.
type DatasetSummary struct {
	ID              string `json:"id"`
	Source          string `json:"source"`
	Records         int    `json:"records"`
	Matched         int    `json:"matched"`
	Unmatched       int    `json:"unmatched"`
	AlreadyReported int    `json:"already_reported"`
	NewlyUnmatched  int    `json:"newly_unmatched"`
	NoCandidates    int    `json:"no_candidates"`
}

// ReferenceSummary describes the indexed reference set.
type ReferenceSummary struct {
	Records    int `json:"records"`
	Indexed    int `json:"indexed"`
	Skipped    int `json:"skipped"`
	Partitions int `json:"partitions"`
}

// Result is the outcome of one run.
type Result struct {
	RunID     string
	StartedAt time.Time
	DryRun    bool
	// NewlyUnmatched lists surfaced incidents in dataset and record order.
	NewlyUnmatched []Unmatched
	// NearMisses holds, for surfaced incidents only, the candidates sharing
	// year and day of month. Incidents without near misses have no entry.
	NearMisses map[incident.IncidentID][]incident.MatchCandidate
	Datasets   []DatasetSummary
	Reference  ReferenceSummary
	// Recorded is the number of new ledger entries written.
	Recorded int
}

// Totals sums the per-dataset summaries.
func (r *Result) Totals() DatasetSummary {
	total := DatasetSummary{ID: "all"}
	for _, ds := range r.Datasets {
		total.Records += ds.Records
		total.Matched += ds.Matched
		total.Unmatched += ds.Unmatched
		total.AlreadyReported += ds.AlreadyReported
		total.NewlyUnmatched += ds.NewlyUnmatched
		total.NoCandidates += ds.NoCandidates
	}
	return total
}

// NearMissCount returns the number of near-miss candidates across incidents.
func (r *Result) NearMissCount() int {
	n := 0
	for _, list := range r.NearMisses {
		n += len(list)
	}
	return n
}
