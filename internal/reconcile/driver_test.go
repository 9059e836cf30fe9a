package reconcile_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"crosscheck/internal/config"
	"crosscheck/internal/incident"
	"crosscheck/internal/ledger"
	"crosscheck/internal/logging"
	"crosscheck/internal/reconcile"
)

type primarySource []incident.Dataset

func (p primarySource) Datasets(context.Context) ([]incident.Dataset, error) {
	return p, nil
}

type referenceSource []incident.ReferenceRecord

func (r referenceSource) References(context.Context) ([]incident.ReferenceRecord, error) {
	return r, nil
}

type recordingReporter struct {
	calls   int
	results []*reconcile.Result
	err     error
	onEmit  func(*reconcile.Result)
}

func (r *recordingReporter) Emit(_ context.Context, result *reconcile.Result) error {
	r.calls++
	r.results = append(r.results, result)
	if r.onEmit != nil {
		r.onEmit(result)
	}
	return r.err
}

func ref(id, date, name, address, zip, race, gender, age string) incident.ReferenceRecord {
	return incident.ReferenceRecord{
		ID: id, State: "IL", Date: date, Name: name, Address: address, Zip: zip,
		Race: race, Gender: gender, Age: age,
	}
}

func rec(caseID, date, name, address, zip, race, gender, age string) incident.IncidentRecord {
	return incident.IncidentRecord{
		Dataset: "chicago", CaseID: caseID, Date: date, Name: name, Address: address, Zip: zip,
		Race: race, Gender: gender, Age: age,
	}
}

func references() referenceSource {
	return referenceSource{
		ref("R1", "2023-04-05", "John Smith", "123 Main St", "60614", "Black", "Male", "30"),
		ref("R2", "2023-06-10", "Maria Lopez", "77 W Lake St", "60601", "Hispanic", "Female", "41"),
		ref("R3", "2023-03-15", "Alan Reed", "5 Elm Ave", "60622", "White", "Male", "50"),
	}
}

func chicago(extra ...incident.IncidentRecord) primarySource {
	records := []incident.IncidentRecord{
		rec("c1", "2023-05-04", "John Smith", "123 Main St", "60614", "B", "M", "30"),
		rec("c2", "06/10/2023", "Maria Lopez", "77 West Lake Street", "60601", "H", "F", "41"),
		rec("c3", "2023-07-15", "Paul Green", "8 Pine Rd", "60630", "W", "M", "44"),
		rec("c4", "2023-09-01", "Name withheld", "1 Nowhere Ln", "60640", "", "", ""),
	}
	records = append(records, extra...)
	return primarySource{{ID: "chicago", State: "IL", Source: "chicago.csv", Records: records}}
}

func options() reconcile.Options {
	opts := reconcile.DefaultOptions()
	opts.Workers = 4
	opts.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	opts.NewRunID = func() string { return "run-1" }
	return opts
}

func surfacedIDs(result *reconcile.Result) []string {
	out := make([]string, 0, len(result.NewlyUnmatched))
	for _, u := range result.NewlyUnmatched {
		out = append(out, u.ID().String())
	}
	return out
}

func TestRunSurfacesUnmatchedAndRecordsAfterEmit(t *testing.T) {
	store := ledger.NewMemoryStore()
	reporter := &recordingReporter{}
	reporter.onEmit = func(*reconcile.Result) {
		if keys := store.Keys(); len(keys) != 0 {
			t.Errorf("ledger written before emit: %v", keys)
		}
	}

	driver := reconcile.New(store, logging.NewNop(), options())
	result, err := driver.Run(context.Background(), chicago(), references(), reporter)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diff := cmp.Diff([]string{"chicago/c3", "chicago/c4"}, surfacedIDs(result)); diff != "" {
		t.Fatalf("surfaced mismatch (-want +got):\n%s", diff)
	}
	if reporter.calls != 1 {
		t.Fatalf("expected one emit, got %d", reporter.calls)
	}

	misses := result.NearMisses[incident.IncidentID{Dataset: "chicago", CaseID: "c3"}]
	if len(misses) != 1 || misses[0].Reference.ID != "R3" {
		t.Fatalf("expected R3 near miss for c3, got %+v", misses)
	}
	if _, ok := result.NearMisses[incident.IncidentID{Dataset: "chicago", CaseID: "c4"}]; ok {
		t.Fatal("expected no near-miss entry for c4")
	}

	want := reconcile.DatasetSummary{
		ID: "chicago", Source: "chicago.csv", Records: 4, Matched: 2, Unmatched: 2,
		NewlyUnmatched: 2, NoCandidates: 1,
	}
	if diff := cmp.Diff([]reconcile.DatasetSummary{want}, result.Datasets); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if result.Recorded != 2 || result.RunID != "run-1" {
		t.Fatalf("unexpected result header: recorded=%d run=%s", result.Recorded, result.RunID)
	}
	if diff := cmp.Diff([]string{"chicago/c3", "chicago/c4"}, store.Keys()); diff != "" {
		t.Fatalf("ledger mismatch (-want +got):\n%s", diff)
	}
	if result.Reference.Records != 3 || result.Reference.Indexed != 3 {
		t.Fatalf("unexpected reference summary: %+v", result.Reference)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := ledger.NewMemoryStore()
	driver := reconcile.New(store, logging.NewNop(), options())

	if _, err := driver.Run(context.Background(), chicago(), references(), &recordingReporter{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := driver.Run(context.Background(), chicago(), references(), &recordingReporter{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.NewlyUnmatched) != 0 {
		t.Fatalf("expected nothing newly unmatched on rerun, got %v", surfacedIDs(second))
	}
	if len(second.NearMisses) != 0 {
		t.Fatalf("expected no near misses on rerun, got %v", second.NearMisses)
	}
	if got := second.Totals().AlreadyReported; got != 2 {
		t.Fatalf("already reported = %d, want 2", got)
	}
	if second.Recorded != 0 {
		t.Fatalf("expected no ledger writes, got %d", second.Recorded)
	}
}

func TestRunIsIncremental(t *testing.T) {
	store := ledger.NewMemoryStore()
	driver := reconcile.New(store, logging.NewNop(), options())

	if _, err := driver.Run(context.Background(), chicago(), references(), &recordingReporter{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	added := rec("c5", "2023-11-20", "Lee Park", "40 Clark St", "60610", "A", "M", "27")
	result, err := driver.Run(context.Background(), chicago(added), references(), &recordingReporter{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff([]string{"chicago/c5"}, surfacedIDs(result)); diff != "" {
		t.Fatalf("surfaced mismatch (-want +got):\n%s", diff)
	}
	if len(store.Keys()) != 3 {
		t.Fatalf("expected three ledger entries, got %v", store.Keys())
	}
}

func TestRunEmitFailureLeavesLedgerUntouched(t *testing.T) {
	store := ledger.NewMemoryStore()
	reporter := &recordingReporter{err: errors.New("disk full")}

	_, err := reconcile.New(store, logging.NewNop(), options()).Run(context.Background(), chicago(), references(), reporter)
	if err == nil {
		t.Fatal("expected emit failure")
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Fatalf("expected empty ledger, got %v", keys)
	}

	result, err := reconcile.New(store, logging.NewNop(), options()).Run(context.Background(), chicago(), references(), &recordingReporter{})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(result.NewlyUnmatched) != 2 {
		t.Fatalf("expected retry to surface both incidents, got %v", surfacedIDs(result))
	}
}

func TestRunLedgerReadFailureIsFatal(t *testing.T) {
	store := ledger.NewMemoryStore()
	store.FailRead = ledger.ErrUnavailable
	reporter := &recordingReporter{}

	_, err := reconcile.New(store, logging.NewNop(), options()).Run(context.Background(), chicago(), references(), reporter)
	if !errors.Is(err, ledger.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if reporter.calls != 0 {
		t.Fatalf("expected no report on ledger failure, got %d calls", reporter.calls)
	}
}

func TestRunLedgerWriteFailureAfterEmit(t *testing.T) {
	store := ledger.NewMemoryStore()
	store.FailRecord = errors.New("readonly")
	reporter := &recordingReporter{}

	_, err := reconcile.New(store, logging.NewNop(), options()).Run(context.Background(), chicago(), references(), reporter)
	if err == nil {
		t.Fatal("expected record failure")
	}
	if reporter.calls != 1 {
		t.Fatalf("expected report emitted before ledger write, got %d", reporter.calls)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func(refs referenceSource, workers int) *reconcile.Result {
		opts := options()
		opts.Workers = workers
		result, err := reconcile.New(ledger.NewMemoryStore(), logging.NewNop(), opts).Run(context.Background(), chicago(), refs, &recordingReporter{})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	base := run(references(), 1)
	reversed := references()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	for _, other := range []*reconcile.Result{run(reversed, 1), run(references(), 8), run(reversed, 3)} {
		if diff := cmp.Diff(surfacedIDs(base), surfacedIDs(other)); diff != "" {
			t.Fatalf("surfaced differs (-base +other):\n%s", diff)
		}
		if diff := cmp.Diff(base.Datasets, other.Datasets); diff != "" {
			t.Fatalf("summaries differ (-base +other):\n%s", diff)
		}
		if diff := cmp.Diff(nearMissIDs(base), nearMissIDs(other)); diff != "" {
			t.Fatalf("near misses differ (-base +other):\n%s", diff)
		}
	}
}

func nearMissIDs(result *reconcile.Result) map[string][]string {
	out := make(map[string][]string, len(result.NearMisses))
	for id, list := range result.NearMisses {
		refs := make([]string, 0, len(list))
		for _, c := range list {
			refs = append(refs, c.Reference.ID)
		}
		sort.Strings(refs)
		out[id.String()] = refs
	}
	return out
}

func TestRunReexamineSurfacesReportedIncident(t *testing.T) {
	c3 := incident.IncidentID{Dataset: "chicago", CaseID: "c3"}
	c1 := incident.IncidentID{Dataset: "chicago", CaseID: "c1"}
	store := ledger.NewMemoryStore(ledger.Entry{ID: c3, RunID: "run-0"})

	opts := options()
	opts.Reexamine = []incident.IncidentID{c3, c1}
	result, err := reconcile.New(store, logging.NewNop(), opts).Run(context.Background(), chicago(), references(), &recordingReporter{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"chicago/c3", "chicago/c4"}, surfacedIDs(result)); diff != "" {
		t.Fatalf("surfaced mismatch (-want +got):\n%s", diff)
	}
	if !result.NewlyUnmatched[0].Reexamined || result.NewlyUnmatched[1].Reexamined {
		t.Fatalf("unexpected reexamined flags: %+v", result.NewlyUnmatched)
	}
	if result.Recorded != 1 {
		t.Fatalf("expected only c4 recorded, got %d", result.Recorded)
	}

	entries, err := store.List(context.Background(), ledger.Filter{RunID: "run-0"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != c3 {
		t.Fatalf("expected original c3 entry preserved, got %+v", entries)
	}
}

func TestRunDryRunSkipsLedgerWrite(t *testing.T) {
	store := ledger.NewMemoryStore()
	opts := options()
	opts.DryRun = true

	reporter := &recordingReporter{}
	result, err := reconcile.New(store, logging.NewNop(), opts).Run(context.Background(), chicago(), references(), reporter)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.DryRun || len(result.NewlyUnmatched) != 2 || result.Recorded != 0 {
		t.Fatalf("unexpected dry run result: %+v", result)
	}
	if reporter.calls != 1 {
		t.Fatalf("expected report on dry run, got %d", reporter.calls)
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("dry run wrote ledger: %v", store.Keys())
	}

	if _, err := reconcile.New(store, logging.NewNop(), opts).Run(context.Background(), chicago(), references(), nil); err != nil {
		t.Fatalf("dry run without reporter: %v", err)
	}
}

func TestRunRequiresReporter(t *testing.T) {
	_, err := reconcile.New(ledger.NewMemoryStore(), logging.NewNop(), options()).Run(context.Background(), chicago(), references(), nil)
	if !errors.Is(err, reconcile.ErrNoReporter) {
		t.Fatalf("expected ErrNoReporter, got %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := ledger.NewMemoryStore()
	reporter := &recordingReporter{}
	if _, err := reconcile.New(store, logging.NewNop(), options()).Run(ctx, chicago(), references(), reporter); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if reporter.calls != 0 || len(store.Keys()) != 0 {
		t.Fatalf("cancelled run had side effects: calls=%d keys=%v", reporter.calls, store.Keys())
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Workers = 6
	cfg.Matching.DayWindow = 5
	cfg.Matching.IncludeSameDay = false
	cfg.Matching.NameThreshold = 0.9
	cfg.Matching.AllowMissingLocation = true
	cfg.Matching.RaceEquivalences = [][]string{{"ASIAN", "AAPI"}}

	opts := reconcile.OptionsFromConfig(&cfg)
	if opts.Workers != 6 || opts.Index.DayWindow != 5 || opts.Index.IncludeSameDay {
		t.Fatalf("unexpected index options: %+v", opts)
	}
	if opts.Policy.NameThreshold != 0.9 || !opts.Policy.AllowMissingLocation {
		t.Fatalf("unexpected policy: %+v", opts.Policy)
	}
	want := [][2]incident.Race{{incident.RaceAsian, incident.RaceAAPI}}
	if diff := cmp.Diff(want, opts.Policy.RaceEquivalences); diff != "" {
		t.Fatalf("race equivalences mismatch (-want +got):\n%s", diff)
	}
}
