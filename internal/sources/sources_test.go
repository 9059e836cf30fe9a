package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"crosscheck/internal/config"
	"crosscheck/internal/incident"
	"crosscheck/internal/logging"
	"crosscheck/internal/normalize"
)

const datasetCSV = `case,date,name,race,sex,age,location,outcome,role
A-1,2019-03-04,John Smith,B,M,34,100 Main St,Fatal,Subject
A-2,2019-03-05,Officer Jones,W,M,41,100 Main St,Fatal,Officer
A-3,2019-04-01,Mary Major,W,F,22,5 Oak Ave,Injured,Subject
A-4,2014-06-01,Old Case,W,M,50,1 Elm St,Fatal,Subject
A-1,2019-03-04,John Smith,B,M,34,100 Main St,Fatal,Subject
,2019-07-09,Pat Doe,H,F,29,9 Pine Rd,fatal,suspect
,not a date,Sam Roe,,,,,fatal,subject
,2014-12,Month Only,,,,,fatal,subject
`

func datasetConfig() config.Dataset {
	return config.Dataset{
		ID:     "Metro",
		Agency: "Metro PD",
		State:  "NV",
		Columns: config.Columns{
			CaseID:  "case",
			Date:    "date",
			Name:    "name",
			Race:    "race",
			Gender:  "sex",
			Age:     "age",
			Address: "location",
		},
		FatalColumn:   "outcome",
		FatalValues:   []string{"fatal"},
		RoleColumn:    "role",
		SubjectValues: []string{"subject", "suspect"},
		MinDate:       "2015-01-01",
	}
}

func mustParse(t *testing.T, content string) *table {
	t.Helper()
	tbl, err := parseTable("test.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("parseTable: %v", err)
	}
	return tbl
}

func TestDatasetFiltersAndIDs(t *testing.T) {
	ds, stats, err := datasetRecords(context.Background(), mustParse(t, datasetCSV), datasetConfig())
	if err != nil {
		t.Fatalf("datasetRecords: %v", err)
	}

	wantStats := Stats{Rows: 8, Kept: 3, NotFatal: 1, NotSubject: 1, BeforeMin: 2, Duplicates: 1}
	if diff := cmp.Diff(wantStats, stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	if ds.ID != "Metro" || ds.Agency != "Metro PD" || ds.State != "NV" {
		t.Fatalf("unexpected dataset header: %+v", ds)
	}
	if got := ds.Records[0]; got.CaseID != "A-1" || got.State != "NV" || got.Agency != "Metro PD" {
		t.Fatalf("unexpected first record: %+v", got)
	}
	if ds.Records[0].Gender != "M" || ds.Records[0].Address != "100 Main St" {
		t.Fatalf("columns not mapped: %+v", ds.Records[0])
	}
	if v, ok := ds.Records[0].Fields.Get("OUTCOME"); !ok || v != "Fatal" {
		t.Fatalf("expected original fields to travel with record, got %q %v", v, ok)
	}

	synthetic := ds.Records[1]
	if len(synthetic.CaseID) != 16 {
		t.Fatalf("expected 16 hex char synthetic id, got %q", synthetic.CaseID)
	}
	if ds.Records[2].Name != "Sam Roe" {
		t.Fatalf("expected unparseable date row kept, got %+v", ds.Records[2])
	}

	again, _, err := datasetRecords(context.Background(), mustParse(t, datasetCSV), datasetConfig())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if again.Records[1].CaseID != synthetic.CaseID {
		t.Fatalf("synthetic id not stable: %q vs %q", again.Records[1].CaseID, synthetic.CaseID)
	}
}

func TestDatasetKeepsDistinctSubjectsSharingCaseID(t *testing.T) {
	const content = `case,date,name,race,sex,age,location,outcome,role
C-9,2020-05-01,Alice Able,W,F,30,1 Main St,fatal,subject
C-9,2020-05-01,Bob Baker,B,M,41,1 Main St,fatal,subject
C-9,2020-05-01, alice  able ,W,F,30,1 Main St,fatal,subject
C-9#2,2020-06-01,Cy Cole,W,M,22,2 Elm St,fatal,subject
`
	ds, stats, err := datasetRecords(context.Background(), mustParse(t, content), datasetConfig())
	if err != nil {
		t.Fatalf("datasetRecords: %v", err)
	}
	if stats.Kept != 3 || stats.Duplicates != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	var got [][2]string
	for _, rec := range ds.Records {
		got = append(got, [2]string{rec.CaseID, rec.Name})
	}
	want := [][2]string{
		{"C-9", "Alice Able"},
		{"C-9#2", "Bob Baker"},
		{"C-9#2#2", "Cy Cole"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDatasetMissingColumn(t *testing.T) {
	cfg := datasetConfig()
	cfg.Columns.Zip = "zipcode"
	_, _, err := datasetRecords(context.Background(), mustParse(t, datasetCSV), cfg)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}

	cfg = datasetConfig()
	cfg.FatalColumn = "died"
	_, _, err = datasetRecords(context.Background(), mustParse(t, datasetCSV), cfg)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn for fatal column, got %v", err)
	}
}

func TestDatasetWithoutFilters(t *testing.T) {
	cfg := datasetConfig()
	cfg.FatalColumn = ""
	cfg.RoleColumn = ""
	cfg.MinDate = ""
	ds, stats, err := datasetRecords(context.Background(), mustParse(t, datasetCSV), cfg)
	if err != nil {
		t.Fatalf("datasetRecords: %v", err)
	}
	if stats.Kept != 7 || stats.Duplicates != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(ds.Records) != 7 {
		t.Fatalf("expected 7 records, got %d", len(ds.Records))
	}
}

func TestHeaderMatchingIgnoresCaseAndBOM(t *testing.T) {
	content := "\ufeffCase,DATE\nX-9,2020-01-02\n\n"
	cfg := config.Dataset{ID: "B", State: "CA", Columns: config.Columns{CaseID: "case", Date: "date"}}
	ds, _, err := datasetRecords(context.Background(), mustParse(t, content), cfg)
	if err != nil {
		t.Fatalf("datasetRecords: %v", err)
	}
	if len(ds.Records) != 1 || ds.Records[0].CaseID != "X-9" || ds.Records[0].Date != "2020-01-02" {
		t.Fatalf("unexpected records: %+v", ds.Records)
	}
}

func TestReferenceRecords(t *testing.T) {
	content := `Unique ID,Date,Name,State,Zip
101,3/4/2019,John Smith,NV,89101
101,3/4/2019,John Smith,NV,89101
,5/6/2020,Jane Roe,CA,
`
	cols := config.Columns{ID: "Unique ID", Date: "Date", Name: "Name", State: "State", Zip: "Zip"}
	refs, err := referenceRecords(context.Background(), mustParse(t, content), cols)
	if err != nil {
		t.Fatalf("referenceRecords: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected duplicate reference collapsed, got %d", len(refs))
	}
	if refs[0].ID != "101" || refs[0].Zip != "89101" || refs[0].State != "NV" {
		t.Fatalf("unexpected reference: %+v", refs[0])
	}
	if len(refs[1].ID) != 16 {
		t.Fatalf("expected synthetic reference id, got %q", refs[1].ID)
	}
}

func TestBefore(t *testing.T) {
	floor, _ := parseFloor("2015-01-01")
	cases := map[string]bool{
		"2014-12-31": true,
		"2015-01-01": false,
		"2014-12":    true,
		"2015-01":    false,
		"2014":       true,
		"2015":       false,
		"garbage":    false,
	}
	for value, want := range cases {
		if got := before(normalizeDate(value), floor); got != want {
			t.Errorf("before(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestCSVLoaderReadsFiles(t *testing.T) {
	dir := t.TempDir()
	dsPath := filepath.Join(dir, "metro.csv")
	refPath := filepath.Join(dir, "reference.csv")
	if err := os.WriteFile(dsPath, []byte(datasetCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	if err := os.WriteFile(refPath, []byte("id,date\nR1,2019-03-04\n"), 0o644); err != nil {
		t.Fatalf("write reference: %v", err)
	}

	cfg := config.Default()
	dsCfg := datasetConfig()
	dsCfg.Path = dsPath
	cfg.Datasets = []config.Dataset{dsCfg}
	cfg.Reference = config.Reference{Path: refPath, Columns: config.Columns{ID: "id", Date: "date"}}

	loader := NewCSVLoader(&cfg, logging.NewNop())
	datasets, err := loader.Datasets(context.Background())
	if err != nil {
		t.Fatalf("Datasets: %v", err)
	}
	if len(datasets) != 1 || len(datasets[0].Records) != 3 || datasets[0].Source != dsPath {
		t.Fatalf("unexpected datasets: %+v", datasets)
	}
	refs, err := loader.References(context.Background())
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(refs) != 1 || refs[0].ID != "R1" {
		t.Fatalf("unexpected refs: %+v", refs)
	}

	cfg.Datasets[0].Path = filepath.Join(dir, "missing.csv")
	if _, err := NewCSVLoader(&cfg, nil).Datasets(context.Background()); err == nil {
		t.Fatal("expected error for missing dataset file")
	}
}

func parseFloor(value string) (time.Time, error) {
	return time.Parse(config.DateLayout, value)
}

func normalizeDate(value string) incident.Date {
	return normalize.Date(value)
}
