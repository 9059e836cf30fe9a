package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"crosscheck/internal/incident"
	"crosscheck/internal/ledger"
	"crosscheck/internal/testsupport"
)

func TestRunReportsAndRecords(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Newly unmatched: 2 (near misses: 1, recorded: 2)")
	requireContains(t, out, "chicago")

	files := reportFiles(t, env.cfg.Paths.ReportDir)
	if len(files) != 3 {
		t.Fatalf("expected dataset, consolidated, and possible-match reports, got %v", files)
	}
	for _, name := range files {
		if !strings.HasPrefix(name, "unmatched_chicago_") {
			continue
		}
		rows := testsupport.ReadCSV(t, filepath.Join(env.cfg.Paths.ReportDir, name))
		if len(rows) != 3 || rows[1][0] != "c2" || rows[2][len(rows[2])-1] != "chicago/c3" {
			t.Fatalf("unexpected dataset report rows: %v", rows)
		}
	}

	out, _, err = runCLI(t, []string{"ledger", "count"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger count: %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("ledger count = %q, want 2", out)
	}

	out, _, err = runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "Newly unmatched: 0")
}

func TestRunJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--json", "--workers", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("run --json: %v", err)
	}
	var payload runJSON
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}

	ids := make([]string, 0, len(payload.NewlyUnmatched))
	for _, u := range payload.NewlyUnmatched {
		ids = append(ids, u.ID)
	}
	if diff := cmp.Diff([]string{"chicago/c2", "chicago/c3"}, ids); diff != "" {
		t.Fatalf("unmatched mismatch (-want +got):\n%s", diff)
	}
	if len(payload.NewlyUnmatched[0].NearMisses) != 1 || payload.NewlyUnmatched[0].NearMisses[0].ReferenceID != "R2" {
		t.Fatalf("expected R2 near miss, got %+v", payload.NewlyUnmatched[0].NearMisses)
	}
	if payload.Totals.Matched != 1 || payload.Recorded != 2 || len(payload.Reports) != 3 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	requireContains(t, out, "dry run: yes")
	requireContains(t, out, "recorded: 0")

	if files := reportFiles(t, env.cfg.Paths.ReportDir); len(files) != 0 {
		t.Fatalf("dry run wrote reports: %v", files)
	}
	if _, err := os.Stat(env.cfg.Paths.LedgerPath); !os.IsNotExist(err) {
		t.Fatalf("dry run created the ledger: %v", err)
	}
	out, _, err = runCLI(t, []string{"ledger", "count"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger count: %v", err)
	}
	if strings.TrimSpace(out) != "0" {
		t.Fatalf("ledger count = %q, want 0", out)
	}
}

func TestRunDryRunReadsExistingLedger(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	before, err := os.ReadFile(env.cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}

	out, _, err := runCLI(t, []string{"run", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	requireContains(t, out, "Newly unmatched: 0")

	after, err := os.ReadFile(env.cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("dry run changed the ledger file")
	}
}

func TestRunReexamine(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenLedger(t, env.cfg)
	testsupport.SeedLedger(t, store, "earlier-run",
		incident.IncidentID{Dataset: "chicago", CaseID: "c2"},
		incident.IncidentID{Dataset: "chicago", CaseID: "c3"},
	)
	store.Close()

	out, _, err := runCLI(t, []string{"run", "--json", "--reexamine", "chicago/c2"}, env.configPath)
	if err != nil {
		t.Fatalf("run --reexamine: %v", err)
	}
	var payload runJSON
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(payload.NewlyUnmatched) != 1 || payload.NewlyUnmatched[0].ID != "chicago/c2" || !payload.NewlyUnmatched[0].Reexamined {
		t.Fatalf("unexpected reexamine payload: %+v", payload.NewlyUnmatched)
	}
	if payload.Recorded != 0 {
		t.Fatalf("expected no new ledger entries, got %d", payload.Recorded)
	}

	if _, _, err := runCLI(t, []string{"run", "--reexamine", "c2"}, env.configPath); err == nil {
		t.Fatal("expected invalid reexamine id to fail")
	}
}

func TestRunFailsWhenLedgerLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(filepath.Dir(env.cfg.Paths.LedgerPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	lock, err := ledger.AcquireLock(env.cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, ledger.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if files := reportFiles(t, env.cfg.Paths.ReportDir); len(files) != 0 {
		t.Fatalf("locked run wrote reports: %v", files)
	}
}

func TestRunFailsOnCorruptLedger(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(filepath.Dir(env.cfg.Paths.LedgerPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(env.cfg.Paths.LedgerPath, []byte("this is not a sqlite database at all, just text"), 0o644); err != nil {
		t.Fatalf("write corrupt ledger: %v", err)
	}

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, ledger.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if files := reportFiles(t, env.cfg.Paths.ReportDir); len(files) != 0 {
		t.Fatalf("corrupt-ledger run wrote reports: %v", files)
	}
}

func TestLedgerListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"ledger", "list", "--json", "--dataset", "chicago"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger list: %v", err)
	}
	var items []ledgerEntryJSON
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %+v", items)
	}

	out, _, err = runCLI(t, []string{"ledger", "list", "--dataset", "other"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger list other: %v", err)
	}
	requireContains(t, out, "Ledger is empty")

	store, err := ledger.Open(context.Background(), env.cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer store.Close()
	reported, err := store.HasBeenReported(context.Background(), incident.IncidentID{Dataset: "chicago", CaseID: "c3"})
	if err != nil || !reported {
		t.Fatalf("expected c3 reported, got %v %v", reported, err)
	}
}

func TestParseIncidentIDs(t *testing.T) {
	ids, err := parseIncidentIDs([]string{"chicago/c1", " dallas / 2024/7 "})
	if err != nil {
		t.Fatalf("parseIncidentIDs: %v", err)
	}
	want := []incident.IncidentID{{Dataset: "chicago", CaseID: "c1"}, {Dataset: "dallas", CaseID: "2024/7"}}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	for _, bad := range []string{"", "chicago", "/c1", "chicago/"} {
		if _, err := parseIncidentIDs([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
