package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"crosscheck/internal/config"
	"crosscheck/internal/incident"
	"crosscheck/internal/normalize"
)

// Stats counts what a dataset loader kept and why it dropped rows.
type Stats struct {
	Rows       int
	Kept       int
	NotFatal   int
	NotSubject int
	BeforeMin  int
	Duplicates int
}

// LoadDataset reads one primary CSV and applies its cleaning filters.
func LoadDataset(ctx context.Context, cfg config.Dataset) (incident.Dataset, Stats, error) {
	t, err := readTable(cfg.Path)
	if err != nil {
		return incident.Dataset{}, Stats{}, err
	}
	return datasetRecords(ctx, t, cfg)
}

func datasetRecords(ctx context.Context, t *table, cfg config.Dataset) (incident.Dataset, Stats, error) {
	get, err := t.bind(cfg.Columns)
	if err != nil {
		return incident.Dataset{}, Stats{}, err
	}
	fatal, err := t.column(cfg.FatalColumn)
	if err != nil {
		return incident.Dataset{}, Stats{}, err
	}
	role, err := t.column(cfg.RoleColumn)
	if err != nil {
		return incident.Dataset{}, Stats{}, err
	}
	var minDate time.Time
	if cfg.MinDate != "" {
		if minDate, err = time.Parse(config.DateLayout, cfg.MinDate); err != nil {
			return incident.Dataset{}, Stats{}, fmt.Errorf("dataset %s: min_date: %w", cfg.ID, err)
		}
	}
	fatalValues := valueSet(cfg.FatalValues)
	subjectValues := valueSet(cfg.SubjectValues)

	ds := incident.Dataset{
		ID:     cfg.ID,
		Agency: cfg.Agency,
		State:  cfg.State,
		Source: t.path,
	}
	stats := Stats{Rows: len(t.rows)}
	subjects := make(map[string]struct{}, len(t.rows))
	ids := make(map[string]struct{}, len(t.rows))

	for i, row := range t.rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return incident.Dataset{}, Stats{}, err
			}
		}
		if cfg.FatalColumn != "" && !inSet(fatalValues, fatal(row)) {
			stats.NotFatal++
			continue
		}
		if cfg.RoleColumn != "" && !inSet(subjectValues, role(row)) {
			stats.NotSubject++
			continue
		}

		rec := incident.IncidentRecord{
			Dataset: cfg.ID,
			CaseID:  get.caseID(row),
			Agency:  firstNonEmpty(get.agency(row), cfg.Agency),
			State:   firstNonEmpty(get.state(row), cfg.State),
			Date:    get.date(row),
			Address: get.address(row),
			Zip:     get.zip(row),
			Name:    get.name(row),
			Race:    get.race(row),
			Gender:  get.gender(row),
			Age:     get.age(row),
			Fields:  t.fields(row),
		}
		if !minDate.IsZero() && before(normalize.Date(rec.Date), minDate) {
			stats.BeforeMin++
			continue
		}
		sig := subjectSignature(rec)
		if _, dup := subjects[sig]; dup {
			stats.Duplicates++
			continue
		}
		subjects[sig] = struct{}{}

		if rec.CaseID == "" {
			rec.CaseID = syntheticID(rec.State, rec.Date, rec.Address, rec.Zip, rec.Name, rec.Race, rec.Gender, rec.Age)
		}
		rec.CaseID = uniqueCaseID(ids, rec.CaseID)
		ids[rec.CaseID] = struct{}{}
		ds.Records = append(ds.Records, rec)
	}
	stats.Kept = len(ds.Records)
	return ds, stats, nil
}

// before reports whether every day the date could denote precedes floor.
// Unreadable dates are never before anything.
func before(d incident.Date, floor time.Time) bool {
	if !d.Known() {
		return false
	}
	var latest time.Time
	switch {
	case d.MonthLowConfidence || d.Month == 0:
		latest = time.Date(d.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	case d.DayLowConfidence || d.Day == 0:
		latest = time.Date(d.Year, time.Month(d.Month)+1, 0, 0, 0, 0, 0, time.UTC)
	default:
		latest = d.Time()
	}
	return latest.Before(floor)
}

// subjectSignature identifies one subject of one incident. Rows that agree
// on every subject field are the same person listed twice.
func subjectSignature(rec incident.IncidentRecord) string {
	date := normalize.Date(rec.Date).String()
	if date == "" {
		date = rec.Date
	}
	parts := []string{date, rec.Name, rec.Race, rec.Gender, rec.Age, rec.Address, rec.Zip}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.Join(strings.Fields(p), " "))
	}
	return strings.Join(parts, "\x1f")
}

// uniqueCaseID keeps distinct subjects of one case apart by suffixing the
// second and later ones as "<case>#2", "<case>#3" in row order.
func uniqueCaseID(taken map[string]struct{}, id string) string {
	candidate := id
	for n := 2; ; n++ {
		if _, used := taken[candidate]; !used {
			return candidate
		}
		candidate = fmt.Sprintf("%s#%d", id, n)
	}
}

// syntheticID derives a stable id from a row's identifying fields.
func syntheticID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])[:16]
}

func valueSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return out
}

func inSet(set map[string]struct{}, value string) bool {
	_, ok := set[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
