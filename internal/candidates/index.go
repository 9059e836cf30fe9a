package candidates

import (
	"sort"
	"time"

	"crosscheck/internal/incident"
	"crosscheck/internal/normalize"
)

const day = 24 * time.Hour

// Options tunes the date filter applied inside a partition.
type Options struct {
	// DayWindow is the maximum distance in days between dates, applied to the
	// incident date and to each of its error variants.
	DayWindow int
	// IncludeSameDay keeps every record sharing the incident's day of month,
	// which feeds the possible-match listing.
	IncludeSameDay bool
}

// DefaultOptions returns the window used by the reconciliation driver.
func DefaultOptions() Options {
	return Options{DayWindow: 3, IncludeSameDay: true}
}

// Candidate pairs a reference record with its normalized key so the matcher
// never normalizes a reference twice.
type Candidate struct {
	Reference incident.ReferenceRecord
	Key       incident.NormalizedKey
}

type partitionKey struct {
	state string
	year  int
}

// Index is the read-only blocking structure built once per run.
type Index struct {
	opts       Options
	entries    []Candidate
	partitions map[partitionKey][]int
	skipped    int
}

// Build normalizes and partitions the reference records. Records without a
// recognizable state or year cannot be blocked and are counted as skipped.
func Build(refs []incident.ReferenceRecord, opts Options) *Index {
	if opts.DayWindow < 0 {
		opts.DayWindow = 0
	}
	ix := &Index{
		opts:       opts,
		entries:    make([]Candidate, 0, len(refs)),
		partitions: make(map[partitionKey][]int),
	}
	for _, ref := range refs {
		key := normalize.Reference(ref)
		if key.Location.State == "" || !key.Date.Known() {
			ix.skipped++
			continue
		}
		pk := partitionKey{state: key.Location.State, year: key.Date.Year}
		ix.partitions[pk] = append(ix.partitions[pk], len(ix.entries))
		ix.entries = append(ix.entries, Candidate{Reference: ref, Key: key})
	}
	return ix
}

// Len returns the number of indexed reference records.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Skipped returns the number of reference records that could not be indexed.
func (ix *Index) Skipped() int {
	return ix.skipped
}

// Partitions returns the number of distinct (state, year) partitions.
func (ix *Index) Partitions() int {
	return len(ix.partitions)
}

// Query returns the candidate pool for an incident key in index insertion
// order. A key without state or year yields an empty pool.
func (ix *Index) Query(key incident.NormalizedKey) []Candidate {
	if ix == nil || key.Location.State == "" || !key.Date.Known() {
		return nil
	}
	d := key.Date
	state := key.Location.State

	years := []int{d.Year}
	if d.Complete() {
		// Windows that reach across New Year consult the neighbouring partition.
		t := d.Time()
		window := time.Duration(ix.opts.DayWindow) * day
		if t.Add(-window).Year() != d.Year {
			years = append(years, d.Year-1)
		}
		if t.Add(window).Year() != d.Year {
			years = append(years, d.Year+1)
		}
	}

	var ids []int
	for _, year := range years {
		ids = append(ids, ix.partitions[partitionKey{state: state, year: year}]...)
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)

	pool := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		c := ix.entries[id]
		if ix.keep(d, c.Key.Date) {
			pool = append(pool, c)
		}
	}
	return pool
}

func (ix *Index) keep(d, c incident.Date) bool {
	if d.MonthLowConfidence || c.MonthLowConfidence {
		return c.Year == d.Year
	}
	if d.DayLowConfidence || c.DayLowConfidence {
		return c.Year == d.Year && monthsRelated(d, c.Month)
	}
	if ix.opts.IncludeSameDay && c.Day == d.Day && c.Year == d.Year {
		return true
	}
	target := c.Time()
	window := time.Duration(ix.opts.DayWindow) * day
	for _, v := range Variants(d) {
		if absDuration(target.Sub(v)) <= window {
			return true
		}
	}
	return false
}

// monthsRelated reports whether month m equals d's month, is one month off, or
// equals d's day read as a month.
func monthsRelated(d incident.Date, m int) bool {
	diff := m - d.Month
	if diff >= -1 && diff <= 1 {
		return true
	}
	return !d.DayLowConfidence && d.Day == m
}

// Variants returns the incident date followed by its plausible data entry
// error variants: day and month transposed, and the month shifted by one in
// either direction with the same day. Variants that are not real calendar
// dates are omitted. The input must be Complete.
func Variants(d incident.Date) []time.Time {
	out := []time.Time{d.Time()}
	if d.Day <= 12 && d.Day != d.Month {
		if t, ok := calendarDate(d.Year, d.Day, d.Month); ok {
			out = append(out, t)
		}
	}
	for _, shift := range []int{-1, 1} {
		if t, ok := calendarDate(d.Year, d.Month+shift, d.Day); ok {
			out = append(out, t)
		}
	}
	return out
}

func calendarDate(year, month, dayOfMonth int) (time.Time, bool) {
	if month < 1 || month > 12 || dayOfMonth < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != month || t.Day() != dayOfMonth {
		return time.Time{}, false
	}
	return t, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
