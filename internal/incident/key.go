package incident

import (
	"fmt"
	"time"
)

// Date is a calendar date whose parts may be only partially trusted.
// Year 0 means the date could not be read at all.
type Date struct {
	Year               int
	Month              int
	Day                int
	MonthLowConfidence bool
	DayLowConfidence   bool
}

// Known reports whether the year was read.
func (d Date) Known() bool {
	return d.Year > 0
}

// Complete reports whether year, month, and day are all trusted.
func (d Date) Complete() bool {
	return d.Known() && !d.MonthLowConfidence && !d.DayLowConfidence
}

// Time converts the date to midnight UTC. Missing parts default to 1.
func (d Date) Time() time.Time {
	month, day := d.Month, d.Day
	if month < 1 {
		month = 1
	}
	if day < 1 {
		day = 1
	}
	return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	switch {
	case !d.Known():
		return ""
	case d.MonthLowConfidence:
		return fmt.Sprintf("%04d", d.Year)
	case d.DayLowConfidence:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// Location is the normalized place of an incident.
type Location struct {
	State        string
	Zip          string
	HouseNumber  string
	StreetTokens []string
}

// HasStreet reports whether any street tokens were recovered.
func (l Location) HasStreet() bool {
	return len(l.StreetTokens) > 0
}

// AgeRange is an inclusive age interval. A single age has Min == Max.
type AgeRange struct {
	Min   int
	Max   int
	Known bool
}

// Overlaps reports whether the ranges intersect after widening both by slack.
func (a AgeRange) Overlaps(b AgeRange, slack int) bool {
	if !a.Known || !b.Known {
		return false
	}
	return a.Min-slack <= b.Max && b.Min-slack <= a.Max
}

func (a AgeRange) String() string {
	switch {
	case !a.Known:
		return ""
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	default:
		return fmt.Sprintf("%d-%d", a.Min, a.Max)
	}
}

// NormalizedKey is the canonical comparable form of a record.
type NormalizedKey struct {
	Date       Date
	Location   Location
	NameTokens []string
	Race       Race
	Gender     Gender
	Age        AgeRange
}
