package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"crosscheck/internal/incident"
)

const (
	minYear = 1900
	maxYear = 2100
)

var dayLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006",
	"1/2/06",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1-2-2006",
	"1-2-06",
	"2006/1/2",
	"20060102",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
}

var monthLayouts = []string{
	"2006-01",
	"2006/01",
	"1/2006",
	"1-2006",
	"January 2006",
	"Jan 2006",
	"January, 2006",
	"Jan-06",
}

var (
	isoPrefixPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	yearPattern      = regexp.MustCompile(`^(\d{4})(?:\.0+)?$`)
	spacePattern     = regexp.MustCompile(`\s+`)
	monthDotReplacer = strings.NewReplacer("Sept.", "Sep", "Sept ", "Sep ", ".", "")
)

// Date parses a date written in any of the layouts seen in the source
// datasets. Time of day and zone are dropped. A month-only value marks the day
// low confidence; a bare year marks both month and day low confidence; an
// unreadable value returns the zero Date with both flags set.
func Date(value string) incident.Date {
	value = strings.TrimSpace(spacePattern.ReplaceAllString(value, " "))
	if value == "" {
		return unreadableDate()
	}

	candidates := []string{value}
	if cleaned := monthDotReplacer.Replace(value); cleaned != value {
		candidates = append(candidates, cleaned)
	}

	for _, candidate := range candidates {
		for _, layout := range dayLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return fromTime(t, false)
			}
		}
	}
	for _, candidate := range candidates {
		for _, layout := range monthLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return fromTime(t, true)
			}
		}
	}

	if m := isoPrefixPattern.FindStringSubmatch(value); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if validDay(year, month, day) {
			return incident.Date{Year: year, Month: month, Day: day}
		}
	}

	if m := yearPattern.FindStringSubmatch(value); m != nil {
		year, _ := strconv.Atoi(m[1])
		if year >= minYear && year <= maxYear {
			return incident.Date{Year: year, MonthLowConfidence: true, DayLowConfidence: true}
		}
	}

	return unreadableDate()
}

func fromTime(t time.Time, monthOnly bool) incident.Date {
	if t.Year() < minYear || t.Year() > maxYear {
		return unreadableDate()
	}
	d := incident.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
	if monthOnly {
		d.Day = 0
		d.DayLowConfidence = true
	}
	return d
}

func unreadableDate() incident.Date {
	return incident.Date{MonthLowConfidence: true, DayLowConfidence: true}
}

func validDay(year, month, day int) bool {
	if year < minYear || year > maxYear || month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Month() == time.Month(month) && t.Day() == day
}
