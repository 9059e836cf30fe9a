package matcher

import (
	"testing"

	"crosscheck/internal/incident"
	"crosscheck/internal/normalize"
)

func TestCompareDate(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name string
		a, b string
		want incident.FieldResult
	}{
		{"identical", "2023-04-05", "04/05/2023", incident.Exact},
		{"one day apart", "2023-04-05", "2023-04-06", incident.Fuzzy},
		{"two days apart", "2023-04-05", "2023-04-07", incident.Mismatch},
		{"day and month swapped", "2023-04-05", "2023-05-04", incident.Fuzzy},
		{"month off by one", "2023-04-05", "2023-03-05", incident.Fuzzy},
		{"across new year", "2023-12-31", "2024-01-01", incident.Fuzzy},
		{"month only agrees", "2023-04", "2023-04-20", incident.Fuzzy},
		{"month only disagrees", "2023-04", "2023-06-20", incident.Mismatch},
		{"year only agrees", "2023", "2023-04-05", incident.Fuzzy},
		{"year only against month", "2023-04", "2023", incident.Fuzzy},
		{"year only disagrees", "2022", "2023-04-05", incident.Mismatch},
		{"unreadable", "soon", "2023-04-05", incident.Missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareDate(normalize.Date(tt.a), normalize.Date(tt.b), p)
			if got != tt.want {
				t.Fatalf("compareDate(%q, %q) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareDateHonorsPolicyFlags(t *testing.T) {
	p := DefaultPolicy()
	p.AllowDaySwap = false
	p.AllowMonthError = false
	if got := compareDate(normalize.Date("2023-04-05"), normalize.Date("2023-05-04"), p); got != incident.Mismatch {
		t.Fatalf("swap with swaps disabled = %s, want mismatch", got)
	}
	if got := compareDate(normalize.Date("2023-04-05"), normalize.Date("2023-03-05"), p); got != incident.Mismatch {
		t.Fatalf("month shift with shifts disabled = %s, want mismatch", got)
	}
}

func TestCompareLocation(t *testing.T) {
	p := DefaultPolicy()
	loc := func(address, zip string) incident.Location {
		return normalize.Location("IL", address, zip)
	}
	tests := []struct {
		name string
		a, b incident.Location
		want incident.FieldResult
	}{
		{"same zip", loc("", "60614"), loc("999 Elsewhere Rd", "60614-0001"), incident.Exact},
		{"same house and street", loc("123 Main St", ""), loc("123 Main Street", ""), incident.Exact},
		{"different street names", loc("100 N Main St", ""), loc("200 N Oak St", ""), incident.Mismatch},
		{"intersection reordered", loc("W 37th St & Broadway", ""), loc("Broadway and 37th Street", ""), incident.Fuzzy},
		{"misspelled street", loc("500 Halstead St", "60607"), loc("520 S Halsted St", "60608"), incident.Fuzzy},
		{"different zips only", loc("", "60614"), loc("", "60615"), incident.Mismatch},
		{"street against zip", loc("123 Main St", ""), loc("", "60614"), incident.Missing},
		{"nothing", loc("", ""), loc("", ""), incident.Missing},
		{"different states", normalize.Location("IL", "", "60614"), normalize.Location("IN", "", "60614"), incident.Mismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareLocation(tt.a, tt.b, p); got != tt.want {
				t.Fatalf("compareLocation = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompareName(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name string
		a, b string
		want incident.FieldResult
	}{
		{"reordered", "Smith, John", "John Smith", incident.Exact},
		{"one letter off", "Jon Smith", "John Smith", incident.Fuzzy},
		{"initial", "J. Smith", "John Smith", incident.Fuzzy},
		{"middle name added", "John Michael Smith", "John Smith", incident.Fuzzy},
		{"surname only", "Smith", "John Smith", incident.Fuzzy},
		{"different people", "Maria Lopez", "John Smith", incident.Mismatch},
		{"shared tokens in a much longer name", "John Smith", "Alexander John Montgomery Fitzgerald Smith", incident.Mismatch},
		{"withheld", "Name withheld", "John Smith", incident.Missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareName(normalize.Name(tt.a), normalize.Name(tt.b), p)
			if got != tt.want {
				t.Fatalf("compareName(%q, %q) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareDemographics(t *testing.T) {
	p := DefaultPolicy()

	raceTests := []struct {
		a, b incident.Race
		want incident.FieldResult
	}{
		{incident.RaceBlack, incident.RaceBlack, incident.Exact},
		{incident.RaceAsian, incident.RaceAAPI, incident.Exact},
		{incident.RaceAAPI, incident.RacePacificIslander, incident.Exact},
		{incident.RaceWhite, incident.RaceBlack, incident.Mismatch},
		{incident.RaceUnknown, incident.RaceBlack, incident.Missing},
		{incident.RaceOther, incident.RaceWhite, incident.Missing},
	}
	for _, tt := range raceTests {
		if got := compareRace(tt.a, tt.b, p); got != tt.want {
			t.Errorf("compareRace(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}

	if got := compareGender(incident.GenderMale, incident.GenderFemale); got != incident.Mismatch {
		t.Errorf("compareGender(male, female) = %s", got)
	}
	if got := compareGender(incident.GenderUnknown, incident.GenderFemale); got != incident.Missing {
		t.Errorf("compareGender(unknown, female) = %s", got)
	}

	ageTests := []struct {
		a, b string
		want incident.FieldResult
	}{
		{"30-39", "34", incident.Exact},
		{"30", "32", incident.Fuzzy},
		{"30", "40", incident.Mismatch},
		{"", "40", incident.Missing},
	}
	for _, tt := range ageTests {
		if got := compareAge(normalize.Age(tt.a), normalize.Age(tt.b), p); got != tt.want {
			t.Errorf("compareAge(%q, %q) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPolicyNormalizedRepairsOutOfRangeValues(t *testing.T) {
	p := Policy{
		DateToleranceDays: -1,
		AddressThreshold:  3,
		NameThreshold:     0,
		MaxAgeDiff:        -4,
	}.normalized()
	d := DefaultPolicy()
	if p.DateToleranceDays != d.DateToleranceDays || p.AddressThreshold != d.AddressThreshold ||
		p.NameThreshold != d.NameThreshold || p.MaxAgeDiff != d.MaxAgeDiff {
		t.Fatalf("policy not repaired: %+v", p)
	}
	if len(p.RaceEquivalences) != len(d.RaceEquivalences) {
		t.Fatalf("expected default race equivalences, got %v", p.RaceEquivalences)
	}

	none := Policy{RaceEquivalences: [][2]incident.Race{}}.normalized()
	if none.racesEquivalent(incident.RaceAsian, incident.RaceAAPI) {
		t.Fatal("explicitly empty equivalences must disable the default pairs")
	}
}
