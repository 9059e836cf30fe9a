package matcher

import (
	"time"

	"crosscheck/internal/incident"
	"crosscheck/internal/normalize"
	"crosscheck/internal/textutil"
)

const day = 24 * time.Hour

// commonTokenMinRatio is the token-sort floor a name must still clear when it
// qualifies on shared tokens.
const commonTokenMinRatio = 0.6

func compareDate(a, b incident.Date, p Policy) incident.FieldResult {
	if !a.Known() || !b.Known() {
		return incident.Missing
	}
	// A period date agrees with any date it contains.
	if a.MonthLowConfidence || b.MonthLowConfidence {
		if a.Year == b.Year {
			return incident.Fuzzy
		}
		return incident.Mismatch
	}
	if a.DayLowConfidence || b.DayLowConfidence {
		if a.Year == b.Year && a.Month == b.Month {
			return incident.Fuzzy
		}
		return incident.Mismatch
	}
	if a == b {
		return incident.Exact
	}

	tolerance := time.Duration(p.DateToleranceDays) * day
	target := b.Time()
	for _, v := range dateVariants(a, p) {
		if absDuration(target.Sub(v)) <= tolerance {
			return incident.Fuzzy
		}
	}
	return incident.Mismatch
}

// dateVariants returns a's date and the transcription errors the policy
// forgives. Impossible calendar dates are skipped.
func dateVariants(a incident.Date, p Policy) []time.Time {
	out := []time.Time{a.Time()}
	if p.AllowDaySwap && a.Day <= 12 && a.Day != a.Month {
		if t, ok := calendarDate(a.Year, a.Day, a.Month); ok {
			out = append(out, t)
		}
	}
	if p.AllowMonthError {
		for _, shift := range []int{-1, 1} {
			if t, ok := calendarDate(a.Year, a.Month+shift, a.Day); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

func compareLocation(a, b incident.Location, p Policy) incident.FieldResult {
	if a.State != "" && b.State != "" && a.State != b.State {
		return incident.Mismatch
	}
	bothZip := a.Zip != "" && b.Zip != ""
	bothStreet := a.HasStreet() && b.HasStreet()

	if bothZip && a.Zip == b.Zip {
		return incident.Exact
	}
	if bothStreet {
		if a.HouseNumber != "" && a.HouseNumber == b.HouseNumber && textutil.SameTokenSet(a.StreetTokens, b.StreetTokens) {
			return incident.Exact
		}
		if streetSimilarity(a.StreetTokens, b.StreetTokens, p) >= p.AddressThreshold {
			return incident.Fuzzy
		}
		return incident.Mismatch
	}
	if bothZip {
		return incident.Mismatch
	}
	return incident.Missing
}

// streetSimilarity scores street names on their distinctive tokens, so
// "N Main St" and "N Oak St" do not agree merely on "north" and "street".
func streetSimilarity(a, b []string, p Policy) float64 {
	da, db := distinctive(a), distinctive(b)
	if len(da) == 0 || len(db) == 0 {
		da, db = a, b
	}
	return textutil.OverlapCoefficient(da, db, func(x, y string) bool {
		return tokensAlike(x, y, p)
	})
}

func distinctive(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if normalize.IsGenericStreetToken(token) {
			continue
		}
		out = append(out, token)
	}
	return out
}

func tokensAlike(x, y string, p Policy) bool {
	if x == y {
		return true
	}
	if len(x) < 5 || len(y) < 5 {
		return false
	}
	return textutil.EditSimilarity(x, y) >= p.TokenSimilarity
}

func compareName(a, b []string, p Policy) incident.FieldResult {
	if len(a) == 0 || len(b) == 0 {
		return incident.Missing
	}
	if textutil.SameTokenSet(a, b) {
		return incident.Exact
	}
	ratio := textutil.TokenSortRatio(a, b)
	if ratio >= p.NameThreshold {
		return incident.Fuzzy
	}
	if textutil.CommonTokens(a, b) >= p.NameCommonTokens && ratio > commonTokenMinRatio {
		return incident.Fuzzy
	}
	if initialsCompatible(a, b, p) || surnameOnly(a, b) || surnameOnly(b, a) {
		return incident.Fuzzy
	}
	return incident.Mismatch
}

// initialsCompatible accepts "J Smith" against "John Smith": the last tokens
// agree and the first tokens agree or one is the other's initial.
func initialsCompatible(a, b []string, p Policy) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	if !tokensAlike(a[len(a)-1], b[len(b)-1], p) {
		return false
	}
	fa, fb := a[0], b[0]
	if fa == fb {
		return true
	}
	if (len(fa) == 1 || len(fb) == 1) && fa[0] == fb[0] {
		return true
	}
	return false
}

// surnameOnly accepts a single-token name equal to the other name's last
// token.
func surnameOnly(single, full []string) bool {
	return len(single) == 1 && len(full) > 1 && len(single[0]) > 1 && single[0] == full[len(full)-1]
}

func compareRace(a, b incident.Race, p Policy) incident.FieldResult {
	if !a.Known() || !b.Known() {
		return incident.Missing
	}
	if a == b || p.racesEquivalent(a, b) {
		return incident.Exact
	}
	return incident.Mismatch
}

func compareGender(a, b incident.Gender) incident.FieldResult {
	if !a.Known() || !b.Known() {
		return incident.Missing
	}
	if a == b {
		return incident.Exact
	}
	return incident.Mismatch
}

func compareAge(a, b incident.AgeRange, p Policy) incident.FieldResult {
	if !a.Known || !b.Known {
		return incident.Missing
	}
	if a.Overlaps(b, 0) {
		return incident.Exact
	}
	if a.Overlaps(b, p.MaxAgeDiff) {
		return incident.Fuzzy
	}
	return incident.Mismatch
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
