package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"crosscheck/internal/incident"
)

const maxAge = 120

var raceCodes = map[string]incident.Race{
	"W":                                         incident.RaceWhite,
	"WHITE":                                     incident.RaceWhite,
	"CAUCASIAN":                                 incident.RaceWhite,
	"WHITE NON HISPANIC":                        incident.RaceWhite,
	"EUROPEAN AMERICAN":                         incident.RaceWhite,
	"B":                                         incident.RaceBlack,
	"BLACK":                                     incident.RaceBlack,
	"AFRICAN AMERICAN":                          incident.RaceBlack,
	"BLACK OR AFRICAN AMERICAN":                 incident.RaceBlack,
	"BLACK NON HISPANIC":                        incident.RaceBlack,
	"H":                                         incident.RaceHispanic,
	"L":                                         incident.RaceHispanic,
	"HISPANIC":                                  incident.RaceHispanic,
	"LATINO":                                    incident.RaceHispanic,
	"LATINA":                                    incident.RaceHispanic,
	"LATINX":                                    incident.RaceHispanic,
	"HISPANIC LATINO":                           incident.RaceHispanic,
	"HISPANIC OR LATINO":                        incident.RaceHispanic,
	"WHITE HISPANIC":                            incident.RaceHispanic,
	"BLACK HISPANIC":                            incident.RaceHispanic,
	"A":                                         incident.RaceAsian,
	"ASIAN":                                     incident.RaceAsian,
	"ASIAN AMERICAN":                            incident.RaceAsian,
	"P":                                         incident.RacePacificIslander,
	"PI":                                        incident.RacePacificIslander,
	"PACIFIC ISLANDER":                          incident.RacePacificIslander,
	"HAWAIIAN":                                  incident.RacePacificIslander,
	"NATIVE HAWAIIAN":                           incident.RacePacificIslander,
	"NATIVE HAWAIIAN OR OTHER PACIFIC ISLANDER": incident.RacePacificIslander,
	"AAPI":                                      incident.RaceAAPI,
	"API":                                       incident.RaceAAPI,
	"ASIAN PACIFIC ISLANDER":                    incident.RaceAAPI,
	"ASIAN OR PACIFIC ISLANDER":                 incident.RaceAAPI,
	"ASIAN PACIFIC ISLANDER AMERICAN":           incident.RaceAAPI,
	"N":                                         incident.RaceNativeAmerican,
	"I":                                         incident.RaceNativeAmerican,
	"NATIVE AMERICAN":                           incident.RaceNativeAmerican,
	"AMERICAN INDIAN":                           incident.RaceNativeAmerican,
	"AMERICAN INDIAN OR ALASKA NATIVE":          incident.RaceNativeAmerican,
	"AMERICAN INDIAN ALASKA NATIVE":             incident.RaceNativeAmerican,
	"ALASKA NATIVE":                             incident.RaceNativeAmerican,
	"INDIGENOUS":                                incident.RaceNativeAmerican,
	"M":                                         incident.RaceMultiple,
	"MULTI":                                     incident.RaceMultiple,
	"MULTIRACIAL":                               incident.RaceMultiple,
	"MULTI RACIAL":                              incident.RaceMultiple,
	"TWO OR MORE RACES":                         incident.RaceMultiple,
	"MIXED":                                     incident.RaceMultiple,
	"BIRACIAL":                                  incident.RaceMultiple,
	"O":                                         incident.RaceOther,
	"OTHER":                                     incident.RaceOther,
	"SOME OTHER RACE":                           incident.RaceOther,
	"U":                                         incident.RaceUnknown,
	"UNK":                                       incident.RaceUnknown,
	"UNKNOWN":                                   incident.RaceUnknown,
	"UNSPECIFIED":                               incident.RaceUnknown,
	"NOT SPECIFIED":                             incident.RaceUnknown,
	"PENDING RELEASE":                           incident.RaceUnknown,
	"NOT AVAILABLE":                             incident.RaceUnknown,
	"N A":                                       incident.RaceUnknown,
}

var genderCodes = map[string]incident.Gender{
	"M":                  incident.GenderMale,
	"MALE":               incident.GenderMale,
	"MAN":                incident.GenderMale,
	"BOY":                incident.GenderMale,
	"TRANSGENDER MALE":   incident.GenderMale,
	"TRANS MAN":          incident.GenderMale,
	"F":                  incident.GenderFemale,
	"FEMALE":             incident.GenderFemale,
	"WOMAN":              incident.GenderFemale,
	"GIRL":               incident.GenderFemale,
	"TRANSGENDER FEMALE": incident.GenderFemale,
	"TRANS WOMAN":        incident.GenderFemale,
	"X":                  incident.GenderNonbinary,
	"NB":                 incident.GenderNonbinary,
	"NONBINARY":          incident.GenderNonbinary,
	"NON BINARY":         incident.GenderNonbinary,
	"O":                  incident.GenderOther,
	"OTHER":              incident.GenderOther,
}

var raceSeparators = regexp.MustCompile(`\s*(?:,|;|/|&|\band\b)\s*`)

// Race maps a race or ethnicity code to its category. Values listing several
// categories collapse to the single category they share; a Hispanic
// component takes precedence as ethnicity; Asian plus Pacific Islander is
// AAPI; anything else with two known parts is MULTIPLE.
func Race(value string) incident.Race {
	key := codeKey(value)
	if key == "" {
		return incident.RaceUnknown
	}
	if race, ok := raceCodes[key]; ok {
		return race
	}

	parts := raceSeparators.Split(strings.ToLower(fold(value)), -1)
	if len(parts) < 2 {
		return incident.RaceUnknown
	}
	seen := map[incident.Race]struct{}{}
	for _, part := range parts {
		race, ok := raceCodes[codeKey(part)]
		if !ok || !race.Known() {
			continue
		}
		seen[race] = struct{}{}
	}
	switch {
	case len(seen) == 0:
		return incident.RaceUnknown
	case hasRace(seen, incident.RaceHispanic):
		return incident.RaceHispanic
	case len(seen) == 1:
		for race := range seen {
			return race
		}
	case len(seen) == 2 && hasRace(seen, incident.RaceAsian) && hasRace(seen, incident.RacePacificIslander):
		return incident.RaceAAPI
	}
	return incident.RaceMultiple
}

func hasRace(set map[incident.Race]struct{}, race incident.Race) bool {
	_, ok := set[race]
	return ok
}

// Gender maps a gender code to its category.
func Gender(value string) incident.Gender {
	if gender, ok := genderCodes[codeKey(value)]; ok {
		return gender
	}
	return incident.GenderUnknown
}

var (
	agePlainPattern  = regexp.MustCompile(`^(\d{1,3})(?:\.\d+)?$`)
	ageRangePattern  = regexp.MustCompile(`^(\d{1,3})\s*(?:-|to|–)\s*(\d{1,3})$`)
	ageDecadePattern = regexp.MustCompile(`^(\d{1,2})0'?s$`)
	ageUnderPattern  = regexp.MustCompile(`^(?:under|<|less than|younger than)\s*(\d{1,3})$`)
	ageOverPattern   = regexp.MustCompile(`^(\d{1,3})\s*(?:\+|and over|and older|or older)$`)
	ageOverPrefix    = regexp.MustCompile(`^(?:over|>|older than)\s*(\d{1,3})$`)
)

// Age parses a single age, an inclusive range, a decade ("30s"), or an
// open-ended bound into an AgeRange.
func Age(value string) incident.AgeRange {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == "" {
		return incident.AgeRange{}
	}
	if m := agePlainPattern.FindStringSubmatch(text); m != nil {
		n := atoi(m[1])
		return ageRange(n, n)
	}
	if m := ageRangePattern.FindStringSubmatch(text); m != nil {
		lo, hi := atoi(m[1]), atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return ageRange(lo, hi)
	}
	if m := ageDecadePattern.FindStringSubmatch(text); m != nil {
		lo := atoi(m[1]) * 10
		return ageRange(lo, lo+9)
	}
	if m := ageUnderPattern.FindStringSubmatch(text); m != nil {
		return ageRange(0, atoi(m[1])-1)
	}
	if m := ageOverPattern.FindStringSubmatch(text); m != nil {
		return ageRange(atoi(m[1]), maxAge)
	}
	if m := ageOverPrefix.FindStringSubmatch(text); m != nil {
		return ageRange(atoi(m[1])+1, maxAge)
	}
	return incident.AgeRange{}
}

func ageRange(lo, hi int) incident.AgeRange {
	if lo < 0 || hi > maxAge || lo > hi {
		return incident.AgeRange{}
	}
	return incident.AgeRange{Min: lo, Max: hi, Known: true}
}

func atoi(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}
