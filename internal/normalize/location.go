package normalize

import (
	"regexp"
	"strings"

	"crosscheck/internal/incident"
	"crosscheck/internal/textutil"
)

var (
	zipPattern      = regexp.MustCompile(`^(?:(\d{5})(?:-?\d{4})?|(\d{3,4}))(?:\.0+)?$`)
	unitPattern     = regexp.MustCompile(`\b(?:apt|apartment|unit|suite|ste|rm|room|lot|trlr|bldg|building|fl|floor|space|spc)\b\.?\s*#?\s*[a-z0-9-]*`)
	hashUnitPattern = regexp.MustCompile(`#\s*[a-z0-9-]+`)
	blockPattern    = regexp.MustCompile(`\b(\d+)\s*(?:hundred\s+)?block(?:\s+of)?\b`)
	maskedPattern   = regexp.MustCompile(`^(\d+)x+$`)
	ordinalPattern  = regexp.MustCompile(`^(\d+)(?:st|nd|rd|th)$`)
	digitsPattern   = regexp.MustCompile(`^\d+$`)
)

var streetAbbreviations = map[string]string{
	"st":    "street",
	"str":   "street",
	"ave":   "avenue",
	"av":    "avenue",
	"avn":   "avenue",
	"blvd":  "boulevard",
	"rd":    "road",
	"dr":    "drive",
	"ln":    "lane",
	"ct":    "court",
	"pl":    "place",
	"pkwy":  "parkway",
	"hwy":   "highway",
	"fwy":   "freeway",
	"expy":  "expressway",
	"cir":   "circle",
	"ter":   "terrace",
	"terr":  "terrace",
	"trl":   "trail",
	"sq":    "square",
	"cv":    "cove",
	"aly":   "alley",
	"xing":  "crossing",
	"hts":   "heights",
	"mt":    "mount",
	"ft":    "fort",
	"n":     "north",
	"s":     "south",
	"e":     "east",
	"w":     "west",
	"ne":    "northeast",
	"nw":    "northwest",
	"se":    "southeast",
	"sw":    "southwest",
	"i":     "interstate",
	"us":    "highway",
	"sr":    "highway",
	"rte":   "route",
	"rt":    "route",
	"hiway": "highway",
}

// connector words between intersecting streets carry no location.
var streetConnectors = map[string]struct{}{
	"and":          {},
	"at":           {},
	"of":           {},
	"near":         {},
	"the":          {},
	"block":        {},
	"intersection": {},
	"between":      {},
}

// Location normalizes the state, street address, and zip of an incident.
func Location(state, address, zip string) incident.Location {
	house, street := Street(address)
	return incident.Location{
		State:        State(state),
		Zip:          Zip(zip),
		HouseNumber:  house,
		StreetTokens: street,
	}
}

// Zip returns the five-digit zip code, left-padding codes whose leading
// zeros were lost in spreadsheet exports. Anything else returns "".
func Zip(value string) string {
	m := zipPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return ""
	}
	code := m[1]
	if code == "" {
		code = m[2]
	}
	for len(code) < 5 {
		code = "0" + code
	}
	if code == "00000" {
		return ""
	}
	return code
}

// Street splits an address into its leading house number and the remaining
// normalized street tokens. Intersections ("5th & Main") yield the tokens of
// both streets.
func Street(address string) (string, []string) {
	text := fold(address)
	if text == "" {
		return "", nil
	}
	text = strings.ReplaceAll(text, "'", "")
	text = strings.ReplaceAll(text, "&", " and ")
	text = strings.ReplaceAll(text, "@", " at ")
	text = unitPattern.ReplaceAllString(text, " ")
	text = hashUnitPattern.ReplaceAllString(text, " ")
	text = blockPattern.ReplaceAllString(text, "$1 ")

	raw := textutil.Tokenize(text)
	house := ""
	tokens := make([]string, 0, len(raw))
	for i, token := range raw {
		if _, ok := streetConnectors[token]; ok {
			continue
		}
		if m := maskedPattern.FindStringSubmatch(token); m != nil {
			token = m[1]
		}
		if i == 0 && digitsPattern.MatchString(token) && len(raw) > 1 && !isOrdinalStreet(raw, i) {
			house = strings.TrimLeft(token, "0")
			continue
		}
		if m := ordinalPattern.FindStringSubmatch(token); m != nil {
			token = m[1]
		}
		if expanded, ok := streetAbbreviations[token]; ok {
			token = expanded
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return house, nil
	}
	return house, tokens
}

// isOrdinalStreet reports whether a leading number names the street itself,
// as in "5 avenue" where the next token is a street type.
func isOrdinalStreet(raw []string, i int) bool {
	if i+1 >= len(raw) {
		return false
	}
	next := raw[i+1]
	switch streetAbbreviations[next] {
	case "street", "avenue", "road", "place", "terrace", "court", "lane", "drive":
		return true
	}
	switch next {
	case "street", "avenue", "road", "place", "terrace", "court", "lane", "drive":
		return true
	}
	return false
}

var genericStreetTokens = func() map[string]struct{} {
	out := make(map[string]struct{}, len(streetAbbreviations))
	for _, expanded := range streetAbbreviations {
		out[expanded] = struct{}{}
	}
	return out
}()

// IsGenericStreetToken reports whether token is a street type or direction
// ("street", "north", "highway") that says little about which street it is.
func IsGenericStreetToken(token string) bool {
	_, ok := genericStreetTokens[token]
	return ok
}
