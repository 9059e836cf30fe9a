package normalize

import (
	"strings"

	"crosscheck/internal/textutil"
)

var nameSeparators = strings.NewReplacer(
	"'", "",
	"’", "",
	"`", "",
	"-", " ",
	",", " ",
	".", " ",
	"\"", " ",
	"(", " ",
	")", " ",
)

var nameAffixes = map[string]struct{}{
	"mr":   {},
	"mrs":  {},
	"ms":   {},
	"miss": {},
	"dr":   {},
	"rev":  {},
	"jr":   {},
	"sr":   {},
	"ii":   {},
	"iii":  {},
	"iv":   {},
	"esq":  {},
}

var withheldNames = map[string]struct{}{
	"name withheld":       {},
	"withheld":            {},
	"not released":        {},
	"pending release":     {},
	"pending":             {},
	"redacted":            {},
	"unknown":             {},
	"unk":                 {},
	"n a":                 {},
	"na":                  {},
	"none":                {},
	"not available":       {},
	"unidentified":        {},
	"unidentified male":   {},
	"unidentified female": {},
	"unknown male":        {},
	"unknown female":      {},
	"john doe":            {},
	"jane doe":            {},
}

// Name returns the lowercase tokens of a person's name with diacritics,
// honorifics, and generational suffixes removed. Withheld or placeholder
// names return nil so they count as missing rather than mismatching.
func Name(value string) []string {
	text := fold(value)
	if text == "" {
		return nil
	}
	text = nameSeparators.Replace(text)
	raw := textutil.Tokenize(text)
	if _, ok := withheldNames[strings.Join(raw, " ")]; ok {
		return nil
	}
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if _, ok := nameAffixes[token]; ok {
			continue
		}
		if token == "withheld" {
			return nil
		}
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
