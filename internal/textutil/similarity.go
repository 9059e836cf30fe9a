package textutil

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// EditSimilarity scores two strings by normalized Levenshtein distance.
// Two empty strings are identical; one empty string scores 0.
func EditSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if la == 0 || lb == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// TokenSortRatio sorts both token lists, joins them, and compares the results
// by edit similarity, so word order never affects the score.
func TokenSortRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return EditSimilarity(SortedJoin(a), SortedJoin(b))
}

// OverlapCoefficient returns |A∩B| / min(|A|, |B|) over distinct tokens, where
// equal reports whether two tokens should be treated as the same. Each token on
// the smaller side is matched at most once.
func OverlapCoefficient(a, b []string, equal func(x, y string) bool) float64 {
	left, right := distinct(a), distinct(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	if len(left) > len(right) {
		left, right = right, left
	}
	used := make([]bool, len(right))
	matched := 0
	for _, x := range left {
		for i, y := range right {
			if used[i] {
				continue
			}
			if x == y || (equal != nil && equal(x, y)) {
				used[i] = true
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(left))
}

func distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
