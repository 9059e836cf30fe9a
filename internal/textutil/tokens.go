package textutil

import (
	"regexp"
	"sort"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Tokenize splits text into lowercase alphanumeric tokens, dropping empties.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if token == "" {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// SortedJoin returns the tokens sorted and joined by single spaces.
func SortedJoin(tokens []string) string {
	cp := make([]string, len(tokens))
	copy(cp, tokens)
	sort.Strings(cp)
	return strings.Join(cp, " ")
}

// TokenSet returns the distinct tokens as a set.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// CommonTokens counts distinct tokens present in both lists.
func CommonTokens(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	left := TokenSet(a)
	count := 0
	for token := range TokenSet(b) {
		if _, ok := left[token]; ok {
			count++
		}
	}
	return count
}

// SameTokenSet reports whether both lists hold the same distinct tokens.
func SameTokenSet(a, b []string) bool {
	left, right := TokenSet(a), TokenSet(b)
	if len(left) != len(right) || len(left) == 0 {
		return false
	}
	for token := range left {
		if _, ok := right[token]; !ok {
			return false
		}
	}
	return true
}
