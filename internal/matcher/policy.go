package matcher

import "crosscheck/internal/incident"

// Policy centralizes matching thresholds and per-field rules.
type Policy struct {
	// DateToleranceDays is the largest distance between two full dates that
	// still counts as a fuzzy date match.
	DateToleranceDays int
	// AllowMonthError accepts dates one month apart with the same day.
	AllowMonthError bool
	// AllowDaySwap accepts dates whose day and month are transposed.
	AllowDaySwap bool
	// AddressThreshold is the minimum street token overlap for a fuzzy
	// location match.
	AddressThreshold float64
	// TokenSimilarity is the minimum edit similarity for two long tokens to
	// count as the same word.
	TokenSimilarity float64
	// NameThreshold is the minimum token-sort similarity for a fuzzy name.
	NameThreshold float64
	// NameCommonTokens is the number of shared name tokens that alone makes a
	// fuzzy name.
	NameCommonTokens int
	// MaxAgeDiff widens age ranges before declaring a mismatch.
	MaxAgeDiff int
	// MinDemographicAgreement is how many of race, gender, and age must agree
	// for the demographics to stand in for the name.
	MinDemographicAgreement int
	// AllowMissingLocation lets an exact date plus agreeing name and
	// demographics match when neither record carries a usable location.
	AllowMissingLocation bool
	// RaceEquivalences lists category pairs that count as the same race.
	RaceEquivalences [][2]incident.Race
}

// DefaultPolicy returns the thresholds used for fatal-incident reconciliation.
func DefaultPolicy() Policy {
	return Policy{
		DateToleranceDays:       1,
		AllowMonthError:         true,
		AllowDaySwap:            true,
		AddressThreshold:        0.6,
		TokenSimilarity:         0.8,
		NameThreshold:           0.70,
		NameCommonTokens:        2,
		MaxAgeDiff:              2,
		MinDemographicAgreement: 2,
		AllowMissingLocation:    false,
		RaceEquivalences: [][2]incident.Race{
			{incident.RaceAsian, incident.RaceAAPI},
			{incident.RacePacificIslander, incident.RaceAAPI},
		},
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.DateToleranceDays < 0 {
		p.DateToleranceDays = d.DateToleranceDays
	}
	if p.AddressThreshold <= 0 || p.AddressThreshold > 1 {
		p.AddressThreshold = d.AddressThreshold
	}
	if p.TokenSimilarity <= 0 || p.TokenSimilarity > 1 {
		p.TokenSimilarity = d.TokenSimilarity
	}
	if p.NameThreshold <= 0 || p.NameThreshold > 1 {
		p.NameThreshold = d.NameThreshold
	}
	if p.NameCommonTokens <= 0 {
		p.NameCommonTokens = d.NameCommonTokens
	}
	if p.MaxAgeDiff < 0 {
		p.MaxAgeDiff = d.MaxAgeDiff
	}
	if p.MinDemographicAgreement <= 0 || p.MinDemographicAgreement > 3 {
		p.MinDemographicAgreement = d.MinDemographicAgreement
	}
	if p.RaceEquivalences == nil {
		p.RaceEquivalences = d.RaceEquivalences
	}

	return p
}

func (p Policy) racesEquivalent(a, b incident.Race) bool {
	for _, pair := range p.RaceEquivalences {
		if (pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a) {
			return true
		}
	}
	return false
}
