package reconcile

import (
	"runtime"
	"time"

	"github.com/google/uuid"

	"crosscheck/internal/candidates"
	"crosscheck/internal/config"
	"crosscheck/internal/incident"
	"crosscheck/internal/matcher"
)

// Options configures a Driver.
type Options struct {
	// Workers bounds concurrent evaluation. Values below 1 use GOMAXPROCS.
	Workers int
	Index   candidates.Options
	Policy  matcher.Policy
	// Reexamine lists incidents surfaced again when still unmatched, even if
	// the ledger already holds them.
	Reexamine []incident.IncidentID
	// DryRun evaluates and reports without appending to the ledger.
	DryRun   bool
	Now      func() time.Time
	NewRunID func() string
}

// DefaultOptions returns driver options using the default index window and
// matching policy.
func DefaultOptions() Options {
	return Options{
		Index:  candidates.DefaultOptions(),
		Policy: matcher.DefaultPolicy(),
	}
}

// OptionsFromConfig maps configuration onto driver options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	m := cfg.Matching
	opts.Workers = cfg.Run.Workers
	opts.Index = candidates.Options{
		DayWindow:      m.DayWindow,
		IncludeSameDay: m.IncludeSameDay,
	}
	opts.Policy = matcher.Policy{
		DateToleranceDays:       m.DateToleranceDays,
		AllowMonthError:         m.AllowMonthError,
		AllowDaySwap:            m.AllowDaySwap,
		AddressThreshold:        m.AddressThreshold,
		TokenSimilarity:         m.TokenSimilarity,
		NameThreshold:           m.NameThreshold,
		NameCommonTokens:        m.NameCommonTokens,
		MaxAgeDiff:              m.MaxAgeDiff,
		MinDemographicAgreement: m.MinDemographicAgreement,
		AllowMissingLocation:    m.AllowMissingLocation,
		RaceEquivalences:        raceEquivalences(m.RaceEquivalences),
	}
	return opts
}

func raceEquivalences(pairs [][]string) [][2]incident.Race {
	if pairs == nil {
		return nil
	}
	out := make([][2]incident.Race, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		out = append(out, [2]incident.Race{incident.Race(pair[0]), incident.Race(pair[1])})
	}
	return out
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewRunID == nil {
		o.NewRunID = uuid.NewString
	}
	return o
}
