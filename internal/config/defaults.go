package config

const (
	defaultLedgerPath        = "~/.local/share/crosscheck/ledger.db"
	defaultReportDir         = "~/.local/share/crosscheck/reports"
	defaultLogDir            = "~/.local/share/crosscheck/logs"
	defaultReportPrefix      = "unmatched"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultDayWindow         = 3
	defaultDateToleranceDays = 1
	defaultAddressThreshold  = 0.6
	defaultTokenSimilarity   = 0.8
	defaultNameThreshold     = 0.70
	defaultNameCommonTokens  = 2
	defaultMaxAgeDiff        = 2
	defaultMinDemographics   = 2
)

var defaultFatalValues = []string{"yes", "fatal", "true", "1", "y"}

var defaultSubjectValues = []string{"subject", "suspect", "civilian", "decedent"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LedgerPath: defaultLedgerPath,
			ReportDir:  defaultReportDir,
			LogDir:     defaultLogDir,
		},
		Run: Run{
			ReportPrefix: defaultReportPrefix,
		},
		Matching: Matching{
			DayWindow:               defaultDayWindow,
			IncludeSameDay:          true,
			DateToleranceDays:       defaultDateToleranceDays,
			AllowMonthError:         true,
			AllowDaySwap:            true,
			AddressThreshold:        defaultAddressThreshold,
			TokenSimilarity:         defaultTokenSimilarity,
			NameThreshold:           defaultNameThreshold,
			NameCommonTokens:        defaultNameCommonTokens,
			MaxAgeDiff:              defaultMaxAgeDiff,
			MinDemographicAgreement: defaultMinDemographics,
			RaceEquivalences: [][]string{
				{"ASIAN", "AAPI"},
				{"PACIFIC_ISLANDER", "AAPI"},
			},
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
