package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout accepted for min_date settings.
const DateLayout = "2006-01-02"

var knownRaces = map[string]struct{}{
	"UNKNOWN": {}, "WHITE": {}, "BLACK": {}, "HISPANIC": {}, "ASIAN": {},
	"PACIFIC_ISLANDER": {}, "AAPI": {}, "NATIVE_AMERICAN": {}, "MULTIPLE": {}, "OTHER": {},
}

// Validate ensures the configuration contains usable values. Source
// definitions are checked separately by ValidateSources so commands that never
// read sources work without them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		return errors.New("paths.ledger_path must be set")
	}
	if strings.TrimSpace(c.Paths.ReportDir) == "" {
		return errors.New("paths.report_dir must be set")
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Workers < 0 {
		return errors.New("run.workers must be >= 0")
	}
	if c.Run.MinDate != "" {
		if _, err := time.Parse(DateLayout, c.Run.MinDate); err != nil {
			return fmt.Errorf("run.min_date must be YYYY-MM-DD: %w", err)
		}
	}
	if strings.ContainsAny(c.Run.ReportPrefix, `/\`) {
		return errors.New("run.report_prefix must not contain path separators")
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.DayWindow < 0 {
		return errors.New("matching.day_window must be >= 0")
	}
	if m.DateToleranceDays < 0 {
		return errors.New("matching.date_tolerance_days must be >= 0")
	}
	if m.DateToleranceDays > m.DayWindow {
		return errors.New("matching.date_tolerance_days must not exceed matching.day_window")
	}
	for name, value := range map[string]float64{
		"matching.address_threshold": m.AddressThreshold,
		"matching.token_similarity":  m.TokenSimilarity,
		"matching.name_threshold":    m.NameThreshold,
	} {
		if value <= 0 || value > 1 {
			return fmt.Errorf("%s must be in (0, 1]", name)
		}
	}
	if m.NameCommonTokens < 1 {
		return errors.New("matching.name_common_tokens must be >= 1")
	}
	if m.MaxAgeDiff < 0 {
		return errors.New("matching.max_age_diff must be >= 0")
	}
	if m.MinDemographicAgreement < 1 || m.MinDemographicAgreement > 3 {
		return errors.New("matching.min_demographic_agreement must be between 1 and 3")
	}
	for i, pair := range m.RaceEquivalences {
		if len(pair) != 2 {
			return fmt.Errorf("matching.race_equivalences[%d] must contain exactly two races", i)
		}
		for _, race := range pair {
			if _, ok := knownRaces[race]; !ok {
				return fmt.Errorf("matching.race_equivalences[%d]: unsupported race %q", i, race)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

// ValidateSources ensures the reference and dataset definitions are complete
// enough to load.
func (c *Config) ValidateSources() error {
	if c.Reference.Path == "" {
		return errors.New("reference.path must be set")
	}
	if err := validateColumns("reference.columns", c.Reference.Columns, false); err != nil {
		return err
	}
	if c.Reference.Columns.ID == "" {
		return errors.New("reference.columns.id must be set")
	}
	if len(c.Datasets) == 0 {
		return errors.New("at least one [[datasets]] entry is required")
	}
	seen := make(map[string]struct{}, len(c.Datasets))
	for i, ds := range c.Datasets {
		prefix := fmt.Sprintf("datasets[%d]", i)
		if ds.ID == "" {
			return fmt.Errorf("%s.id must be set", prefix)
		}
		if strings.Contains(ds.ID, "/") {
			return fmt.Errorf("%s.id must not contain '/'", prefix)
		}
		if _, dup := seen[ds.ID]; dup {
			return fmt.Errorf("%s.id %q is duplicated", prefix, ds.ID)
		}
		seen[ds.ID] = struct{}{}
		if ds.Path == "" {
			return fmt.Errorf("%s.path must be set", prefix)
		}
		if err := validateColumns(prefix+".columns", ds.Columns, true); err != nil {
			return err
		}
		if ds.Columns.State == "" && ds.State == "" {
			return fmt.Errorf("%s: state or columns.state must be set", prefix)
		}
		if ds.MinDate != "" {
			if _, err := time.Parse(DateLayout, ds.MinDate); err != nil {
				return fmt.Errorf("%s.min_date must be YYYY-MM-DD: %w", prefix, err)
			}
		}
	}
	return nil
}

func validateColumns(prefix string, cols Columns, needCase bool) error {
	if needCase && cols.CaseID == "" {
		return fmt.Errorf("%s.case_id must be set", prefix)
	}
	if cols.Date == "" {
		return fmt.Errorf("%s.date must be set", prefix)
	}
	return nil
}
