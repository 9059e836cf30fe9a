package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	envLedgerPath = "CROSSCHECK_LEDGER_PATH"
	envReportDir  = "CROSSCHECK_REPORT_DIR"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRun()
	c.normalizeLogging()
	c.normalizeMatching()
	if err := c.normalizeSources(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(envLedgerPath); ok && strings.TrimSpace(value) != "" {
		c.Paths.LedgerPath = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envReportDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.ReportDir = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRun() {
	c.Run.MinDate = strings.TrimSpace(c.Run.MinDate)
	c.Run.ReportPrefix = strings.TrimSpace(c.Run.ReportPrefix)
	if c.Run.ReportPrefix == "" {
		c.Run.ReportPrefix = defaultReportPrefix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMatching() {
	for i, pair := range c.Matching.RaceEquivalences {
		for j := range pair {
			pair[j] = strings.ToUpper(strings.TrimSpace(pair[j]))
		}
		c.Matching.RaceEquivalences[i] = pair
	}
}

func (c *Config) normalizeSources() error {
	var err error
	if c.Reference.Path, err = c.expandSourcePath(c.Reference.Path); err != nil {
		return fmt.Errorf("reference.path: %w", err)
	}
	c.Reference.Columns = c.Reference.Columns.trimmed()

	for i := range c.Datasets {
		ds := &c.Datasets[i]
		ds.ID = strings.TrimSpace(ds.ID)
		ds.Agency = strings.TrimSpace(ds.Agency)
		ds.State = strings.TrimSpace(ds.State)
		ds.MinDate = strings.TrimSpace(ds.MinDate)
		if ds.MinDate == "" {
			ds.MinDate = c.Run.MinDate
		}
		if ds.Path, err = c.expandSourcePath(ds.Path); err != nil {
			return fmt.Errorf("datasets[%d].path: %w", i, err)
		}
		ds.Columns = ds.Columns.trimmed()
		ds.FatalColumn = strings.TrimSpace(ds.FatalColumn)
		ds.RoleColumn = strings.TrimSpace(ds.RoleColumn)
		if ds.FatalColumn != "" && len(ds.FatalValues) == 0 {
			ds.FatalValues = append([]string(nil), defaultFatalValues...)
		}
		if ds.RoleColumn != "" && len(ds.SubjectValues) == 0 {
			ds.SubjectValues = append([]string(nil), defaultSubjectValues...)
		}
		ds.FatalValues = lowerAll(ds.FatalValues)
		ds.SubjectValues = lowerAll(ds.SubjectValues)
	}
	return nil
}

func (cols Columns) trimmed() Columns {
	return Columns{
		ID:      strings.TrimSpace(cols.ID),
		CaseID:  strings.TrimSpace(cols.CaseID),
		Date:    strings.TrimSpace(cols.Date),
		Name:    strings.TrimSpace(cols.Name),
		Race:    strings.TrimSpace(cols.Race),
		Gender:  strings.TrimSpace(cols.Gender),
		Age:     strings.TrimSpace(cols.Age),
		Address: strings.TrimSpace(cols.Address),
		Zip:     strings.TrimSpace(cols.Zip),
		City:    strings.TrimSpace(cols.City),
		State:   strings.TrimSpace(cols.State),
		Agency:  strings.TrimSpace(cols.Agency),
	}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
