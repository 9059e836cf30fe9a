package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	LedgerPath string `toml:"ledger_path"`
	ReportDir  string `toml:"report_dir"`
	LogDir     string `toml:"log_dir"`
}

// Run contains settings for a reconciliation pass.
type Run struct {
	// Workers bounds concurrent incident evaluation. 0 uses GOMAXPROCS.
	Workers int `toml:"workers"`
	// MinDate drops primary rows dated before it (YYYY-MM-DD). Datasets may
	// override it.
	MinDate      string `toml:"min_date"`
	ReportPrefix string `toml:"report_prefix"`
}

// Matching contains the candidate window and the per-field thresholds.
type Matching struct {
	DayWindow               int        `toml:"day_window"`
	IncludeSameDay          bool       `toml:"include_same_day"`
	DateToleranceDays       int        `toml:"date_tolerance_days"`
	AllowMonthError         bool       `toml:"allow_month_error"`
	AllowDaySwap            bool       `toml:"allow_day_swap"`
	AddressThreshold        float64    `toml:"address_threshold"`
	TokenSimilarity         float64    `toml:"token_similarity"`
	NameThreshold           float64    `toml:"name_threshold"`
	NameCommonTokens        int        `toml:"name_common_tokens"`
	MaxAgeDiff              int        `toml:"max_age_diff"`
	MinDemographicAgreement int        `toml:"min_demographic_agreement"`
	AllowMissingLocation    bool       `toml:"allow_missing_location"`
	RaceEquivalences        [][]string `toml:"race_equivalences"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Columns maps logical incident fields to CSV header names. Empty entries mean
// the source does not carry the field.
type Columns struct {
	ID      string `toml:"id"`
	CaseID  string `toml:"case_id"`
	Date    string `toml:"date"`
	Name    string `toml:"name"`
	Race    string `toml:"race"`
	Gender  string `toml:"gender"`
	Age     string `toml:"age"`
	Address string `toml:"address"`
	Zip     string `toml:"zip"`
	City    string `toml:"city"`
	State   string `toml:"state"`
	Agency  string `toml:"agency"`
}

// Reference describes the canonical reference database export.
type Reference struct {
	Path    string  `toml:"path"`
	Columns Columns `toml:"columns"`
}

// Dataset describes one primary per-jurisdiction table and its cleaning rules.
type Dataset struct {
	ID     string `toml:"id"`
	Path   string `toml:"path"`
	Agency string `toml:"agency"`
	// State is used for rows that carry no state of their own.
	State   string  `toml:"state"`
	Columns Columns `toml:"columns"`
	// FatalColumn, when set, keeps only rows whose value is in FatalValues.
	FatalColumn string   `toml:"fatal_column"`
	FatalValues []string `toml:"fatal_values"`
	// RoleColumn, when set, keeps only rows whose value is in SubjectValues;
	// mixed tables list officers and subjects together.
	RoleColumn    string   `toml:"role_column"`
	SubjectValues []string `toml:"subject_values"`
	MinDate       string   `toml:"min_date"`
}

// Config encapsulates all configuration values for crosscheck.
//
// Configuration sections:
//   - Paths: ledger file, report and log directories
//   - Run: worker count, global min date, report file prefix
//   - Matching: candidate window and field thresholds
//   - Logging: log format, level, and run log retention
//   - Reference: the reference database CSV and its column map
//   - Datasets: primary CSVs, column maps, and row filters
type Config struct {
	Paths     Paths     `toml:"paths"`
	Run       Run       `toml:"run"`
	Matching  Matching  `toml:"matching"`
	Logging   Logging   `toml:"logging"`
	Reference Reference `toml:"reference"`
	Datasets  []Dataset `toml:"datasets"`

	baseDir string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/crosscheck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Sources are not checked here; see
// ValidateSources.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		cfg.baseDir = filepath.Dir(resolvedPath)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("crosscheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the report and log directories and the ledger's
// parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ReportDir, c.Paths.LogDir, filepath.Dir(c.Paths.LedgerPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Dataset returns the dataset with the given id.
func (c *Config) Dataset(id string) (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.ID == id {
			return ds, true
		}
	}
	return Dataset{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// expandSourcePath expands a source path, resolving relative paths against
// the config file's directory when one was loaded.
func (c *Config) expandSourcePath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if c.baseDir != "" && !strings.HasPrefix(pathValue, "~") && !filepath.IsAbs(pathValue) {
		pathValue = filepath.Join(c.baseDir, pathValue)
	}
	return expandPath(pathValue)
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
