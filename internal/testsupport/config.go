package testsupport

import (
	"path/filepath"
	"testing"

	"crosscheck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LedgerPath = filepath.Join(base, "state", "ledger.db")
	cfgVal.Paths.ReportDir = filepath.Join(base, "reports")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Run.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// ReferenceHeader is the header written by WithReference.
var ReferenceHeader = []string{"id", "state", "date", "name", "race", "gender", "age", "address", "zip"}

// DatasetHeader is the header written by WithDataset.
var DatasetHeader = []string{"case", "date", "name", "race", "gender", "age", "address", "zip"}

// WithReference writes rows under ReferenceHeader to a CSV in the base
// directory and points the config at it.
func WithReference(rows ...[]string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "reference.csv")
		WriteCSV(b.t, path, append([][]string{ReferenceHeader}, rows...))
		b.cfg.Reference = config.Reference{
			Path: path,
			Columns: config.Columns{
				ID: "id", State: "state", Date: "date", Name: "name", Race: "race",
				Gender: "gender", Age: "age", Address: "address", Zip: "zip",
			},
		}
	}
}

// WithDataset writes rows under DatasetHeader to a CSV named after id and
// appends a dataset entry for it.
func WithDataset(id, state string, rows ...[]string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "datasets", id+".csv")
		WriteCSV(b.t, path, append([][]string{DatasetHeader}, rows...))
		b.cfg.Datasets = append(b.cfg.Datasets, config.Dataset{
			ID:    id,
			Path:  path,
			State: state,
			Columns: config.Columns{
				CaseID: "case", Date: "date", Name: "name", Race: "race",
				Gender: "gender", Age: "age", Address: "address", Zip: "zip",
			},
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ReportDir)
}
