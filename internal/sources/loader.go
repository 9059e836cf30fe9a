package sources

import (
	"context"
	"fmt"
	"log/slog"

	"crosscheck/internal/config"
	"crosscheck/internal/incident"
	"crosscheck/internal/logging"
)

// CSVLoader serves configured CSV files as the primary and reference sources
// of a reconciliation run.
type CSVLoader struct {
	reference config.Reference
	datasets  []config.Dataset
	logger    *slog.Logger
}

// NewCSVLoader builds a loader for the sources named in cfg.
func NewCSVLoader(cfg *config.Config, logger *slog.Logger) *CSVLoader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CSVLoader{
		reference: cfg.Reference,
		datasets:  append([]config.Dataset(nil), cfg.Datasets...),
		logger:    logging.NewComponentLogger(logger, "sources"),
	}
}

// Datasets loads every configured primary dataset in configuration order.
func (l *CSVLoader) Datasets(ctx context.Context) ([]incident.Dataset, error) {
	out := make([]incident.Dataset, 0, len(l.datasets))
	for _, cfg := range l.datasets {
		ds, stats, err := LoadDataset(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", cfg.ID, err)
		}
		l.logger.Info("dataset loaded",
			logging.String(logging.FieldDataset, cfg.ID),
			logging.String("path", cfg.Path),
			logging.Int("rows", stats.Rows),
			logging.Int("kept", stats.Kept),
			logging.Int("not_fatal", stats.NotFatal),
			logging.Int("not_subject", stats.NotSubject),
			logging.Int("before_min_date", stats.BeforeMin),
			logging.Int("duplicates", stats.Duplicates),
		)
		out = append(out, ds)
	}
	return out, nil
}

// References loads the reference database.
func (l *CSVLoader) References(ctx context.Context) ([]incident.ReferenceRecord, error) {
	refs, err := LoadReference(ctx, l.reference)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	l.logger.Info("reference loaded",
		logging.String("path", l.reference.Path),
		logging.Int("records", len(refs)),
	)
	return refs, nil
}
