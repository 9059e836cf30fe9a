package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"crosscheck/internal/fileutil"
	"crosscheck/internal/incident"
	"crosscheck/internal/ledger"
	"crosscheck/internal/logging"
	"crosscheck/internal/reconcile"
	"crosscheck/internal/report"
	"crosscheck/internal/sources"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOutput bool
	var reexamine []string
	var workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile every configured dataset and report newly unmatched incidents",
		Long: `Match every primary incident against the reference database, report the
incidents that have no match and were never reported before, then record them
in the ledger so the next run skips them.

With --dry-run nothing is written: no report files and no ledger entries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateSources(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ids, err := parseIncidentIDs(reexamine)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") && workers < 1 {
				return fmt.Errorf("--workers must be >= 1")
			}

			base, err := ctx.logger()
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			logger, closeLog, err := logging.OpenRunLog(base, cfg.Paths.LogDir, runID)
			if err != nil {
				return err
			}
			defer closeLog()
			logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logging.RunLogPath(cfg.Paths.LogDir, runID))

			opts := reconcile.OptionsFromConfig(cfg)
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			opts.Reexamine = ids
			opts.DryRun = dryRun
			opts.NewRunID = func() string { return runID }

			loader := sources.NewCSVLoader(cfg, logger)
			writer := &report.Writer{Dir: cfg.Paths.ReportDir, Prefix: cfg.Run.ReportPrefix, Logger: logger}
			var result *reconcile.Result
			run := func(store ledger.Store, reporter reconcile.Reporter) error {
				var runErr error
				result, runErr = reconcile.New(store, logger, opts).Run(cmd.Context(), loader, loader, reporter)
				return runErr
			}
			if dryRun {
				err = ctx.withReadOnlyLedger(cmd.Context(), func(store ledger.Store) error {
					return run(store, nil)
				})
			} else {
				err = ctx.withLockedLedger(cmd.Context(), func(store *ledger.SQLiteStore) error {
					return run(store, writer)
				})
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), newRunJSON(result, writer.Written()))
			}
			return printRunSummary(cmd.OutOrStdout(), result, writer.Written())
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate without writing reports or ledger entries")
	cmd.Flags().StringSliceVar(&reexamine, "reexamine", nil, "Surface these dataset/case ids again if still unmatched")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override run.workers")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func parseIncidentIDs(values []string) ([]incident.IncidentID, error) {
	ids := make([]incident.IncidentID, 0, len(values))
	for _, value := range values {
		dataset, caseID, ok := strings.Cut(strings.TrimSpace(value), "/")
		dataset, caseID = strings.TrimSpace(dataset), strings.TrimSpace(caseID)
		if !ok || dataset == "" || caseID == "" {
			return nil, fmt.Errorf("invalid incident id %q (want dataset/case)", value)
		}
		ids = append(ids, incident.IncidentID{Dataset: dataset, CaseID: caseID})
	}
	return ids, nil
}

func printRunSummary(out io.Writer, result *reconcile.Result, written []fileutil.Written) error {
	fmt.Fprintf(out, "Run %s (dry run: %s)\n", result.RunID, yesNo(result.DryRun))

	tbl := newTable("Dataset", "Records", "Matched", "Unmatched", "Reported", "New", "No candidates").
		alignRight(2, 3, 4, 5, 6, 7)
	for _, ds := range result.Datasets {
		tbl.add(ds.ID, ds.Records, ds.Matched, ds.Unmatched, ds.AlreadyReported, ds.NewlyUnmatched, ds.NoCandidates)
	}
	t := result.Totals()
	tbl.total("Total", t.Records, t.Matched, t.Unmatched, t.AlreadyReported, t.NewlyUnmatched, t.NoCandidates)
	if err := tbl.write(out); err != nil {
		return err
	}

	fmt.Fprintf(out, "Reference: %d records, %d indexed, %d skipped\n",
		result.Reference.Records, result.Reference.Indexed, result.Reference.Skipped)
	fmt.Fprintf(out, "Newly unmatched: %d (near misses: %d, recorded: %d)\n",
		len(result.NewlyUnmatched), result.NearMissCount(), result.Recorded)
	for _, file := range written {
		fmt.Fprintf(out, "Report: %s\n", file.Path)
	}
	return nil
}

type nearMissJSON struct {
	ReferenceID string            `json:"reference_id"`
	Date        string            `json:"date"`
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	Score       int               `json:"score"`
	Agreement   map[string]string `json:"agreement"`
}

type unmatchedJSON struct {
	ID         string         `json:"id"`
	Dataset    string         `json:"dataset"`
	CaseID     string         `json:"case_id"`
	Date       string         `json:"date"`
	Name       string         `json:"name"`
	Address    string         `json:"address"`
	Candidates int            `json:"candidates"`
	Reexamined bool           `json:"reexamined"`
	NearMisses []nearMissJSON `json:"near_misses,omitempty"`
}

type reportFileJSON struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

type runJSON struct {
	RunID          string                     `json:"run_id"`
	StartedAt      time.Time                  `json:"started_at"`
	DryRun         bool                       `json:"dry_run"`
	Reference      reconcile.ReferenceSummary `json:"reference"`
	Datasets       []reconcile.DatasetSummary `json:"datasets"`
	Totals         reconcile.DatasetSummary   `json:"totals"`
	NewlyUnmatched []unmatchedJSON            `json:"newly_unmatched"`
	Recorded       int                        `json:"recorded"`
	Reports        []reportFileJSON           `json:"reports"`
}

func newRunJSON(result *reconcile.Result, written []fileutil.Written) runJSON {
	out := runJSON{
		RunID:          result.RunID,
		StartedAt:      result.StartedAt,
		DryRun:         result.DryRun,
		Reference:      result.Reference,
		Datasets:       result.Datasets,
		Totals:         result.Totals(),
		NewlyUnmatched: make([]unmatchedJSON, 0, len(result.NewlyUnmatched)),
		Recorded:       result.Recorded,
		Reports:        make([]reportFileJSON, 0, len(written)),
	}
	for _, u := range result.NewlyUnmatched {
		item := unmatchedJSON{
			ID:         u.ID().String(),
			Dataset:    u.Record.Dataset,
			CaseID:     u.Record.CaseID,
			Date:       u.Record.Date,
			Name:       u.Record.Name,
			Address:    u.Record.Address,
			Candidates: u.PoolSize,
			Reexamined: u.Reexamined,
		}
		for _, c := range result.NearMisses[u.ID()] {
			ag := c.Agreement
			item.NearMisses = append(item.NearMisses, nearMissJSON{
				ReferenceID: c.Reference.ID,
				Date:        c.Reference.Date,
				Name:        c.Reference.Name,
				Address:     c.Reference.Address,
				Score:       ag.Score(),
				Agreement: map[string]string{
					"date":     ag.Date.String(),
					"location": ag.Location.String(),
					"name":     ag.Name.String(),
					"race":     ag.Race.String(),
					"gender":   ag.Gender.String(),
					"age":      ag.Age.String(),
				},
			})
		}
		out.NewlyUnmatched = append(out.NewlyUnmatched, item)
	}
	for _, file := range written {
		out.Reports = append(out.Reports, reportFileJSON{Path: file.Path, Bytes: file.Size, SHA256: file.SHA256})
	}
	return out
}
