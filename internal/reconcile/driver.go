package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"crosscheck/internal/candidates"
	"crosscheck/internal/incident"
	"crosscheck/internal/ledger"
	"crosscheck/internal/logging"
	"crosscheck/internal/matcher"
	"crosscheck/internal/normalize"
)

// ErrNoReporter is returned when a run that would write the ledger has no
// reporter to emit through.
var ErrNoReporter = errors.New("reporter required unless dry run")

// Driver runs reconciliation passes against a ledger.
type Driver struct {
	store   ledger.Store
	logger  *slog.Logger
	opts    Options
	matcher *matcher.Matcher
}

// New constructs a Driver.
func New(store ledger.Store, logger *slog.Logger, opts Options) *Driver {
	opts = opts.withDefaults()
	return &Driver{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "reconcile"),
		opts:    opts,
		matcher: matcher.New(opts.Policy),
	}
}

type job struct {
	dataset int
	record  incident.IncidentRecord
}

// Run performs one reconciliation pass.
func (d *Driver) Run(ctx context.Context, primary PrimarySource, reference ReferenceSource, reporter Reporter) (*Result, error) {
	if d.store == nil {
		return nil, fmt.Errorf("%w: no ledger store", ledger.ErrUnavailable)
	}
	if reporter == nil && !d.opts.DryRun {
		return nil, ErrNoReporter
	}

	result := &Result{
		RunID:     d.opts.NewRunID(),
		StartedAt: d.opts.Now(),
		DryRun:    d.opts.DryRun,
	}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, d.logger)

	refs, err := reference.References(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	ix := candidates.Build(refs, d.opts.Index)
	result.Reference = ReferenceSummary{
		Records:    len(refs),
		Indexed:    ix.Len(),
		Skipped:    ix.Skipped(),
		Partitions: ix.Partitions(),
	}
	logger.Info("reference index built",
		logging.Int("records", len(refs)),
		logging.Int("indexed", ix.Len()),
		logging.Int("skipped", ix.Skipped()),
		logging.Int("partitions", ix.Partitions()),
	)

	datasets, err := primary.Datasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}

	jobs := make([]job, 0)
	result.Datasets = make([]DatasetSummary, len(datasets))
	for i, ds := range datasets {
		result.Datasets[i] = DatasetSummary{ID: ds.ID, Source: ds.Source, Records: len(ds.Records)}
		for _, rec := range ds.Records {
			if rec.Dataset == "" {
				rec.Dataset = ds.ID
			}
			if rec.State == "" {
				rec.State = ds.State
			}
			jobs = append(jobs, job{dataset: i, record: rec})
		}
	}

	evals, err := d.evaluate(ctx, ix, jobs)
	if err != nil {
		return nil, err
	}

	if err := d.fold(ctx, logger, datasets, jobs, evals, result); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if reporter != nil {
		if err := reporter.Emit(ctx, result); err != nil {
			logging.Fail(logger, "report_failed", "report emission failed",
				"ledger left untouched; rerun to surface the same incidents",
				logging.Error(err),
			)
			return nil, fmt.Errorf("emit report: %w", err)
		}
	}

	if !d.opts.DryRun {
		if err := d.record(ctx, result); err != nil {
			return nil, err
		}
	}

	total := result.Totals()
	logger.Info("run complete",
		logging.Int("records", total.Records),
		logging.Int("matched", total.Matched),
		logging.Int("unmatched", total.Unmatched),
		logging.Int("already_reported", total.AlreadyReported),
		logging.Int("newly_unmatched", total.NewlyUnmatched),
		logging.Int("near_misses", result.NearMissCount()),
		logging.Int("recorded", result.Recorded),
		logging.Bool("dry_run", result.DryRun),
		logging.Duration("elapsed", d.opts.Now().Sub(result.StartedAt)),
	)
	return result, nil
}

// evaluate matches every job on a bounded pool. Each worker writes only its
// own slot.
func (d *Driver) evaluate(ctx context.Context, ix *candidates.Index, jobs []job) ([]matcher.Evaluation, error) {
	evals := make([]matcher.Evaluation, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := jobs[i].record
			key := normalize.Incident(rec)
			evals[i] = d.matcher.Evaluate(rec, key, ix.Query(key))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate incidents: %w", err)
	}
	return evals, nil
}

// fold consults the ledger in record order and assembles the surfaced set.
func (d *Driver) fold(ctx context.Context, logger *slog.Logger, datasets []incident.Dataset, jobs []job, evals []matcher.Evaluation, result *Result) error {
	reexamine := make(map[incident.IncidentID]struct{}, len(d.opts.Reexamine))
	for _, id := range d.opts.Reexamine {
		reexamine[id] = struct{}{}
	}
	seen := make(map[incident.IncidentID]struct{}, len(jobs))
	result.NearMisses = make(map[incident.IncidentID][]incident.MatchCandidate)

	for i, eval := range evals {
		summary := &result.Datasets[jobs[i].dataset]
		id := eval.Incident.ID()
		_, requested := reexamine[id]
		delete(reexamine, id)

		if eval.PoolSize == 0 {
			summary.NoCandidates++
		}
		if eval.Verdict == incident.VerdictMatch {
			summary.Matched++
			logging.MatchDecision(logger, id, eval.Verdict, "qualifying candidate",
				logging.String("reference_id", eval.Best.Reference.ID),
				logging.Int("score", eval.Best.Agreement.Score()),
			)
			continue
		}
		summary.Unmatched++

		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		reported, err := d.store.HasBeenReported(ctx, id)
		if err != nil {
			return fmt.Errorf("check ledger for %s: %w", id, err)
		}
		if reported && !requested {
			summary.AlreadyReported++
			continue
		}

		summary.NewlyUnmatched++
		result.NewlyUnmatched = append(result.NewlyUnmatched, Unmatched{
			Record:     eval.Incident,
			Key:        eval.Key,
			Source:     datasets[jobs[i].dataset].Source,
			PoolSize:   eval.PoolSize,
			Reexamined: reported,
		})
		if len(eval.NearMisses) > 0 {
			result.NearMisses[id] = eval.NearMisses
		}
		logging.MatchDecision(logger, id, eval.Verdict, "no qualifying candidate",
			logging.Int("pool", eval.PoolSize),
			logging.Int("near_misses", len(eval.NearMisses)),
			logging.Bool("reexamined", reported),
		)
	}

	for id := range reexamine {
		logging.Warn(logger, "reexamine_unknown", "re-examine id not found among unmatched inputs",
			"check the dataset id and case id",
			logging.Incident(id),
		)
	}
	return nil
}

// record appends every newly surfaced incident in one batch.
func (d *Driver) record(ctx context.Context, result *Result) error {
	entries := make([]ledger.Entry, 0, len(result.NewlyUnmatched))
	for _, u := range result.NewlyUnmatched {
		if u.Reexamined {
			continue
		}
		entries = append(entries, ledger.Entry{
			ID:         u.ID(),
			RunID:      result.RunID,
			ReportedAt: result.StartedAt,
			Source:     u.Source,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	if err := d.store.Record(ctx, entries...); err != nil {
		return fmt.Errorf("record ledger entries: %w", err)
	}
	result.Recorded = len(entries)
	return nil
}
