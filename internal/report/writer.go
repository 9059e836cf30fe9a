package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"crosscheck/internal/fileutil"
	"crosscheck/internal/incident"
	"crosscheck/internal/logging"
	"crosscheck/internal/reconcile"
	"crosscheck/internal/textutil"
)

// fileStamp names one run's files; a clash with an earlier run fails the
// commit instead of replacing its reports.
const fileStamp = "20060102-150405"

// Writer implements reconcile.Reporter by writing CSV files into Dir.
type Writer struct {
	Dir    string
	Prefix string
	// Now stamps file names. When nil the run's start time is used.
	Now    func() time.Time
	Logger *slog.Logger

	written []fileutil.Written
}

var _ reconcile.Reporter = (*Writer)(nil)

// Written returns the files committed by the last Emit.
func (w *Writer) Written() []fileutil.Written {
	return append([]fileutil.Written(nil), w.written...)
}

// Emit writes the report files for result.
func (w *Writer) Emit(ctx context.Context, result *reconcile.Result) error {
	w.written = nil
	if result == nil || len(result.NewlyUnmatched) == 0 {
		return nil
	}
	logger := logging.NewComponentLogger(w.Logger, "report")

	stamp := result.StartedAt
	if w.Now != nil {
		stamp = w.Now()
	}
	prefix := w.Prefix
	if prefix == "" {
		prefix = "unmatched"
	}
	day := stamp.Format(fileStamp)

	batch, err := fileutil.NewBatch(w.Dir, 0o644)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			batch.Abort()
		}
	}()

	tokens := make(map[string]int)
	for _, group := range groupByDataset(result) {
		if err := ctx.Err(); err != nil {
			return err
		}
		token := textutil.SanitizeToken(group.id)
		tokens[token]++
		if n := tokens[token]; n > 1 {
			token = token + "-" + strconv.Itoa(n)
		}
		name := textutil.JoinTokens(prefix, token, day) + ".csv"
		if err := batch.Add(name, func(out io.Writer) error {
			return writeDataset(out, group.items)
		}); err != nil {
			return err
		}
	}

	if err := batch.Add(textutil.JoinTokens(prefix, "all", day)+".csv", func(out io.Writer) error {
		return writeConsolidated(out, result)
	}); err != nil {
		return err
	}

	if result.NearMissCount() > 0 {
		if err := batch.Add(textutil.JoinTokens(prefix, "possible_matches", day)+".csv", func(out io.Writer) error {
			return writePossibleMatches(out, result)
		}); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	written, err := batch.Commit()
	committed = true
	if err != nil {
		return err
	}
	for _, file := range written {
		if err := fileutil.VerifyFile(file); err != nil {
			for _, f := range written {
				_ = os.Remove(f.Path)
			}
			return fmt.Errorf("verify report %s: %w", file.Path, err)
		}
	}
	w.written = written
	for _, file := range written {
		logger.Info("report written",
			logging.String("path", file.Path),
			logging.Int64("bytes", file.Size),
			logging.String("sha256", file.SHA256),
		)
	}
	return nil
}

type datasetGroup struct {
	id    string
	items []reconcile.Unmatched
}

// groupByDataset keeps the order in which datasets first appear.
func groupByDataset(result *reconcile.Result) []datasetGroup {
	index := make(map[string]int)
	var groups []datasetGroup
	for _, u := range result.NewlyUnmatched {
		i, ok := index[u.Record.Dataset]
		if !ok {
			i = len(groups)
			index[u.Record.Dataset] = i
			groups = append(groups, datasetGroup{id: u.Record.Dataset})
		}
		groups[i].items = append(groups[i].items, u)
	}
	return groups
}

// writeDataset writes the original columns of each incident followed by the
// ledger id. Columns missing from a row are left blank.
func writeDataset(out io.Writer, items []reconcile.Unmatched) error {
	var header []string
	seen := make(map[string]struct{})
	for _, u := range items {
		for _, name := range u.Record.Fields.Names() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			header = append(header, name)
		}
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(append(append([]string(nil), header...), "crosscheck_id")); err != nil {
		return err
	}
	for _, u := range items {
		row := make([]string, 0, len(header)+1)
		for _, name := range header {
			value, _ := u.Record.Fields.Get(name)
			row = append(row, value)
		}
		row = append(row, u.ID().String())
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var consolidatedHeader = []string{
	"dataset", "case_id", "agency", "state", "date", "normalized_date",
	"address", "zip", "name", "race", "gender", "age",
	"candidates", "near_misses", "reexamined", "run_id",
}

func writeConsolidated(out io.Writer, result *reconcile.Result) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(consolidatedHeader); err != nil {
		return err
	}
	for _, u := range result.NewlyUnmatched {
		r := u.Record
		row := []string{
			r.Dataset, r.CaseID, r.Agency, u.Key.Location.State, r.Date, u.Key.Date.String(),
			r.Address, u.Key.Location.Zip, r.Name, string(u.Key.Race), string(u.Key.Gender), u.Key.Age.String(),
			strconv.Itoa(u.PoolSize), strconv.Itoa(len(result.NearMisses[u.ID()])),
			strconv.FormatBool(u.Reexamined), result.RunID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var possibleHeader = []string{
	"dataset", "case_id", "date", "name", "address", "race", "gender", "age",
	"reference_id", "reference_date", "reference_name", "reference_address", "reference_zip",
	"reference_race", "reference_gender", "reference_age",
	"date_agreement", "location_agreement", "name_agreement",
	"race_agreement", "gender_agreement", "age_agreement", "score",
}

func writePossibleMatches(out io.Writer, result *reconcile.Result) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(possibleHeader); err != nil {
		return err
	}
	for _, u := range result.NewlyUnmatched {
		misses := append([]incident.MatchCandidate(nil), result.NearMisses[u.ID()]...)
		sort.SliceStable(misses, func(i, j int) bool {
			return misses[i].Agreement.Score() > misses[j].Agreement.Score()
		})
		for _, c := range misses {
			r, ref, ag := u.Record, c.Reference, c.Agreement
			row := []string{
				r.Dataset, r.CaseID, r.Date, r.Name, r.Address, r.Race, r.Gender, r.Age,
				ref.ID, ref.Date, ref.Name, ref.Address, ref.Zip, ref.Race, ref.Gender, ref.Age,
				ag.Date.String(), ag.Location.String(), ag.Name.String(),
				ag.Race.String(), ag.Gender.String(), ag.Age.String(), strconv.Itoa(ag.Score()),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("near miss %s: %w", u.ID(), err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
