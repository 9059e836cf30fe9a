// Package logging assembles the structured slog loggers used by crosscheck.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so driver code can tag log lines
// with the run, dataset, and incident being processed. Each reconciliation run
// can also be mirrored into its own JSON log file (OpenRunLog), and old run
// logs are pruned by PruneRunLogs. NewNop provides a silent logger for tests.
//
// The console handler lifts the component, dataset, and incident id into a
// scope prefix such as "reconcile[chicago/c2]:" so a run can be followed by
// eye; the JSON handler keeps them as ordinary keys.
//
// Logs go to stderr by default so stdout stays reserved for command output.
package logging
