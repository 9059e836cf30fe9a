// Package report writes reconciliation results as CSV files.
//
// A run produces up to three kinds of file, named
// <prefix>_<dataset>_<stamp>.csv, <prefix>_all_<stamp>.csv, and
// <prefix>_possible_matches_<stamp>.csv, where stamp is YYYYMMDD-HHMMSS of the
// run start. Existing files are never replaced. Per-dataset files carry every
// original column of the surfaced incidents; the consolidated file carries the
// common fields shared across datasets; the possible-matches file pairs each
// surfaced incident with its near-miss reference records and the per-field
// agreement. Empty categories produce no file. All files are staged and
// committed together so a failed run leaves no partial report behind.
package report
