// Package reconcile drives one pass of the cross-dataset reconciliation.
//
// A Driver loads the reference records, builds the candidate index once, and
// fans every primary incident out to a bounded worker pool for matching. The
// evaluations are then folded serially, in dataset and record order, against
// the history ledger so only incidents that are unmatched and never reported
// before surface. The assembled Result goes to the Reporter first; the ledger
// is appended only after the Reporter succeeds, so a failed report never hides
// an incident from the next run.
package reconcile
