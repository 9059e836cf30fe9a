// Package matcher decides whether a primary incident and a reference record
// describe the same event.
//
// Comparison is split into explicit per-field strategies (date, location,
// name, race, gender, age). Each returns Exact, Fuzzy, Mismatch, or Missing,
// and a fixed aggregation rule turns the resulting agreement vector into a
// verdict: the date and the location must agree, plus either the name or the
// demographics. No single field is ever enough.
//
// When nothing in the pool qualifies, pool members that share the incident's
// year and day of month are returned as near misses for manual review. All
// thresholds live in Policy; DefaultPolicy mirrors the values the tool has
// always shipped with.
package matcher
