// Package sources reads the reference database export and the primary
// per-jurisdiction tables from CSV files described in the configuration.
//
// Each configured column map translates header names into incident fields.
// Dataset loaders apply the cleaning filters configured per table (fatal
// outcome, subject role, minimum date), assign deterministic case ids to rows
// that carry none, and collapse duplicate case ids to their first row. Every
// source column travels with the record as an opaque field bag so reports can
// reproduce the original row.
package sources
