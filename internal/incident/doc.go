// Package incident defines the records exchanged between the primary
// per-jurisdiction datasets, the reference database, and the matching engine.
//
// Raw records (IncidentRecord, ReferenceRecord) are immutable once read. The
// normalizer reduces each record to a NormalizedKey; the matcher compares keys
// field by field and summarizes the outcome as an Agreement vector and a
// Verdict. Source-specific columns travel untouched in Fields so reports can
// reproduce the original row.
package incident
