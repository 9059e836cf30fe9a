// Package candidates blocks the reference records into (state, year)
// partitions so each primary incident is compared against a small pool.
//
// Build normalizes every reference record once; Query returns the records
// whose dates are close to the incident's, or close after the common data
// entry errors (day/month transposed, month off by one), plus every record
// sharing the incident's day of month. The index carries no match semantics
// and is immutable after Build, so any number of goroutines may query it.
package candidates
