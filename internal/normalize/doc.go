// Package normalize reduces heterogeneous incident fields to the canonical,
// comparable forms held in incident.NormalizedKey.
//
// Every function here is total and pure: malformed input never produces an
// error, it produces an empty or low-confidence value that the matcher treats
// as missing evidence. Running the same record through Incident or Reference
// twice always yields an identical key.
package normalize
