// Package textutil provides the token and string similarity helpers shared by
// the normalizer, the matcher, and the report writer.
//
// The primary use cases are:
//   - Splitting free text into lowercase alphanumeric tokens
//   - Scoring token lists with order-insensitive similarity measures
//   - Scoring single tokens by normalized edit distance
//   - Sanitizing dataset identifiers for safe filesystem use
//
// All scores are in [0, 1]; 1 means identical.
package textutil
