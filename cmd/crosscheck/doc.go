// Package main hosts the crosscheck CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, opens and locks the
// reported-incident ledger, runs reconciliation passes, and exposes ledger
// inspection and configuration scaffolding. Matching, persistence, and report
// writing live in the internal packages; commands here only wire them
// together and render results for the terminal or as JSON.
package main
