// Package config loads, normalizes, and validates crosscheck configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CROSSCHECK_LEDGER_PATH and
// CROSSCHECK_REPORT_DIR environment overrides. The Config type centralizes
// every knob the CLI and the reconciliation driver need: where the ledger and
// reports live, the matching thresholds, and how each source CSV maps onto the
// incident fields.
//
// Relative source paths resolve against the directory of the config file so a
// config can travel with its data.
package config
