// Package store provides the in-memory SQLite run ledger.
//
// The ledger records, per run, every circuit's outcome and mismatch rows.
// It backs the JSON report and lets a run's results be queried in listed
// order even when circuits finished out of order.
//
// The database is always ":memory:" and is discarded on Close.
//
// Tables:
//   - runs: one row per RunProject call
//   - circuits: one row per circuit, keyed by its position in the list
//   - mismatches: one row per failed vector line
//
// All queries order by position, then line_ref, so reads are deterministic.
package store
