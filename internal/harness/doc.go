// Package harness runs every circuit of a project and folds the outcomes
// into one verdict.
//
// # Run Flow
//
// For each circuit, in listed order:
//
//  1. Copy the design file to a private temporary file
//  2. Validate the circuit against its vector (engine.Validator)
//  3. Remove the copy, whatever the outcome
//  4. Print PASS, FAIL with a mismatch table, or ERROR
//  5. Record the outcome in the run ledger
//
// The run ends with "All tests passed" or "Found N failures in total",
// followed by how many circuits could not be validated or were not run.
//
// # Tally
//
// Each circuit's failed count is returned in its own result slot and the
// tally is summed once all circuits have finished. No counter is shared
// between workers, so a parallel run (Options.Jobs > 1) produces the same
// tally as a sequential one. Console output is always in listed order.
//
// # Error Policy
//
// A circuit that cannot be validated (bad vector, simulator crash, output
// the parser does not understand) is handled per Options.Policy:
//
//   - defer: run every circuit, then return all errors joined (default)
//   - abort: stop scheduling circuits and return the first error
//   - log: log the error, record it and carry on; RunProject returns nil
//
// Signal mismatches are never errors; they only add to the tally.
package harness
