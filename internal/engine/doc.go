// Package engine validates one circuit against its test vector.
//
// A Validator loads the vector file, asks a Runner to execute the simulator
// and hands the captured output to a Strategy. Two strategies exist, one per
// simulator output dialect:
//
//   - Batch (vector_test): the simulator compares the vector itself and
//     prints a pass/fail summary with one diagnostic per failed signal. The
//     vector row each diagnostic refers to is recovered heuristically.
//   - Table (raw_table): the simulator prints its full signal table and the
//     comparison happens here, row by row. Pairing is structural, so this is
//     the more robust strategy where the simulator supports it.
//
// Signal mismatches are results, not errors. A Validate error means the
// circuit could not be validated at all; see model.Error for the categories.
//
// Validators hold no mutable state and are safe for concurrent use provided
// the Runner is.
package engine
