// Package model holds the data shared by every stage of a validation run:
// the captured simulator output, the counts and failure records parsed
// from it, the mismatch rows reconstructed against the vector file, and
// the error taxonomy used across packages.
//
// Values in this package are plain data. A SimulationRun is immutable once
// captured; FailureRecords and MismatchRows are produced once per circuit
// and only read afterwards.
package model
