package model

import (
	"fmt"
	"time"
)

// Mode selects how the simulator is driven and which output dialect it
// speaks.
type Mode string

const (
	// ModeVectorTest runs the simulator's batch test mode against a vector
	// file. Output is a pass/fail summary with per-failure diagnostics.
	ModeVectorTest Mode = "vector_test"

	// ModeRawTable runs the circuit directly and prints the full simulated
	// signal table. Comparison against the vector file happens locally.
	ModeRawTable Mode = "raw_table"
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeVectorTest, ModeRawTable:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown dialect %q: must be %q or %q", s, ModeVectorTest, ModeRawTable)
	}
}

// SimulationRun is the captured result of one simulator invocation.
type SimulationRun struct {
	ExitCode int
	Stdout   string
	Stderr   string

	// Duration is the wall time of the process.
	Duration time.Duration

	// Truncated is set when either stream hit the configured output cap.
	Truncated bool
}

// AggregateCounts are the totals reported by the simulator (vector_test)
// or computed from the table comparison (raw_table).
type AggregateCounts struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// FailureRecord is one signal mismatch.
//
// LineRef indexes the vector file after comment and blank-line filtering,
// with 0 being the header, so data rows are 1..N. In the vector_test
// dialect it is recovered heuristically from the simulator's output.
type FailureRecord struct {
	LineRef  int    `json:"line_ref"`
	Signal   string `json:"signal"`
	Actual   string `json:"actual"`
	Expected string `json:"expected"`

	// Raw is the diagnostic line the record was parsed from. Empty for
	// raw_table records.
	Raw string `json:"raw,omitempty"`
}

// MismatchRow pairs an expected vector row with the reconstructed actual row.
// Both slices are aligned with the vector header.
type MismatchRow struct {
	LineRef  int      `json:"line_ref"`
	Expected []string `json:"expected"`
	Actual   []string `json:"actual"`
}

// Positions returns the column indexes where Expected and Actual differ.
func (r MismatchRow) Positions() []int {
	var pos []int
	for i := range r.Expected {
		if i >= len(r.Actual) || r.Expected[i] != r.Actual[i] {
			pos = append(pos, i)
		}
	}
	return pos
}
