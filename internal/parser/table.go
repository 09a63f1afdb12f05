package parser

import (
	"fmt"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/vector"
)

// MissingCell stands in for the actual value of an expected row that the
// simulator never produced.
const MissingCell = "-"

// ParseTable reads raw_table stdout as a header line followed by one row per
// simulated step. Comment stripping is off: the simulator never emits
// comments, and a '#' token would be a real value.
//
// A run with a non-zero exit status is still accepted if its stdout parses;
// otherwise the failure is reported as INVOCATION since the process, not the
// text layout, is at fault.
func ParseTable(circuit string, run *model.SimulationRun) (*vector.TestVector, error) {
	table, err := vector.Parse(run.Stdout, vector.ParseOptions{})
	if err == nil {
		return table, nil
	}
	if run.ExitCode != 0 {
		return nil, model.NewInvocationError(circuit,
			fmt.Sprintf("simulator exited with status %d and produced no usable table", run.ExitCode),
			run.Stdout+run.Stderr, err)
	}
	return nil, model.NewDiagnosticParseError(circuit, "malformed simulation table: "+err.Error(), run.Stdout)
}

// TableComparison is the positional diff of a simulated table against the
// vector file.
type TableComparison struct {
	Counts model.AggregateCounts

	// Failures holds one record per mismatching cell.
	Failures []model.FailureRecord

	// FailedRows lists line references of failed rows in ascending order.
	FailedRows []int

	// Produced holds the actual row for each expected row, aligned with the
	// vector's rows. Rows the simulator never produced are filled with
	// MissingCell.
	Produced [][]string
}

// CompareTable pairs expected and produced data rows by position. The
// produced header must have the same width as the vector header; names are
// not matched. Extra produced rows are ignored; an expected row with no
// produced counterpart fails on every column.
func CompareTable(circuit string, expected, produced *vector.TestVector) (*TableComparison, error) {
	if produced.Width() != expected.Width() {
		return nil, model.NewDiagnosticParseError(circuit,
			fmt.Sprintf("simulation table has %d columns %v, vector file has %d %v",
				produced.Width(), produced.Header, expected.Width(), expected.Header), "")
	}

	cmp := &TableComparison{
		Counts:   model.AggregateCounts{Total: expected.Len()},
		Produced: make([][]string, expected.Len()),
	}

	for i, want := range expected.Rows {
		ref := i + 1
		got, ok := produced.Row(ref)
		if !ok {
			got = make([]string, len(want))
			for j := range got {
				got[j] = MissingCell
			}
		}
		cmp.Produced[i] = got

		failed := false
		for j := range want {
			if want[j] == got[j] {
				continue
			}
			failed = true
			cmp.Failures = append(cmp.Failures, model.FailureRecord{
				LineRef:  ref,
				Signal:   expected.Header[j],
				Actual:   got[j],
				Expected: want[j],
			})
		}

		if failed {
			cmp.Counts.Failed++
			cmp.FailedRows = append(cmp.FailedRows, ref)
		} else {
			cmp.Counts.Passed++
		}
	}

	return cmp, nil
}
