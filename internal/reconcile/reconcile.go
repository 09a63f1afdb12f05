// Package reconcile rebuilds row-level expected-versus-actual diffs from
// parsed simulator failures.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/parser"
	"github.com/roach88/vectorcheck/internal/vector"
)

// Batch turns vector_test failure records into mismatch rows.
//
// The number of records must equal counts.Failed; the two come from
// independent parts of the simulator's output and disagreement means the
// parser misread it (INTEGRITY). Records are grouped by line reference and
// every record in a group is applied to the same row, so several signals
// failing on one vector line accumulate into one MismatchRow. Columns no
// record names are assumed correct. Rows are returned in ascending line order.
//
// raw is attached to any error for diagnosis.
func Batch(circuit string, tv *vector.TestVector, counts model.AggregateCounts, failures []model.FailureRecord, raw string) ([]model.MismatchRow, error) {
	if len(failures) != counts.Failed {
		return nil, model.NewIntegrityError(circuit, counts.Failed, len(failures), raw)
	}

	groups := make(map[int]*model.MismatchRow)
	var refs []int

	for _, f := range failures {
		row, ok := groups[f.LineRef]
		if !ok {
			expected, found := tv.Row(f.LineRef)
			if !found {
				return nil, model.NewDiagnosticParseError(circuit,
					fmt.Sprintf("diagnostic refers to vector line %d, file has %d data rows", f.LineRef, tv.Len()), f.Raw)
			}
			row = &model.MismatchRow{
				LineRef:  f.LineRef,
				Expected: append([]string(nil), expected...),
				Actual:   append([]string(nil), expected...),
			}
			groups[f.LineRef] = row
			refs = append(refs, f.LineRef)
		}

		col := tv.Index(f.Signal)
		if col < 0 {
			return nil, model.NewDiagnosticParseError(circuit,
				fmt.Sprintf("signal %q is not in the vector header", f.Signal), f.Raw)
		}
		if row.Actual[col] != row.Expected[col] && row.Actual[col] != f.Actual {
			return nil, model.NewDiagnosticParseError(circuit,
				fmt.Sprintf("conflicting diagnostics for %s on vector line %d: %s and %s",
					f.Signal, f.LineRef, row.Actual[col], f.Actual), f.Raw)
		}
		row.Actual[col] = f.Actual
	}

	sort.Ints(refs)
	rows := make([]model.MismatchRow, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, *groups[ref])
	}
	return rows, nil
}

// Table turns a raw_table comparison into mismatch rows, one per failed row.
// The pairing is structural, so no grouping or approximation is involved.
func Table(tv *vector.TestVector, cmp *parser.TableComparison) []model.MismatchRow {
	rows := make([]model.MismatchRow, 0, len(cmp.FailedRows))
	for _, ref := range cmp.FailedRows {
		expected, _ := tv.Row(ref)
		rows = append(rows, model.MismatchRow{
			LineRef:  ref,
			Expected: append([]string(nil), expected...),
			Actual:   append([]string(nil), cmp.Produced[ref-1]...),
		})
	}
	return rows
}

// Disagreement is a failure record whose claimed expected value differs
// from the vector file's value at the referenced row.
type Disagreement struct {
	Record model.FailureRecord
	InFile string
}

// CheckExpected cross-checks each record's expected value against the
// vector file. A disagreement usually means the line-reference heuristic
// paired the diagnostic with the wrong row.
func CheckExpected(tv *vector.TestVector, failures []model.FailureRecord) []Disagreement {
	var out []Disagreement
	for _, f := range failures {
		row, ok := tv.Row(f.LineRef)
		col := tv.Index(f.Signal)
		if !ok || col < 0 {
			continue
		}
		if row[col] != f.Expected {
			out = append(out, Disagreement{Record: f, InFile: row[col]})
		}
	}
	return out
}
