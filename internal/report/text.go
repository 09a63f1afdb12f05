package report

import (
	"fmt"
	"io"

	"github.com/roach88/vectorcheck/internal/model"
)

// Circuit is the outcome of one circuit as shown on the console.
type Circuit struct {
	Name       string
	Signals    []string
	Counts     model.AggregateCounts
	Mismatches []model.MismatchRow

	// Err is set when the circuit could not be validated.
	Err error
}

// WriteCircuit writes "PASS <name>", "FAIL <name>: <n> failures" followed by
// the mismatch table, or "ERROR <name>: <message>".
func WriteCircuit(w io.Writer, c Circuit) error {
	var err error
	switch {
	case c.Err != nil:
		_, err = fmt.Fprintf(w, "ERROR %s: %v\n", c.Name, c.Err)
	case c.Counts.Failed == 0:
		_, err = fmt.Fprintf(w, "PASS %s\n", c.Name)
	default:
		header, rows := MismatchTable(c.Signals, c.Mismatches)
		_, err = fmt.Fprintf(w, "FAIL %s: %d failures\n%s", c.Name, c.Counts.Failed, Render(header, rows))
	}
	return err
}

// WriteVerdict writes the closing lines of a run: the failure tally, how
// many circuits could not be validated and how many never ran. "All tests
// passed" is only written when every circuit ran and was validated.
func WriteVerdict(w io.Writer, tally, errored, skipped int) error {
	var err error
	if tally == 0 && errored == 0 && skipped == 0 {
		_, err = fmt.Fprintln(w, "All tests passed")
	} else {
		_, err = fmt.Fprintf(w, "Found %d failures in total\n", tally)
	}
	if err == nil && errored > 0 {
		_, err = fmt.Fprintf(w, "%d circuits could not be validated\n", errored)
	}
	if err == nil && skipped > 0 {
		_, err = fmt.Fprintf(w, "%d circuits were not run\n", skipped)
	}
	return err
}
