package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/vectorcheck/internal/store"
)

// statusSkipped marks a circuit the run never started. It has no ledger row.
const statusSkipped = "skipped"

// AssertionError is returned when an assertion fails.
// It includes the console output to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Console report for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Output != "" {
		fmt.Fprintf(&buf, "\nConsole output:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Output, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against a scenario run.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(run *ScenarioRun, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTally:
			err = assertTally(run, assertion)
		case AssertStatus:
			err = assertStatus(run, assertion)
		case AssertErrorCode:
			err = assertErrorCode(run, assertion)
		case AssertMismatch:
			err = assertMismatch(run, assertion)
		case AssertRan:
			err = assertRan(run, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertTally(run *ScenarioRun, a Assertion) error {
	if run.Result == nil {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Count), Actual: "no result", Output: run.Output}
	}
	if run.Result.Tally != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("tally %d", a.Count),
			Actual:   fmt.Sprintf("tally %d", run.Result.Tally),
			Output:   run.Output,
		}
	}
	return nil
}

// assertStatus reads the status from the ledger, so the recorded outcome is
// checked rather than the in-memory one.
func assertStatus(run *ScenarioRun, a Assertion) error {
	actual := statusSkipped
	if rec, ok := findRecord(run.Records, a.Circuit); ok {
		actual = string(rec.Status)
	}
	if actual != a.Status {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s is %s", a.Circuit, a.Status),
			Actual:   fmt.Sprintf("%s is %s", a.Circuit, actual),
			Output:   run.Output,
		}
	}
	return nil
}

func assertErrorCode(run *ScenarioRun, a Assertion) error {
	rec, ok := findRecord(run.Records, a.Circuit)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.Code, Actual: a.Circuit + " not recorded", Output: run.Output}
	}
	if string(rec.ErrorCode) != a.Code {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s failed with %s", a.Circuit, a.Code),
			Actual:   fmt.Sprintf("%s has code %q (%s)", a.Circuit, rec.ErrorCode, rec.Error),
			Output:   run.Output,
		}
	}
	return nil
}

func assertMismatch(run *ScenarioRun, a Assertion) error {
	rec, ok := findRecord(run.Records, a.Circuit)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.Circuit + " recorded", Actual: "not recorded", Output: run.Output}
	}

	want := fmt.Sprintf("line %d expected %v actual %v", a.LineRef, a.Expected, a.Actual)
	for _, m := range rec.Mismatches {
		if m.LineRef != a.LineRef {
			continue
		}
		got := fmt.Sprintf("line %d expected %v actual %v", m.LineRef, m.Expected, m.Actual)
		if slices.Equal(m.Expected, a.Expected) && slices.Equal(m.Actual, a.Actual) {
			return nil
		}
		return &AssertionError{Type: a.Type, Expected: want, Actual: got, Output: run.Output}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: want,
		Actual:   fmt.Sprintf("no mismatch at line %d of %s", a.LineRef, a.Circuit),
		Output:   run.Output,
	}
}

func assertRan(run *ScenarioRun, a Assertion) error {
	want := append([]string(nil), a.Circuits...)
	got := append([]string(nil), run.Calls...)
	sort.Strings(want)
	sort.Strings(got)

	if !slices.Equal(want, got) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("simulator ran %v", want),
			Actual:   fmt.Sprintf("simulator ran %v", got),
			Output:   run.Output,
		}
	}
	return nil
}

func findRecord(records []store.CircuitRecord, circuit string) (store.CircuitRecord, bool) {
	for _, r := range records {
		if r.Circuit == circuit {
			return r, true
		}
	}
	return store.CircuitRecord{}, false
}
