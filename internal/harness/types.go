package harness

import (
	"fmt"

	"github.com/roach88/vectorcheck/internal/engine"
)

// Policy decides what a circuit error does to the rest of the run.
type Policy string

const (
	PolicyDefer Policy = "defer"
	PolicyAbort Policy = "abort"
	PolicyLog   Policy = "log"
)

// ParsePolicy converts a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyDefer, PolicyAbort, PolicyLog:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown error policy %q: must be %q, %q or %q", s, PolicyDefer, PolicyAbort, PolicyLog)
	}
}

// Outcome is one circuit's slot in a Result.
type Outcome struct {
	Position int
	Circuit  string

	// Result is set when the circuit was validated.
	Result *engine.CircuitResult

	// Err is set when the circuit could not be validated.
	Err error

	// Skipped is set when the run stopped before the circuit was started.
	Skipped bool
}

// Failed returns the circuit's contribution to the tally.
func (o Outcome) Failed() int {
	if o.Result == nil {
		return 0
	}
	return o.Result.Failed()
}

// Result is the outcome of RunProject.
type Result struct {
	RunID       string
	Project     string
	CircuitPath string

	// Circuits holds one outcome per requested circuit, in listed order.
	Circuits []Outcome

	// Tally is the total number of failed vectors across all circuits.
	Tally int
}

// Errors returns the circuit errors in listed order.
func (r *Result) Errors() []error {
	var errs []error
	for _, o := range r.Circuits {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// SkippedCircuits returns the circuits the run never started, in listed order.
func (r *Result) SkippedCircuits() []string {
	var names []string
	for _, o := range r.Circuits {
		if o.Skipped {
			names = append(names, o.Circuit)
		}
	}
	return names
}

// Passed reports whether every circuit was validated without failures.
func (r *Result) Passed() bool {
	if r.Tally != 0 {
		return false
	}
	for _, o := range r.Circuits {
		if o.Err != nil || o.Skipped {
			return false
		}
	}
	return true
}
