// Package parser turns simulator console text into structured results.
//
// Two dialects are understood. The vector_test dialect is a pass/fail
// summary with one free-text diagnostic per failure; the row each
// diagnostic refers to is recovered from the nearest preceding line that
// ends in a number. The raw_table dialect is a full simulated signal
// table which is compared row by row against the vector file.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/vector"
)

// Markers the simulator writes to stderr when it cannot run the test at all.
const (
	LoadErrorMarker    = "Error loading test vector"
	CircuitNotFoundFmt = "Circuit '%s' not found"
	diagnosticMarker   = "expected"
)

var (
	totalPattern  = regexp.MustCompile(`Running (\d+) vectors`)
	passedPattern = regexp.MustCompile(`Passed: (\d+)`)
	failedPattern = regexp.MustCompile(`Failed: (\d+)`)
)

// Summary is the parsed vector_test output.
type Summary struct {
	Counts   model.AggregateCounts
	Failures []model.FailureRecord
}

// SummaryParser parses vector_test output. It is safe for concurrent use.
type SummaryParser struct {
	diagnostics *DiagnosticParser
}

// NewSummaryParser creates a SummaryParser.
func NewSummaryParser() (*SummaryParser, error) {
	dp, err := NewDiagnosticParser()
	if err != nil {
		return nil, err
	}
	return &SummaryParser{diagnostics: dp}, nil
}

// Parse extracts counts and failure records from run.
//
// stderr is checked first: a vector load error or a missing circuit means
// no test ran, and is reported as VECTOR_LOAD or CIRCUIT_NOT_FOUND. Then the
// three counts are read from stdout, and every stdout line containing
// "expected" becomes a FailureRecord whose LineRef is the trailing number of
// the most recent earlier line that ended in one.
func (p *SummaryParser) Parse(circuit string, run *model.SimulationRun, tv *vector.TestVector) (*Summary, error) {
	if strings.Contains(run.Stderr, LoadErrorMarker) {
		return nil, model.NewVectorLoadError(circuit, run.Stderr)
	}
	if strings.Contains(run.Stderr, fmt.Sprintf(CircuitNotFoundFmt, circuit)) {
		return nil, model.NewCircuitNotFoundError(circuit, run.Stderr)
	}

	stdout := norm.NFC.String(run.Stdout)

	counts, err := parseCounts(circuit, stdout)
	if err != nil {
		return nil, err
	}

	failures, err := p.parseFailures(circuit, stdout, tv)
	if err != nil {
		return nil, err
	}

	return &Summary{Counts: counts, Failures: failures}, nil
}

func parseCounts(circuit, stdout string) (model.AggregateCounts, error) {
	var counts model.AggregateCounts
	fields := []struct {
		pattern *regexp.Regexp
		label   string
		dst     *int
	}{
		{totalPattern, "Running <N> vectors", &counts.Total},
		{passedPattern, "Passed: <N>", &counts.Passed},
		{failedPattern, "Failed: <N>", &counts.Failed},
	}

	for _, f := range fields {
		m := f.pattern.FindStringSubmatch(stdout)
		if m == nil {
			return counts, model.NewDiagnosticParseError(circuit,
				fmt.Sprintf("simulator output has no %q line", f.label), stdout)
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return counts, model.NewDiagnosticParseError(circuit,
				fmt.Sprintf("bad count in %q: %v", m[0], err), stdout)
		}
		*f.dst = n
	}
	return counts, nil
}

func (p *SummaryParser) parseFailures(circuit, stdout string, tv *vector.TestVector) ([]model.FailureRecord, error) {
	text := strings.ReplaceAll(stdout, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var failures []model.FailureRecord
	pending := -1

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, diagnosticMarker) {
			if pending < 0 {
				return nil, model.NewDiagnosticParseError(circuit,
					"diagnostic appears before any vector line number", line)
			}

			d, err := p.diagnostics.Parse(line)
			if err != nil {
				return nil, model.NewDiagnosticParseError(circuit, err.Error(), line)
			}
			if tv.Index(d.Signal) < 0 {
				return nil, model.NewDiagnosticParseError(circuit,
					fmt.Sprintf("signal %q is not in the vector header %v", d.Signal, tv.Header), line)
			}

			failures = append(failures, model.FailureRecord{
				LineRef:  pending,
				Signal:   d.Signal,
				Actual:   d.Actual,
				Expected: d.Expected,
				Raw:      strings.TrimSpace(line),
			})
		}

		if n, ok := trailingNumber(line); ok {
			pending = n
		}
	}

	return failures, nil
}

// trailingNumber returns the last whitespace-separated token of line if it
// is an unsigned decimal integer.
func trailingNumber(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, false
	}
	last := fields[len(fields)-1]
	for i := 0; i < len(last); i++ {
		if last[i] < '0' || last[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(last)
	if err != nil {
		return 0, false
	}
	return n, true
}
