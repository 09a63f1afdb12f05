package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/store"
)

func sampleRun() *ScenarioRun {
	return &ScenarioRun{
		Result: &Result{RunID: "run-1", Tally: 1},
		Output: "FAIL ha: 1 failures\nFound 1 failures in total\n",
		Records: []store.CircuitRecord{
			{
				Position: 0,
				Circuit:  "ha",
				Status:   store.StatusFail,
				Counts:   model.AggregateCounts{Total: 2, Passed: 1, Failed: 1},
				Signals:  []string{"A", "S"},
				Mismatches: []model.MismatchRow{
					{LineRef: 2, Expected: []string{"1", "0"}, Actual: []string{"1", "1"}},
				},
			},
			{
				Position:  1,
				Circuit:   "fa",
				Status:    store.StatusError,
				ErrorCode: model.ErrCodeVectorLoad,
				Error:     "VECTOR_LOAD: simulator failed to load test vector (circuit=fa)",
			},
		},
		Calls: []string{"fa", "ha"},
	}
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	failures := EvaluateAssertions(sampleRun(), []Assertion{
		{Type: AssertTally, Count: 1},
		{Type: AssertStatus, Circuit: "ha", Status: "fail"},
		{Type: AssertStatus, Circuit: "ca", Status: "skipped"},
		{Type: AssertErrorCode, Circuit: "fa", Code: "VECTOR_LOAD"},
		{Type: AssertMismatch, Circuit: "ha", LineRef: 2, Expected: []string{"1", "0"}, Actual: []string{"1", "1"}},
		{Type: AssertRan, Circuits: []string{"ha", "fa"}},
	})
	assert.Empty(t, failures)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"tally", Assertion{Type: AssertTally, Count: 3}, "Actual: tally 1"},
		{"status", Assertion{Type: AssertStatus, Circuit: "ha", Status: "pass"}, "Actual: ha is fail"},
		{"skipped circuit", Assertion{Type: AssertStatus, Circuit: "ca", Status: "pass"}, "Actual: ca is skipped"},
		{"error code", Assertion{Type: AssertErrorCode, Circuit: "fa", Code: "INTEGRITY"}, `fa has code "VECTOR_LOAD"`},
		{"error code unrecorded", Assertion{Type: AssertErrorCode, Circuit: "ca", Code: "INTEGRITY"}, "ca not recorded"},
		{"mismatch values", Assertion{Type: AssertMismatch, Circuit: "ha", LineRef: 2, Expected: []string{"1", "0"}, Actual: []string{"0", "0"}}, "Actual: line 2 expected [1 0] actual [1 1]"},
		{"mismatch line", Assertion{Type: AssertMismatch, Circuit: "ha", LineRef: 5}, "no mismatch at line 5 of ha"},
		{"ran", Assertion{Type: AssertRan, Circuits: []string{"ha"}}, "simulator ran [fa ha]"},
		{"unknown", Assertion{Type: "trace"}, `unknown assertion type "trace"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(sampleRun(), []Assertion{tt.assertion})
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_NoResult(t *testing.T) {
	failures := EvaluateAssertions(&ScenarioRun{}, []Assertion{{Type: AssertTally}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "no result")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTally,
		Expected: "tally 2",
		Actual:   "tally 1",
		Output:   "PASS ha\nAll tests passed\n",
	}

	want := "Assertion failed: tally\n" +
		"  Expected: tally 2\n" +
		"  Actual: tally 1\n" +
		"\nConsole output:\n" +
		"  PASS ha\n" +
		"  All tests passed\n"
	assert.Equal(t, want, err.Error())
}

func TestAssertionError_NoOutput(t *testing.T) {
	err := &AssertionError{Type: AssertRan, Expected: "a", Actual: "b"}
	assert.NotContains(t, err.Error(), "Console output")
}
