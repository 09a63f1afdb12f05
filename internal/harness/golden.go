package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario in a fresh temporary directory and
// compares its console report against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Assertion failures are reported through t. Returns the run for further
// checks, or an error if the scenario could not be executed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*ScenarioRun, error) {
	t.Helper()

	run, err := RunScenario(context.Background(), scenario, t.TempDir())
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(run, scenario.Assertions) {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, []byte(run.Output))
	return run, nil
}

// AssertGolden compares console output against a golden file.
// The golden file is stored in testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, output []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, output)
}
