package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/vectorcheck/internal/engine"
	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/store"
	"github.com/roach88/vectorcheck/internal/testutil"
)

// ScenarioRun is everything observable about one scenario execution.
type ScenarioRun struct {
	Result *Result

	// Err is the error RunProject returned.
	Err error

	// Output is the console report.
	Output string

	// Records are the ledger rows, in listed order.
	Records []store.CircuitRecord

	// Calls are the circuits the simulator was invoked for.
	Calls []string
}

// RunScenario executes s in dir, which must be an empty scratch directory.
//
// Each run gets a fresh in-memory ledger and a fixed run ID, so the
// console output is identical across runs.
func RunScenario(ctx context.Context, s *Scenario, dir string) (*ScenarioRun, error) {
	mode := model.ModeVectorTest
	if s.Dialect != "" {
		m, err := model.ParseMode(s.Dialect)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	project := s.Project
	if project == "" {
		project = "scenario"
	}
	runID := s.RunID
	if runID == "" {
		runID = "run-1"
	}

	vectorDir := filepath.Join(dir, "vectors", project)
	tempDir := filepath.Join(dir, "tmp")
	for _, d := range []string{vectorDir, tempDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", d, err)
		}
	}

	circuitPath := filepath.Join(dir, "lab_1_"+project+".circ")
	if err := os.WriteFile(circuitPath, []byte("<project/>\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write circuit file: %w", err)
	}

	runner := testutil.NewFakeRunner()
	names := make([]string, len(s.Circuits))
	for i, c := range s.Circuits {
		names[i] = c.Name
		if c.Vector != nil {
			path := filepath.Join(vectorDir, "test_vector_"+c.Name+".txt")
			if err := os.WriteFile(path, []byte(*c.Vector), 0o644); err != nil {
				return nil, fmt.Errorf("failed to write vector for %s: %w", c.Name, err)
			}
		}
		runner.On(c.Name, &model.SimulationRun{
			ExitCode: c.ExitCode,
			Stdout:   c.Stdout,
			Stderr:   c.Stderr,
		})
	}

	strategy, err := engine.NewStrategy(mode, nil)
	if err != nil {
		return nil, err
	}
	validator := engine.NewValidator(runner, strategy, vectorDir, nil)

	ledger, err := store.Open()
	if err != nil {
		return nil, err
	}
	defer ledger.Close()

	var out bytes.Buffer
	h, err := New(validator, Options{
		Jobs:     s.Jobs,
		Policy:   Policy(s.Policy),
		Out:      &out,
		TempDir:  tempDir,
		Recorder: ledger,
		IDs:      testutil.NewFixedIDGenerator(runID),
	})
	if err != nil {
		return nil, err
	}

	run := &ScenarioRun{}
	run.Result, run.Err = h.RunProject(ctx, circuitPath, project, names)
	run.Output = out.String()
	run.Calls = runner.Circuits()

	if run.Result != nil {
		run.Records, err = ledger.Circuits(ctx, run.Result.RunID)
		if err != nil {
			return nil, err
		}
	}

	return run, nil
}
