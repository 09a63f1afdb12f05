package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/simulator"
	"github.com/roach88/vectorcheck/internal/vector"
)

// Runner executes the simulator. *simulator.Invoker implements it.
type Runner interface {
	Run(ctx context.Context, req simulator.Request) (*model.SimulationRun, error)
}

// CircuitResult is the outcome of validating one circuit.
type CircuitResult struct {
	Circuit    string
	Mode       model.Mode
	VectorPath string

	// Signals is the vector header, in column order.
	Signals []string

	Counts     model.AggregateCounts
	Failures   []model.FailureRecord
	Mismatches []model.MismatchRow

	// Duration is the simulator's wall time.
	Duration time.Duration
}

// Failed reports the number of failed vectors, the circuit's contribution
// to the run tally.
func (r *CircuitResult) Failed() int {
	return r.Counts.Failed
}

// Validator validates circuits whose vectors live in one directory.
type Validator struct {
	runner    Runner
	strategy  Strategy
	vectorDir string
	logger    *slog.Logger
}

// NewValidator creates a Validator reading test_vector_<circuit>.txt files
// from vectorDir. A nil logger discards output.
func NewValidator(runner Runner, strategy Strategy, vectorDir string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{
		runner:    runner,
		strategy:  strategy,
		vectorDir: vectorDir,
		logger:    logger,
	}
}

// Strategy returns the strategy in use.
func (v *Validator) Strategy() Strategy {
	return v.strategy
}

// VectorPath returns the vector file for circuit.
func (v *Validator) VectorPath(circuit string) string {
	return filepath.Join(v.vectorDir, "test_vector_"+circuit+".txt")
}

// Validate runs the simulator for circuit against the design file at
// circuitPath and evaluates the output.
//
// circuitPath must be a private copy the simulator may write to; the
// caller owns its lifecycle.
func (v *Validator) Validate(ctx context.Context, circuitPath, circuit string) (*CircuitResult, error) {
	vectorPath := v.VectorPath(circuit)

	tv, err := vector.Load(vectorPath)
	if err != nil {
		return nil, model.WithCircuit(err, circuit)
	}

	req := simulator.Request{
		Mode:        v.strategy.Mode(),
		CircuitPath: circuitPath,
		Circuit:     circuit,
	}
	if req.Mode == model.ModeVectorTest {
		req.VectorPath = vectorPath
	}

	v.logger.Debug("validating circuit",
		"circuit", circuit,
		"strategy", v.strategy.Name(),
		"vector", vectorPath,
		"rows", tv.Len())

	run, err := v.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	// A cut-off stream cannot be graded: missing rows would read as failures.
	if run.Truncated {
		return nil, model.NewInvocationError(circuit,
			"simulator output exceeded max_output_bytes", run.Stdout+run.Stderr, nil)
	}

	verdict, err := v.strategy.Evaluate(circuit, tv, run)
	if err != nil {
		return nil, err
	}

	v.logger.Debug("circuit evaluated",
		"circuit", circuit,
		"total", verdict.Counts.Total,
		"passed", verdict.Counts.Passed,
		"failed", verdict.Counts.Failed,
		"duration", run.Duration)

	return &CircuitResult{
		Circuit:    circuit,
		Mode:       v.strategy.Mode(),
		VectorPath: vectorPath,
		Signals:    tv.Header,
		Counts:     verdict.Counts,
		Failures:   verdict.Failures,
		Mismatches: verdict.Mismatches,
		Duration:   run.Duration,
	}, nil
}
