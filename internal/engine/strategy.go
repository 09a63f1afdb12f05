package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/parser"
	"github.com/roach88/vectorcheck/internal/reconcile"
	"github.com/roach88/vectorcheck/internal/vector"
)

// Verdict is what a Strategy derives from one simulator run.
type Verdict struct {
	Counts     model.AggregateCounts
	Failures   []model.FailureRecord
	Mismatches []model.MismatchRow
}

// Strategy turns a SimulationRun into a Verdict for one output dialect.
type Strategy interface {
	// Name is a short identifier used in logs.
	Name() string

	// Mode is the simulator mode the strategy expects its input from.
	Mode() model.Mode

	// Evaluate parses run and reconciles it against tv.
	Evaluate(circuit string, tv *vector.TestVector, run *model.SimulationRun) (*Verdict, error)
}

// NewStrategy returns the Strategy for mode.
func NewStrategy(mode model.Mode, logger *slog.Logger) (Strategy, error) {
	switch mode {
	case model.ModeVectorTest:
		return NewBatch(logger)
	case model.ModeRawTable:
		return Table{}, nil
	default:
		return nil, fmt.Errorf("no strategy for mode %q", mode)
	}
}

// Batch evaluates vector_test output.
type Batch struct {
	parser *parser.SummaryParser
	logger *slog.Logger
}

// NewBatch creates a Batch strategy. A nil logger discards output.
func NewBatch(logger *slog.Logger) (*Batch, error) {
	p, err := parser.NewSummaryParser()
	if err != nil {
		return nil, fmt.Errorf("failed to build diagnostic parser: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Batch{parser: p, logger: logger}, nil
}

func (b *Batch) Name() string { return "batch" }

func (b *Batch) Mode() model.Mode { return model.ModeVectorTest }

// Evaluate parses the summary, checks that the failure count and the
// diagnostics agree, and rebuilds mismatch rows. Diagnostics whose claimed
// expected value differs from the vector file are logged as warnings; they
// usually mean a diagnostic was paired with the wrong row.
func (b *Batch) Evaluate(circuit string, tv *vector.TestVector, run *model.SimulationRun) (*Verdict, error) {
	summary, err := b.parser.Parse(circuit, run, tv)
	if err != nil {
		return nil, err
	}

	rows, err := reconcile.Batch(circuit, tv, summary.Counts, summary.Failures, run.Stdout)
	if err != nil {
		return nil, err
	}

	for _, d := range reconcile.CheckExpected(tv, summary.Failures) {
		b.logger.Warn("diagnostic disagrees with vector file",
			"circuit", circuit,
			"line_ref", d.Record.LineRef,
			"file_line", tv.FileLine(d.Record.LineRef),
			"signal", d.Record.Signal,
			"claimed", d.Record.Expected,
			"in_file", d.InFile)
	}

	return &Verdict{
		Counts:     summary.Counts,
		Failures:   summary.Failures,
		Mismatches: rows,
	}, nil
}

// Table evaluates raw_table output.
type Table struct{}

func (Table) Name() string { return "table" }

func (Table) Mode() model.Mode { return model.ModeRawTable }

// Evaluate parses the simulated table and compares it positionally with
// the vector rows.
func (Table) Evaluate(circuit string, tv *vector.TestVector, run *model.SimulationRun) (*Verdict, error) {
	produced, err := parser.ParseTable(circuit, run)
	if err != nil {
		return nil, err
	}

	cmp, err := parser.CompareTable(circuit, tv, produced)
	if err != nil {
		return nil, err
	}

	return &Verdict{
		Counts:     cmp.Counts,
		Failures:   cmp.Failures,
		Mismatches: reconcile.Table(tv, cmp),
	}, nil
}
