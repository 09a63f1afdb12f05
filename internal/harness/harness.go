package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/vectorcheck/internal/engine"
	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/report"
	"github.com/roach88/vectorcheck/internal/store"
)

// CircuitValidator validates one circuit. *engine.Validator implements it.
type CircuitValidator interface {
	Validate(ctx context.Context, circuitPath, circuit string) (*engine.CircuitResult, error)
	Strategy() engine.Strategy
}

// Recorder stores run outcomes. *store.Ledger implements it.
type Recorder interface {
	BeginRun(ctx context.Context, run store.Run) error
	RecordCircuit(ctx context.Context, runID string, rec store.CircuitRecord) error
}

// Options configures a Harness. Zero values select the defaults.
type Options struct {
	// Jobs is the number of circuits validated at once. Default 1.
	Jobs int

	// Policy decides what a circuit error does to the run. Default defer.
	Policy Policy

	// Out receives the console report. Default io.Discard.
	Out io.Writer

	// TempDir holds the private circuit copies. Default os.TempDir().
	TempDir string

	// Recorder, if set, receives every outcome.
	Recorder Recorder

	// IDs generates run IDs. Default UUIDv7Generator.
	IDs IDGenerator

	Logger *slog.Logger

	// Now stamps runs. Default time.Now.
	Now func() time.Time
}

// Harness runs projects.
type Harness struct {
	validator CircuitValidator
	jobs      int
	policy    Policy
	out       io.Writer
	tempDir   string
	recorder  Recorder
	ids       IDGenerator
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Harness.
func New(validator CircuitValidator, opts Options) (*Harness, error) {
	if validator == nil {
		return nil, errors.New("validator is required")
	}

	h := &Harness{
		validator: validator,
		jobs:      opts.Jobs,
		policy:    opts.Policy,
		out:       opts.Out,
		tempDir:   opts.TempDir,
		recorder:  opts.Recorder,
		ids:       opts.IDs,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if h.jobs <= 0 {
		h.jobs = 1
	}
	if h.policy == "" {
		h.policy = PolicyDefer
	}
	if _, err := ParsePolicy(string(h.policy)); err != nil {
		return nil, err
	}
	if h.out == nil {
		h.out = io.Discard
	}
	if h.ids == nil {
		h.ids = UUIDv7Generator{}
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h, nil
}

// RunProject validates circuits against the design file at circuitPath and
// prints a report block per circuit followed by the verdict.
//
// The returned Result is complete even when an error is returned. The error
// depends on the policy: defer joins every circuit error, abort returns the
// first, log returns nil. A cancelled ctx is returned as is. Failures to
// start the run or to record an outcome are always returned.
func (h *Harness) RunProject(ctx context.Context, circuitPath, project string, circuits []string) (*Result, error) {
	if len(circuits) == 0 {
		return nil, fmt.Errorf("project %s has no circuits to run", project)
	}

	result := &Result{
		RunID:       h.ids.Generate(),
		Project:     project,
		CircuitPath: circuitPath,
		Circuits:    make([]Outcome, len(circuits)),
	}
	for i, c := range circuits {
		result.Circuits[i] = Outcome{Position: i, Circuit: c, Skipped: true}
	}

	if h.recorder != nil {
		err := h.recorder.BeginRun(ctx, store.Run{
			ID:          result.RunID,
			Project:     project,
			CircuitPath: circuitPath,
			Mode:        h.validator.Strategy().Mode(),
			StartedAt:   h.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	h.logger.Info("run started",
		"run_id", result.RunID,
		"project", project,
		"circuits", len(circuits),
		"jobs", h.jobs,
		"policy", h.policy)

	printer := newOrderedPrinter(h.out, len(circuits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.jobs)

	for i, circuit := range circuits {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// An abort may land while this worker waited for a slot.
			if gctx.Err() != nil {
				return nil
			}
			outcome := h.runCircuit(gctx, result.RunID, circuitPath, i, circuit)
			result.Circuits[i] = outcome
			printer.done(i, toReport(outcome))

			if err := h.record(gctx, result.RunID, outcome); err != nil {
				return err
			}
			if outcome.Err != nil {
				return h.onError(outcome)
			}
			return nil
		})
	}

	runErr := g.Wait()
	printer.flush()

	errored, skipped := 0, 0
	for _, o := range result.Circuits {
		result.Tally += o.Failed()
		switch {
		case o.Err != nil:
			errored++
		case o.Skipped:
			skipped++
		}
	}

	if err := report.WriteVerdict(h.out, result.Tally, errored, skipped); err != nil {
		return result, fmt.Errorf("failed to write report: %w", err)
	}
	if err := printer.err; err != nil {
		return result, fmt.Errorf("failed to write report: %w", err)
	}

	h.logger.Info("run finished",
		"run_id", result.RunID,
		"tally", result.Tally,
		"errors", errored,
		"skipped", skipped)

	if runErr != nil {
		return result, runErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if h.policy == PolicyDefer {
		return result, errors.Join(result.Errors()...)
	}
	return result, nil
}

// runCircuit validates one circuit against its own copy of the design file.
func (h *Harness) runCircuit(ctx context.Context, runID, circuitPath string, position int, circuit string) Outcome {
	outcome := Outcome{Position: position, Circuit: circuit}

	path, cleanup, err := h.privateCopy(circuitPath, runID, position, circuit)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	defer cleanup()

	outcome.Result, outcome.Err = h.validator.Validate(ctx, path, circuit)
	return outcome
}

// onError applies the policy to a circuit error. A non-nil return stops
// the run.
func (h *Harness) onError(o Outcome) error {
	attrs := []any{"circuit", o.Circuit, "code", model.CodeOf(o.Err), "error", o.Err}

	switch h.policy {
	case PolicyAbort:
		h.logger.Error("circuit could not be validated, stopping run", attrs...)
		return o.Err
	case PolicyLog:
		h.logger.Error("circuit could not be validated", attrs...)
	default:
		h.logger.Warn("circuit could not be validated", attrs...)
	}

	var e *model.Error
	if errors.As(o.Err, &e) && e.Raw != "" {
		h.logger.Debug("simulator output", "circuit", o.Circuit, "raw", e.Raw)
	}
	return nil
}

func (h *Harness) record(ctx context.Context, runID string, o Outcome) error {
	if h.recorder == nil {
		return nil
	}

	rec := store.CircuitRecord{
		Position: o.Position,
		Circuit:  o.Circuit,
		Status:   store.StatusPass,
	}
	switch {
	case o.Err != nil:
		rec.Status = store.StatusError
		rec.ErrorCode = model.CodeOf(o.Err)
		rec.Error = o.Err.Error()
	case o.Result != nil:
		rec.Counts = o.Result.Counts
		rec.Signals = o.Result.Signals
		rec.Mismatches = o.Result.Mismatches
		rec.Duration = o.Result.Duration
		if o.Result.Failed() > 0 {
			rec.Status = store.StatusFail
		}
	}

	// Recording must not be cut short by an abort elsewhere in the run.
	if err := h.recorder.RecordCircuit(context.WithoutCancel(ctx), runID, rec); err != nil {
		return fmt.Errorf("failed to record circuit %s: %w", o.Circuit, err)
	}
	return nil
}

func toReport(o Outcome) report.Circuit {
	c := report.Circuit{Name: o.Circuit, Err: o.Err}
	if o.Result != nil {
		c.Signals = o.Result.Signals
		c.Counts = o.Result.Counts
		c.Mismatches = o.Result.Mismatches
	}
	return c
}

// orderedPrinter writes circuit blocks in listed order as they complete.
type orderedPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	ready []*report.Circuit
	next  int
	err   error
}

func newOrderedPrinter(w io.Writer, n int) *orderedPrinter {
	return &orderedPrinter{w: w, ready: make([]*report.Circuit, n)}
}

// done marks circuit i complete and writes every block that is now due.
func (p *orderedPrinter) done(i int, c report.Circuit) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ready[i] = &c
	for p.next < len(p.ready) && p.ready[p.next] != nil {
		p.write(p.ready[p.next])
		p.next++
	}
}

// flush writes the remaining completed blocks, skipping circuits that never
// ran.
func (p *orderedPrinter) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ; p.next < len(p.ready); p.next++ {
		if c := p.ready[p.next]; c != nil {
			p.write(c)
		}
	}
}

func (p *orderedPrinter) write(c *report.Circuit) {
	if p.err != nil {
		return
	}
	p.err = report.WriteCircuit(p.w, *c)
}
