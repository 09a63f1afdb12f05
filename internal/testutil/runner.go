package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/simulator"
)

// FakeRunner stands in for the simulator. Responses are keyed by circuit
// name; every request is recorded.
//
// Thread-safety: FakeRunner is safe for concurrent use via internal mutex.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []simulator.Request
}

type fakeResponse struct {
	run *model.SimulationRun
	err error
}

// NewFakeRunner creates a FakeRunner with no responses.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]fakeResponse)}
}

// On makes the runner return run for circuit.
func (f *FakeRunner) On(circuit string, run *model.SimulationRun) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[circuit] = fakeResponse{run: run}
	return f
}

// OnStdout is On with a zero exit status and the given stdout.
func (f *FakeRunner) OnStdout(circuit, stdout string) *FakeRunner {
	return f.On(circuit, &model.SimulationRun{Stdout: stdout})
}

// Fail makes the runner return err for circuit.
func (f *FakeRunner) Fail(circuit string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[circuit] = fakeResponse{err: err}
	return f
}

// Run returns the configured response. A circuit with no response fails
// with INVOCATION. A cancelled context wins over any response.
func (f *FakeRunner) Run(ctx context.Context, req simulator.Request) (*model.SimulationRun, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	resp, ok := f.responses[req.Circuit]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, model.NewInvocationError(req.Circuit, "simulator cancelled", "", err)
	}
	if !ok {
		return nil, model.NewInvocationError(req.Circuit, "no fake response configured", "", nil)
	}
	if resp.err != nil {
		return nil, resp.err
	}
	run := *resp.run
	return &run, nil
}

// Calls returns a copy of the recorded requests in arrival order.
func (f *FakeRunner) Calls() []simulator.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]simulator.Request(nil), f.calls...)
}

// Circuits returns the circuit names of the recorded requests.
func (f *FakeRunner) Circuits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Circuit
	}
	return names
}

// SummaryOutput builds vector_test stdout: the running line, the body lines
// and the pass/fail counts.
func SummaryOutput(total, passed, failed int, body ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Running %d vectors\n", total)
	for _, line := range body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Passed: %d\nFailed: %d\n", passed, failed)
	return b.String()
}

// WriteVector writes test_vector_<circuit>.txt into dir and returns its path.
func WriteVector(t *testing.T, dir, circuit, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test_vector_"+circuit+".txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write vector: %v", err)
	}
	return path
}

// WriteCircuitFile writes a placeholder design file and returns its path.
func WriteCircuitFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("<project/>\n"), 0o644); err != nil {
		t.Fatalf("write circuit file: %v", err)
	}
	return path
}
