package store

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/vectorcheck/internal/model"
)

// createTestLedger creates a new ledger with one run "run-1".
func createTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	if err := l.BeginRun(context.Background(), createTestRun("run-1")); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	return l
}

// createTestRun creates a run record with minimal required fields.
func createTestRun(id string) Run {
	return Run{
		ID:          id,
		Project:     "introduction",
		CircuitPath: "TestsRunner/lab_1_introduction.circ",
		Mode:        model.ModeVectorTest,
		StartedAt:   time.Unix(1700000000, 0),
	}
}
