package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/model"
)

func TestBeginRun_DuplicateID(t *testing.T) {
	l := createTestLedger(t)

	err := l.BeginRun(context.Background(), createTestRun("run-1"))
	assert.Error(t, err)
}

func TestRun_RoundTrip(t *testing.T) {
	l := createTestLedger(t)

	run, err := l.Run(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "introduction", run.Project)
	assert.Equal(t, model.ModeVectorTest, run.Mode)
	assert.True(t, run.StartedAt.Equal(time.Unix(1700000000, 0)))

	_, err = l.Run(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestRecordCircuit_RequiresRun(t *testing.T) {
	l := createTestLedger(t)

	err := l.RecordCircuit(context.Background(), "no-such-run", CircuitRecord{
		Position: 0, Circuit: "ztor", Status: StatusPass,
	})
	assert.Error(t, err, "foreign key should reject unknown run")
}

func TestRecordCircuit_DuplicatePosition(t *testing.T) {
	l := createTestLedger(t)
	ctx := context.Background()

	rec := CircuitRecord{Position: 0, Circuit: "ztor", Status: StatusPass}
	require.NoError(t, l.RecordCircuit(ctx, "run-1", rec))
	assert.Error(t, l.RecordCircuit(ctx, "run-1", rec))
}

func TestRecordCircuit_RollsBackOnBadMismatch(t *testing.T) {
	l := createTestLedger(t)
	ctx := context.Background()

	// Two mismatch rows on the same line violate the primary key.
	err := l.RecordCircuit(ctx, "run-1", CircuitRecord{
		Position: 0, Circuit: "ztor", Status: StatusFail,
		Counts: model.AggregateCounts{Total: 1, Failed: 1},
		Mismatches: []model.MismatchRow{
			{LineRef: 1, Expected: []string{"0"}, Actual: []string{"1"}},
			{LineRef: 1, Expected: []string{"0"}, Actual: []string{"1"}},
		},
	})
	require.Error(t, err)

	records, err := l.Circuits(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStatusCheckConstraint(t *testing.T) {
	l := createTestLedger(t)

	err := l.RecordCircuit(context.Background(), "run-1", CircuitRecord{
		Position: 0, Circuit: "ztor", Status: Status("maybe"),
	})
	assert.Error(t, err)
}
