package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/testutil"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBatchValidator(t *testing.T, runner Runner, dir string) *Validator {
	t.Helper()
	strategy, err := NewStrategy(model.ModeVectorTest, discard())
	require.NoError(t, err)
	return NewValidator(runner, strategy, dir, discard())
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy(model.ModeVectorTest, nil)
	require.NoError(t, err)
	assert.Equal(t, "batch", s.Name())
	assert.Equal(t, model.ModeVectorTest, s.Mode())

	s, err = NewStrategy(model.ModeRawTable, nil)
	require.NoError(t, err)
	assert.Equal(t, "table", s.Name())
	assert.Equal(t, model.ModeRawTable, s.Mode())

	_, err = NewStrategy("bogus", nil)
	assert.Error(t, err)
}

func TestValidate_ScenarioA(t *testing.T) {
	dir := t.TempDir()
	vectorPath := testutil.WriteVector(t, dir, "ztor", "# header\nA B C\n1 0 1\n")

	runner := testutil.NewFakeRunner().OnStdout("ztor",
		testutil.SummaryOutput(1, 0, 1, "1", "    B = 1 (expected 0)"))

	result, err := newBatchValidator(t, runner, dir).Validate(context.Background(), "/tmp/copy.circ", "ztor")
	require.NoError(t, err)

	assert.Equal(t, "ztor", result.Circuit)
	assert.Equal(t, []string{"A", "B", "C"}, result.Signals)
	assert.Equal(t, 1, result.Failed())
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, []string{"1", "0", "1"}, result.Mismatches[0].Expected)
	assert.Equal(t, []string{"1", "1", "1"}, result.Mismatches[0].Actual)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, model.ModeVectorTest, calls[0].Mode)
	assert.Equal(t, "/tmp/copy.circ", calls[0].CircuitPath)
	assert.Equal(t, vectorPath, calls[0].VectorPath)
}

func TestValidate_ScenarioB(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "pf4", "A B C\n1 0 1\n")
	runner := testutil.NewFakeRunner().OnStdout("pf4", testutil.SummaryOutput(1, 1, 0))

	result, err := newBatchValidator(t, runner, dir).Validate(context.Background(), "c.circ", "pf4")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed())
	assert.Empty(t, result.Mismatches)
}

func TestValidate_ScenarioC(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "ztor", "A\n1\n")
	runner := testutil.NewFakeRunner().On("ztor", &model.SimulationRun{
		Stderr: "Error loading test vector: line 2\n",
	})

	_, err := newBatchValidator(t, runner, dir).Validate(context.Background(), "c.circ", "ztor")
	assert.True(t, model.IsCode(err, model.ErrCodeVectorLoad))
}

func TestValidate_MissingVectorFile(t *testing.T) {
	runner := testutil.NewFakeRunner()

	_, err := newBatchValidator(t, runner, t.TempDir()).Validate(context.Background(), "c.circ", "ghost")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrCodeVectorFormat))

	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "ghost", e.Circuit)

	// The simulator is never started for an unreadable vector.
	assert.Empty(t, runner.Calls())
}

func TestValidate_IntegrityError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "ztor", "A B C\n1 0 1\n")
	runner := testutil.NewFakeRunner().OnStdout("ztor",
		testutil.SummaryOutput(1, 0, 2, "1", "B = 1 (expected 0)"))

	_, err := newBatchValidator(t, runner, dir).Validate(context.Background(), "c.circ", "ztor")
	assert.True(t, model.IsCode(err, model.ErrCodeIntegrity))
}

func TestValidate_RunnerError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "ztor", "A\n1\n")
	runner := testutil.NewFakeRunner().Fail("ztor",
		model.NewInvocationError("ztor", "failed to start simulator", "", nil))

	_, err := newBatchValidator(t, runner, dir).Validate(context.Background(), "c.circ", "ztor")
	assert.True(t, model.IsCode(err, model.ErrCodeInvocation))
}

func TestValidate_ScenarioD(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "ztor", "A B C\n1 0 1\n")
	runner := testutil.NewFakeRunner().OnStdout("ztor", "A B C\n1 1 1\n")

	v := NewValidator(runner, Table{}, dir, discard())
	result, err := v.Validate(context.Background(), "c.circ", "ztor")
	require.NoError(t, err)

	assert.Equal(t, model.AggregateCounts{Total: 1, Failed: 1}, result.Counts)
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, []int{1}, result.Mismatches[0].Positions())

	// No vector file is handed to the simulator in raw_table mode.
	assert.Empty(t, runner.Calls()[0].VectorPath)
	assert.Equal(t, model.ModeRawTable, runner.Calls()[0].Mode)
}

func TestValidate_TableToleratesNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "ztor", "A B\n0 1\n")
	runner := testutil.NewFakeRunner().On("ztor", &model.SimulationRun{ExitCode: 1, Stdout: "A B\n0 1\n"})

	result, err := NewValidator(runner, Table{}, dir, discard()).Validate(context.Background(), "c.circ", "ztor")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed())
}

func TestValidate_TruncatedOutput(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "ztor", "A B\n0 1\n1 0\n1 1\n")
	// The cap cut stdout after the first produced row.
	runner := testutil.NewFakeRunner().On("ztor", &model.SimulationRun{
		Stdout:    "A B\n0 1\n",
		Truncated: true,
	})

	result, err := NewValidator(runner, Table{}, dir, discard()).Validate(context.Background(), "c.circ", "ztor")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, model.IsCode(err, model.ErrCodeInvocation))
	assert.Contains(t, err.Error(), "max_output_bytes")
}

func TestValidate_WarnsOnDisagreement(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteVector(t, dir, "ztor", "A B\n0 0\n")
	runner := testutil.NewFakeRunner().OnStdout("ztor",
		testutil.SummaryOutput(1, 0, 1, "1", "B = 1 (expected 1)"))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	strategy, err := NewBatch(logger)
	require.NoError(t, err)

	_, err = NewValidator(runner, strategy, dir, logger).Validate(context.Background(), "c.circ", "ztor")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "diagnostic disagrees with vector file")
}

func TestVectorPath(t *testing.T) {
	v := NewValidator(testutil.NewFakeRunner(), Table{}, filepath.Join("TestVectors", "graycode"), nil)
	assert.Equal(t, filepath.Join("TestVectors", "graycode", "test_vector_g2b1.txt"), v.VectorPath("g2b1"))
}
