package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vectorcheck/internal/testutil"
)

func runVectorCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewVectorCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVectorCommand_Valid(t *testing.T) {
	path := testutil.WriteVector(t, t.TempDir(), "g2b3", "# gray to binary\nS[2] C\n01 0\n\n10 1\n")

	out, err := runVectorCommand(t, "text", path)
	require.NoError(t, err)
	assert.Equal(t, path+": 2 signals, 2 rows\nSignals: S[2] C\n", out)
}

func TestVectorCommand_ValidJSON(t *testing.T) {
	path := testutil.WriteVector(t, t.TempDir(), "g2b3", "S[2] C\n01 0\n10 1\n")

	out, err := runVectorCommand(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   VectorSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, VectorSummary{
		Path:    path,
		Labels:  []string{"S[2]", "C"},
		Signals: []string{"S", "C"},
		Rows:    2,
	}, resp.Data)
}

func TestVectorCommand_Malformed(t *testing.T) {
	path := testutil.WriteVector(t, t.TempDir(), "ha", "A B S\n0 0\n")

	out, err := runVectorCommand(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [VECTOR_FORMAT]")
	assert.Contains(t, out, "row 1 (line 2) has 2 values, header has 3")
}

func TestVectorCommand_MissingFileJSON(t *testing.T) {
	out, err := runVectorCommand(t, "json", filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VECTOR_FORMAT", resp.Error.Code)
}

func TestVectorCommand_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# only a comment\n"), 0o644))

	_, err := runVectorCommand(t, "text", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header line")
}

func TestVectorCommand_MissingArgs(t *testing.T) {
	_, err := runVectorCommand(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
