package model

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "vector format with cause",
			err:  NewVectorFormatError("TestVectors/adder/test_vector_ha.txt", "cannot read vector file", fs.ErrNotExist),
			want: "VECTOR_FORMAT: TestVectors/adder/test_vector_ha.txt: cannot read vector file: file does not exist",
		},
		{
			name: "vector load",
			err:  NewVectorLoadError("parity", "Error loading test vector"),
			want: "VECTOR_LOAD: simulator failed to load test vector (circuit=parity)",
		},
		{
			name: "circuit not found",
			err:  NewCircuitNotFoundError("g2b5", ""),
			want: "CIRCUIT_NOT_FOUND: circuit not found in design file (circuit=g2b5)",
		},
		{
			name: "timeout",
			err:  NewInvocationTimeout("ztor", 2*time.Minute, ""),
			want: "INVOCATION_TIMEOUT: simulator killed after 2m0s (circuit=ztor)",
		},
		{
			name: "integrity",
			err:  NewIntegrityError("pf4", 2, 1, "Failed: 2"),
			want: "INTEGRITY: simulator reported 2 failures but 1 diagnostics were parsed (circuit=pf4)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("exec: \"java\": executable file not found in $PATH")
	err := NewInvocationError("ztor", "failed to start simulator", "", cause)

	assert.ErrorIs(t, err, cause)
	assert.Nil(t, NewDiagnosticParseError("ztor", "bad line", "x").Unwrap())
}

func TestError_Detail(t *testing.T) {
	err := NewDiagnosticParseError("ztor", "unrecognized diagnostic", "  B = ? (expected 1)")
	assert.Equal(t,
		"DIAGNOSTIC_PARSE: unrecognized diagnostic (circuit=ztor)\n--- raw output ---\n  B = ? (expected 1)",
		err.Detail())

	noRaw := NewCircuitNotFoundError("ztor", "")
	assert.Equal(t, noRaw.Error(), noRaw.Detail())
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("validate ha: %w", NewVectorLoadError("ha", ""))

	assert.Equal(t, ErrCodeVectorLoad, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.True(t, IsCode(wrapped, ErrCodeVectorLoad))
	assert.False(t, IsCode(wrapped, ErrCodeIntegrity))
}

func TestErrorClasses(t *testing.T) {
	environment := []error{
		NewVectorFormatError("v.txt", "malformed vector file", nil),
		NewVectorLoadError("c", ""),
		NewCircuitNotFoundError("c", ""),
		NewInvocationError("c", "failed", "", nil),
		NewInvocationTimeout("c", time.Second, ""),
	}
	for _, err := range environment {
		assert.True(t, IsEnvironment(err), "%v", err)
		assert.False(t, IsFormatViolation(err), "%v", err)
	}

	format := []error{
		NewDiagnosticParseError("c", "bad", ""),
		NewIntegrityError("c", 1, 0, ""),
	}
	for _, err := range format {
		assert.True(t, IsFormatViolation(err), "%v", err)
		assert.False(t, IsEnvironment(err), "%v", err)
	}

	assert.False(t, IsEnvironment(errors.New("plain")))
	assert.False(t, IsFormatViolation(nil))
}

func TestWithCircuit(t *testing.T) {
	err := WithCircuit(NewVectorFormatError("v.txt", "malformed vector file", nil), "ha")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "ha", e.Circuit)

	kept := WithCircuit(NewVectorLoadError("fa", ""), "ha")
	require.ErrorAs(t, kept, &e)
	assert.Equal(t, "fa", e.Circuit)

	plain := errors.New("plain")
	assert.Same(t, plain, WithCircuit(plain, "ha"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("raw_table")
	require.NoError(t, err)
	assert.Equal(t, ModeRawTable, m)

	_, err = ParseMode("table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "table"`)
}

func TestMismatchRow_Positions(t *testing.T) {
	row := MismatchRow{LineRef: 1, Expected: []string{"1", "0", "1"}, Actual: []string{"1", "1", "1"}}
	assert.Equal(t, []int{1}, row.Positions())

	short := MismatchRow{Expected: []string{"1", "0"}, Actual: []string{"1"}}
	assert.Equal(t, []int{1}, short.Positions())

	assert.Nil(t, MismatchRow{Expected: []string{"1"}, Actual: []string{"1"}}.Positions())
}
