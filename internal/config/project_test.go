package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCircuitFile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindCircuitFile(dir)
	assert.ErrorContains(t, err, "could not find a .circ file")

	one := filepath.Join(dir, "lab_1_introduction.circ")
	require.NoError(t, os.WriteFile(one, nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	got, err := FindCircuitFile(dir)
	require.NoError(t, err)
	assert.Equal(t, one, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lab_2_graycode.circ"), nil, 0o644))
	_, err = FindCircuitFile(dir)
	assert.ErrorContains(t, err, "found 2 .circ files")
}

func TestDetectProject(t *testing.T) {
	projects := Default().Projects

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"TestsRunner/lab_1_introduction.circ", "introduction", false},
		{"TestsRunner/graycode-final.circ", "graycode", false},
		{"/home/me/introduction/graycode.circ", "graycode", false},
		{"TestsRunner/lab_3_alu.circ", "alu", false},
		{"TestsRunner/mylab.circ", "", true},
		{"TestsRunner/a_b_c_d.circ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := projects.DetectProject(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	projects := Default().Projects

	circuits, err := projects.Resolve("graycode", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"g2b1", "g2b2", "g2b3", "g2b4"}, circuits)

	circuits, err = projects.Resolve("graycode", "g2b3")
	require.NoError(t, err)
	assert.Equal(t, []string{"g2b3"}, circuits)

	_, err = projects.Resolve("alu", "")
	assert.ErrorContains(t, err, "supported projects: introduction, graycode")
}

func TestProjects_CircuitsReturnsCopy(t *testing.T) {
	projects := Default().Projects

	circuits, ok := projects.Circuits("introduction")
	require.True(t, ok)
	circuits[0] = "changed"

	again, _ := projects.Circuits("introduction")
	assert.Equal(t, "ztor", again[0])
}
