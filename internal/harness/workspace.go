package harness

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/vectorcheck/internal/model"
)

// privateCopy copies the design file to a new temporary file the simulator
// may write to. The returned cleanup removes it and is safe to call on
// every exit path.
func (h *Harness) privateCopy(src, runID string, position int, circuit string) (string, func(), error) {
	in, err := os.Open(src)
	if err != nil {
		return "", nil, model.NewInvocationError(circuit, "failed to open circuit file", "", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(h.tempDir, fmt.Sprintf("vectorcheck-%s-%d-*.circ", shortID(runID), position))
	if err != nil {
		return "", nil, model.NewInvocationError(circuit, "failed to create circuit copy", "", err)
	}
	path := out.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("failed to remove circuit copy", "path", path, "error", err)
		}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		cleanup()
		return "", nil, model.NewInvocationError(circuit, "failed to copy circuit file", "", err)
	}
	if err := out.Close(); err != nil {
		cleanup()
		return "", nil, model.NewInvocationError(circuit, "failed to copy circuit file", "", err)
	}
	return path, cleanup, nil
}

// shortID keeps temp file names readable.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
