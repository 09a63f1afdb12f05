// Package simulator runs the external circuit simulator as an opaque
// subprocess and captures what it prints.
//
// The Invoker knows how to build a command line for each mode and how to
// classify process failures. It does not interpret the output; that is the
// parser's job. Callers must hand it a private copy of the design file,
// since the simulator may write to the file it is given.
package simulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/roach88/vectorcheck/internal/model"
)

// Argument template placeholders.
const (
	PlaceholderCircuitFile = "{circ}"
	PlaceholderCircuit     = "{circuit}"
	PlaceholderVector      = "{vector}"
)

// Config describes how to launch the simulator.
type Config struct {
	// Java is the launcher binary. When Jar is empty it is run directly.
	Java string

	// Jar is the simulator archive passed as "-jar <Jar>".
	Jar string

	// Timeout bounds every invocation. The process is killed on expiry.
	Timeout time.Duration

	// MaxOutputBytes caps each captured stream.
	MaxOutputBytes int64

	// TestArgs and TableArgs are argument templates for the two modes.
	TestArgs  []string
	TableArgs []string

	// Env is appended to the inherited environment.
	Env []string

	// Dir is the working directory of the process.
	Dir string
}

// DefaultConfig returns the launch settings for the course's Logisim build.
func DefaultConfig() Config {
	return Config{
		Java:           "java",
		Jar:            "Dependencies/logisim-2.7.2-cs3410-20140215.jar",
		Timeout:        120 * time.Second,
		MaxOutputBytes: 4 << 20,
		TestArgs:       []string{PlaceholderCircuitFile, "-test", PlaceholderCircuit, PlaceholderVector},
		TableArgs:      []string{PlaceholderCircuitFile, "-tty", "table", "-circuit", PlaceholderCircuit},
	}
}

// Request names one simulator invocation.
type Request struct {
	Mode        model.Mode
	CircuitPath string
	Circuit     string

	// VectorPath is required in vector_test mode and ignored otherwise.
	VectorPath string
}

// Invoker launches the simulator. It is safe for concurrent use.
type Invoker struct {
	config Config
	logger *slog.Logger
}

// New creates an Invoker.
func New(config Config, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.MaxOutputBytes <= 0 {
		config.MaxOutputBytes = DefaultConfig().MaxOutputBytes
	}
	return &Invoker{config: config, logger: logger}
}

// Command returns the binary and arguments for req.
func (inv *Invoker) Command(req Request) (string, []string, error) {
	if req.CircuitPath == "" {
		return "", nil, fmt.Errorf("circuit file is required")
	}
	if req.Circuit == "" {
		return "", nil, fmt.Errorf("circuit name is required")
	}

	var templates []string
	switch req.Mode {
	case model.ModeVectorTest:
		if req.VectorPath == "" {
			return "", nil, fmt.Errorf("vector file is required in %s mode", req.Mode)
		}
		templates = inv.config.TestArgs
	case model.ModeRawTable:
		for _, t := range inv.config.TableArgs {
			if strings.Contains(t, PlaceholderVector) {
				return "", nil, fmt.Errorf("%s arguments must not reference %s", req.Mode, PlaceholderVector)
			}
		}
		templates = inv.config.TableArgs
	default:
		return "", nil, fmt.Errorf("unknown mode %q", req.Mode)
	}

	replacer := strings.NewReplacer(
		PlaceholderCircuitFile, req.CircuitPath,
		PlaceholderCircuit, req.Circuit,
		PlaceholderVector, req.VectorPath,
	)

	var args []string
	if inv.config.Jar != "" {
		args = append(args, "-jar", inv.config.Jar)
	}
	for _, t := range templates {
		args = append(args, replacer.Replace(t))
	}
	return inv.config.Java, args, nil
}

// Run executes the simulator and returns its captured output.
//
// In vector_test mode a non-zero exit status is an INVOCATION error. In
// raw_table mode it is tolerated and the run is returned as-is; the table
// parser decides whether stdout is still usable.
func (inv *Invoker) Run(ctx context.Context, req Request) (*model.SimulationRun, error) {
	binary, args, err := inv.Command(req)
	if err != nil {
		return nil, model.NewInvocationError(req.Circuit, "invalid simulator request", "", err)
	}

	timeout := inv.config.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, binary, args...)
	cmd.Dir = inv.config.Dir
	cmd.Env = append(os.Environ(), inv.config.Env...)
	// Pipes are closed this long after a kill even if a grandchild holds them.
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: inv.config.MaxOutputBytes}
	stderr := &limitedWriter{w: &stderrBuf, max: inv.config.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	inv.logger.Debug("invoking simulator",
		"circuit", req.Circuit,
		"mode", req.Mode,
		"binary", binary,
		"args", args,
	)

	start := time.Now()
	runErr := cmd.Run()

	run := &model.SimulationRun{
		ExitCode:  cmd.ProcessState.ExitCode(),
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Duration:  time.Since(start),
		Truncated: stdout.truncated || stderr.truncated,
	}
	if run.Truncated {
		inv.logger.Warn("simulator output truncated",
			"circuit", req.Circuit,
			"discarded_bytes", stdout.discarded+stderr.discarded,
		)
	}

	if runErr != nil {
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			inv.logger.Warn("simulator killed (timeout)", "circuit", req.Circuit, "timeout", timeout)
			return nil, model.NewInvocationTimeout(req.Circuit, timeout, combined(run))
		case errors.Is(execCtx.Err(), context.Canceled):
			return nil, model.NewInvocationError(req.Circuit, "simulator canceled", combined(run), execCtx.Err())
		}

		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, model.NewInvocationError(req.Circuit, "failed to start simulator", "", runErr)
		}
		if req.Mode == model.ModeVectorTest {
			return nil, model.NewInvocationError(req.Circuit,
				fmt.Sprintf("simulator exited with status %d", run.ExitCode), combined(run), runErr)
		}
		inv.logger.Warn("simulator exited non-zero, keeping table output",
			"circuit", req.Circuit,
			"exit_code", run.ExitCode,
		)
	}

	inv.logger.Debug("simulator finished",
		"circuit", req.Circuit,
		"exit_code", run.ExitCode,
		"duration", run.Duration,
		"stdout_bytes", len(run.Stdout),
	)
	return run, nil
}

func combined(run *model.SimulationRun) string {
	if run.Stderr == "" {
		return run.Stdout
	}
	return "stdout:\n" + run.Stdout + "\nstderr:\n" + run.Stderr
}

// limitedWriter is an io.Writer that keeps at most max bytes and silently
// discards the rest.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // full length, or exec reports a short write
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
