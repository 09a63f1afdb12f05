package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/config"
	"github.com/roach88/vectorcheck/internal/engine"
	"github.com/roach88/vectorcheck/internal/harness"
	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/simulator"
	"github.com/roach88/vectorcheck/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	CircuitFile string        // design file; discovered in circuits_dir when empty
	Circuit     string        // run only this circuit
	Dialect     string        // overrides config dialect
	Timeout     time.Duration // overrides config simulator.timeout
	Jobs        int           // overrides config jobs
	OnError     string        // overrides config on_error

	// runner replaces the simulator process. Tests set it.
	runner engine.Runner
}

// TestReport is the JSON payload of the test command.
type TestReport struct {
	RunID       string                `json:"run_id"`
	Project     string                `json:"project"`
	CircuitFile string                `json:"circuit_file"`
	Dialect     model.Mode            `json:"dialect"`
	Circuits    []store.CircuitRecord `json:"circuits"`
	Skipped     []string              `json:"skipped,omitempty"`
	Tally       int                   `json:"tally"`
	Errors      int                   `json:"errors"`
	Passed      bool                  `json:"passed"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return newTestCommand(&TestOptions{RootOptions: rootOpts})
}

func newTestCommand(opts *TestOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Validate a project's circuits against their test vectors",
		Long: `Validate every circuit of a project against its test vector file.

The design file is taken from --circ, or is the single .circ file in the
configured circuits directory. The project is inferred from the design
file name, as in lab_1_graycode.circ.

Exit codes:
  0 - All circuits passed
  1 - Failures found, or a circuit could not be validated
  2 - Command error (bad config, no circuit file, unknown project, etc.)

Examples:
  vectorcheck test
  vectorcheck test --circ TestsRunner/lab_1_graycode.circ
  vectorcheck test --circuit g2b3 --dialect raw_table
  vectorcheck test --jobs 4 --on-error abort --format json`,
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CircuitFile, "circ", "", "design (.circ) file to test")
	cmd.Flags().StringVar(&opts.Circuit, "circuit", "", "test only this circuit")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "simulator output dialect (vector_test|raw_table)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-circuit simulator timeout")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "circuits validated in parallel")
	cmd.Flags().StringVar(&opts.OnError, "on-error", "", "circuit error policy (defer|abort|log)")

	return cmd
}

func runTest(ctx context.Context, opts *TestOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := opts.logger()

	cfg, err := loadTestConfig(opts, cmd)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "failed to load config", err)
	}

	circuitFile := opts.CircuitFile
	if circuitFile == "" {
		circuitFile, err = config.FindCircuitFile(cfg.CircuitsDir)
		if err != nil {
			return commandError(formatter, ErrCodeCircuitFile, "no circuit file", err)
		}
	}

	project, err := cfg.Projects.DetectProject(circuitFile)
	if err != nil {
		return commandError(formatter, ErrCodeProject, "unknown project", err)
	}
	circuits, err := cfg.Projects.Resolve(project, opts.Circuit)
	if err != nil {
		return commandError(formatter, ErrCodeProject, "unknown project", err)
	}

	mode, err := cfg.Mode()
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid config", err)
	}

	var out io.Writer = io.Discard
	if !formatter.JSON() {
		out = cmd.OutOrStdout()
		fmt.Fprintf(out, "Testing project: %s\n", project)
		fmt.Fprintf(out, "Testing circ file: %s\n", circuitFile)
	}

	runner := opts.runner
	if runner == nil {
		simCfg, err := cfg.SimulatorConfig()
		if err != nil {
			return commandError(formatter, ErrCodeConfig, "invalid config", err)
		}
		runner = simulator.New(simCfg, logger)
	}

	strategy, err := engine.NewStrategy(mode, logger)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid config", err)
	}
	validator := engine.NewValidator(runner, strategy, cfg.VectorDir(project), logger)

	ledger, err := store.Open()
	if err != nil {
		return commandError(formatter, ErrCodeRun, "failed to open run ledger", err)
	}
	defer ledger.Close()

	policy, err := harness.ParsePolicy(cfg.OnError)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid config", err)
	}
	h, err := harness.New(validator, harness.Options{
		Jobs:     cfg.Jobs,
		Policy:   policy,
		Out:      out,
		Recorder: ledger,
		Logger:   logger,
	})
	if err != nil {
		return commandError(formatter, ErrCodeRun, "invalid run options", err)
	}

	result, runErr := h.RunProject(ctx, circuitFile, project, circuits)
	if result == nil {
		return commandError(formatter, ErrCodeRun, "run failed", runErr)
	}

	if formatter.JSON() {
		if err := writeTestJSON(ctx, formatter, ledger, result, mode); err != nil {
			return WrapExitError(ExitCommandError, "failed to write report", err)
		}
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	case !result.Passed():
		return NewExitError(ExitFailure, failureMessage(result))
	case runErr != nil:
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}
	return nil
}

// loadTestConfig loads the config file and applies the flags given on the
// command line.
func loadTestConfig(opts *TestOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	changed := false
	if flags.Changed("dialect") {
		cfg.Dialect = opts.Dialect
		changed = true
	}
	if flags.Changed("timeout") {
		cfg.Simulator.Timeout = opts.Timeout.String()
		changed = true
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.Jobs
		changed = true
	}
	if flags.Changed("on-error") {
		cfg.OnError = opts.OnError
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func writeTestJSON(ctx context.Context, f *OutputFormatter, ledger *store.Ledger, result *harness.Result, mode model.Mode) error {
	// The ledger is read after the run; nothing writes to it any more.
	records, err := ledger.Circuits(context.WithoutCancel(ctx), result.RunID)
	if err != nil {
		return err
	}

	report := TestReport{
		RunID:       result.RunID,
		Project:     result.Project,
		CircuitFile: result.CircuitPath,
		Dialect:     mode,
		Circuits:    records,
		Tally:       result.Tally,
		Errors:      len(result.Errors()),
		Passed:      result.Passed(),
		Skipped:     result.SkippedCircuits(),
	}

	if report.Passed {
		return f.Success(report, "")
	}
	return f.Error(ErrCodeTestFailed, failureMessage(result), report)
}

func failureMessage(result *harness.Result) string {
	msg := fmt.Sprintf("found %d failures in total", result.Tally)
	if n := len(result.Errors()); n > 0 {
		msg += fmt.Sprintf("; %d circuits could not be validated", n)
	}
	if n := len(result.SkippedCircuits()); n > 0 {
		msg += fmt.Sprintf("; %d circuits were not run", n)
	}
	return msg
}

// commandError reports err in JSON mode and returns it with the command
// error exit code. Text mode leaves printing to main.
func commandError(f *OutputFormatter, code, message string, err error) error {
	exitErr := WrapExitError(ExitCommandError, message, err)
	if f.JSON() {
		_ = f.Error(code, exitErr.Error(), nil)
	}
	return exitErr
}
