package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/vector"
)

// VectorSummary describes a loaded vector file.
type VectorSummary struct {
	Path    string   `json:"path"`
	Labels  []string `json:"labels"`
	Signals []string `json:"signals"`
	Rows    int      `json:"rows"`
}

// NewVectorCommand creates the vector command.
func NewVectorCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vector <file>",
		Short: "Check a test vector file without running the simulator",
		Long: `Load a test vector file the way the test command does and summarize it.

Comment lines (#) and blank lines are skipped. Every data row must have
one value per header signal.

Exit codes:
  0 - The file is well formed
  1 - The file is malformed or unreadable
  2 - Command error`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVector(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runVector(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	tv, err := vector.Load(path)
	if err != nil {
		code := string(model.CodeOf(err))
		if code == "" {
			code = string(model.ErrCodeVectorFormat)
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid vector file", err)
	}

	opts.logger().Debug("vector loaded", "path", path, "signals", tv.Width(), "rows", tv.Len())

	summary := VectorSummary{
		Path:    path,
		Labels:  tv.Labels,
		Signals: tv.Header,
		Rows:    tv.Len(),
	}
	text := fmt.Sprintf("%s: %d signals, %d rows\nSignals: %s\n",
		path, tv.Width(), tv.Len(), strings.Join(tv.Labels, " "))
	return formatter.Success(summary, text)
}
