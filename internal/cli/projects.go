package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vectorcheck/internal/config"
)

// ProjectEntry is one project of the configured table.
type ProjectEntry struct {
	Name      string   `json:"name"`
	Circuits  []string `json:"circuits"`
	VectorDir string   `json:"vector_dir"`
}

// NewProjectsCommand creates the projects command.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "projects",
		Short:         "List the configured projects and their circuits",
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(rootOpts, cmd)
		},
	}

	return cmd
}

func runProjects(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "failed to load config", err)
	}

	entries := make([]ProjectEntry, 0, len(cfg.Projects))
	var text strings.Builder
	for _, p := range cfg.Projects {
		entries = append(entries, ProjectEntry{
			Name:      p.Name,
			Circuits:  p.Circuits,
			VectorDir: cfg.VectorDir(p.Name),
		})
		fmt.Fprintf(&text, "%s: %s\n", p.Name, strings.Join(p.Circuits, ", "))
	}

	return formatter.Success(entries, text.String())
}
