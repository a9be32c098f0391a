package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for courseval
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courseval",
		Short: "Validate that every task in a course passes its check",
		Long: `courseval walks a course (sections, lessons and tasks), runs each
task's check one at a time and reports the results as TeamCity service
messages on stdout. Human-readable progress goes to stderr and to the
project's log directory.

Courses are described in a YAML descriptor or a Markdown outline.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewLintCommand())

	return cmd
}
