package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/courseval/internal/display"
	"github.com/harrison/courseval/internal/models"
	"github.com/harrison/courseval/internal/parser"
)

// NewLintCommand creates the lint command
func NewLintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <course-file>",
		Short: "Parse a course file and print its structure",
		Long: `Parse a course file and check its structure without running any checks:
  - every item has a name
  - every task lists at least one file
  - task paths are unique

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, _ := cmd.Flags().GetString("project")
			return lintCourse(args[0], projectDir, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("project", "", "Project directory task paths resolve against (default: the course file's directory)")

	return cmd
}

func lintCourse(coursePath, projectDir string, output io.Writer) error {
	if projectDir == "" {
		projectDir = filepath.Dir(coursePath)
	}

	course, err := parser.ParseFile(coursePath, projectDir)
	if err != nil {
		fmt.Fprintf(output, "Validation failed: %v\n", err)
		return err
	}

	fmt.Fprintf(output, "%s\n", courseLabel(course))
	printItems(output, course.Items, 1)
	fmt.Fprintf(output, "\nCourse is valid: %d tasks, depth %d\n", len(course.Tasks()), course.Depth())

	for _, w := range lintWarnings(course) {
		w.Display(output)
	}
	return nil
}

// lintWarnings flags tasks that parse fine but will not check cleanly.
func lintWarnings(course *models.Course) []display.Warning {
	var missing, unchecked []string
	for _, task := range course.Tasks() {
		if _, err := os.Stat(task.PrimaryFile()); err != nil {
			missing = append(missing, fmt.Sprintf("%s: %s", task.Path, task.PrimaryFile()))
		}
		if strings.TrimSpace(task.CheckCommand) == "" {
			unchecked = append(unchecked, task.Path)
		}
	}

	var warnings []display.Warning
	if len(missing) > 0 {
		warnings = append(warnings, display.Warning{
			Title:      fmt.Sprintf("%d task file(s) not found", len(missing)),
			Message:    "validate stops at the first task whose file cannot be opened",
			Items:      missing,
			Suggestion: "create the files, fix the task dir, or run validate with --continue-on-preparation-error",
		})
	}
	if len(unchecked) > 0 {
		warnings = append(warnings, display.Warning{
			Title:   fmt.Sprintf("%d task(s) have no check command", len(unchecked)),
			Message: "these tasks are reported as ignored and fail the verdict",
			Items:   unchecked,
		})
	}
	return warnings
}

func printItems(w io.Writer, items []models.Item, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range items {
		switch it := item.(type) {
		case *models.Container:
			fmt.Fprintf(w, "%s%s: %s\n", indent, it.Kind, it.Name)
			printItems(w, it.Items, depth+1)
		case *models.Task:
			check := it.CheckCommand
			if check == "" {
				check = "no check"
			}
			fmt.Fprintf(w, "%stask: %s [%s] (%s)\n", indent, it.Name, strings.Join(it.Files, ", "), check)
		}
	}
}
