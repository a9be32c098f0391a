// Package display renders user-facing notices for the CLI.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Related tasks or files (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning in yellow. fatih/color drops the color codes
// when stdout is not a terminal or NO_COLOR is set.
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	fmt.Fprintf(&b, "Warning: %s\n", w.Title)
	if w.Message != "" {
		fmt.Fprintf(&b, "    %s\n", w.Message)
	}
	for i, item := range w.Items {
		fmt.Fprintf(&b, "      %d. %s\n", i+1, item)
	}
	if w.Suggestion != "" {
		fmt.Fprintf(&b, "    Suggestion: %s\n", w.Suggestion)
	}

	color.New(color.FgYellow).Fprint(out, b.String())
}
