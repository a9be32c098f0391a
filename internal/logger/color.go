package logger

import (
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/courseval/internal/models"
)

// colorScheme defines consistent colors for console output.
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	header  *color.Color
	muted   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		header:  color.New(color.Bold),
		muted:   color.New(color.FgHiBlack),
	}
}

// status picks the color for a check status. Unknown statuses are shown as warnings.
func (s *colorScheme) status(status models.CheckStatus) *color.Color {
	switch status {
	case models.StatusSolved:
		return s.success
	case models.StatusFailed:
		return s.fail
	default:
		return s.warn
	}
}

// level colors a log level tag.
func (s *colorScheme) level(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return s.muted.Sprint(level)
	case "DEBUG":
		return s.label.Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return s.warn.Sprint(level)
	case "ERROR":
		return s.fail.Sprint(level)
	default:
		return level
	}
}
