// Package logger provides logging implementations for courseval runs.
//
// Loggers report run progress at the task and summary levels. They never
// write to the protocol stream: the console logger is pointed at stderr and
// the file logger writes under the project's log directory. Implementations
// are thread-safe.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/courseval/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs validation progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled when the writer is a terminal and NO_COLOR is unset.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	scheme      *colorScheme
	progress    *ProgressBar
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		scheme:      newColorScheme(),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		level = cl.scheme.level(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

// LogRunStart logs the course being validated at INFO level.
// Format: "[HH:MM:SS] Validating <title>: <n> tasks"
func (cl *ConsoleLogger) LogRunStart(course *models.Course) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	total := len(course.Tasks())
	cl.progress = NewProgressBar(total, 10, cl.colorOutput)

	title := course.Title
	if title == "" {
		title = "course"
	}
	if cl.colorOutput {
		title = color.New(color.Bold).Sprint(title)
	}
	fmt.Fprintf(cl.writer, "[%s] Validating %s: %d tasks\n", timestamp(), title, total)
}

// LogTaskStart logs a task dispatch at DEBUG level.
func (cl *ConsoleLogger) LogTaskStart(task *models.Task) {
	cl.logWithLevel("DEBUG", fmt.Sprintf("Checking %s", task.Path))
}

// LogTaskResult logs a recorded task result at INFO level together with run progress.
// Format: "[HH:MM:SS] <path>: <status> (<duration>) [===   ] 3/8 (37%)"
func (cl *ConsoleLogger) LogTaskResult(outcome models.TaskOutcome) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	status := string(outcome.Result.Status)
	if cl.colorOutput {
		status = cl.scheme.status(outcome.Result.Status).Sprint(status)
	}

	line := fmt.Sprintf("[%s] %s: %s (%s)", timestamp(), outcome.Task.Path, status, formatDuration(outcome.Duration))
	if cl.progress != nil {
		cl.progress.Increment()
		line += " " + cl.progress.Render()
	}
	if !outcome.Result.IsSolved() && outcome.Result.Message != "" {
		line += fmt.Sprintf("\n[%s]   %s", timestamp(), outcome.Result.Message)
	}
	fmt.Fprintln(cl.writer, line)
}

// LogSummary logs the validation summary at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.ValidationResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	s := cl.scheme
	paint := func(c *color.Color, format string, args ...interface{}) string {
		if cl.colorOutput {
			return c.Sprintf(format, args...)
		}
		return fmt.Sprintf(format, args...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", ts, paint(s.header, "=== Validation Summary ==="))
	fmt.Fprintf(&b, "[%s] Total tasks: %d\n", ts, result.Total)
	fmt.Fprintf(&b, "[%s] %s\n", ts, paint(s.success, "Solved: %d", result.Solved))
	if result.Failed > 0 {
		fmt.Fprintf(&b, "[%s] %s\n", ts, paint(s.fail, "Failed: %d", result.Failed))
	} else {
		fmt.Fprintf(&b, "[%s] Failed: %d\n", ts, result.Failed)
	}
	if result.Unchecked > 0 {
		fmt.Fprintf(&b, "[%s] %s\n", ts, paint(s.warn, "Unchecked: %d", result.Unchecked))
	}
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(result.Duration))

	if notSolved := result.NotSolved(); len(notSolved) > 0 {
		fmt.Fprintf(&b, "[%s] %s\n", ts, paint(s.fail, "Tasks not solved:"))
		for _, o := range notSolved {
			fmt.Fprintf(&b, "[%s]   - %s: %s\n", ts, o.Task.Path, o.Result.Status)
		}
	}

	verdict := paint(s.success, "PASSED")
	if !result.Verdict {
		verdict = paint(s.fail, "FAILED")
	}
	fmt.Fprintf(&b, "[%s] Verdict: %s\n", ts, verdict)

	io.WriteString(cl.writer, b.String())
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogRunStart(course *models.Course) {}
func (n *NoOpLogger) LogTaskStart(task *models.Task) {}
func (n *NoOpLogger) LogTaskResult(outcome models.TaskOutcome) {}
func (n *NoOpLogger) LogSummary(result models.ValidationResult) {}
func (n *NoOpLogger) LogWarn(message string) {}
