package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/harrison/courseval/internal/models"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileLogger logs validation runs to files in the project's log directory.
// It creates timestamped per-run log files, per-task detail logs,
// and maintains a latest.log symlink pointing to the most recent run.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	tasksDir string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir at level "info".
func NewFileLogger(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(logDir, "info")
}

// NewFileLoggerWithLevel creates the log directory and its tasks/ subdirectory,
// opens run-YYYYMMDD-HHMMSS.log and points latest.log at it.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	tasksDir := filepath.Join(logDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		tasksDir: tasksDir,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== courseval Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }
func (fl *FileLogger) LogInfo(message string)  { fl.logWithLevel("INFO", message) }
func (fl *FileLogger) LogWarn(message string)  { fl.logWithLevel("WARN", message) }
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogRunStart records the course source and task count.
func (fl *FileLogger) LogRunStart(course *models.Course) {
	if !fl.shouldLog("info") {
		return
	}
	ts := timestamp()
	fl.writeRunLog(fmt.Sprintf("[%s] Course: %s\n[%s] Source: %s\n[%s] Project: %s\n[%s] Tasks: %d\n\n",
		ts, course.Title, ts, course.SourceFile, ts, course.ProjectDir, ts, len(course.Tasks())))
}

// LogTaskStart records a task dispatch at DEBUG level.
func (fl *FileLogger) LogTaskStart(task *models.Task) {
	fl.logWithLevel("DEBUG", fmt.Sprintf("Checking %s (file %s)", task.Path, task.PrimaryFile()))
}

// LogTaskResult writes one line to the run log and the full result to
// tasks/<task-path>.log.
func (fl *FileLogger) LogTaskResult(outcome models.TaskOutcome) {
	if fl.shouldLog("info") {
		fl.writeRunLog(fmt.Sprintf("[%s] %s: %s (%.1fs)\n", timestamp(), outcome.Task.Path, outcome.Result.Status, outcome.Duration.Seconds()))
	}

	if err := fl.writeTaskLog(outcome); err != nil {
		fl.logWithLevel("ERROR", err.Error())
	}
}

func (fl *FileLogger) writeTaskLog(outcome models.TaskOutcome) error {
	name := unsafeFileChars.ReplaceAllString(outcome.Task.Path, "_")
	taskLogPath := filepath.Join(fl.tasksDir, name+".log")

	var b strings.Builder
	fmt.Fprintf(&b, "=== Task %s ===\n", outcome.Task.Path)
	fmt.Fprintf(&b, "Status: %s\n", outcome.Result.Status)
	fmt.Fprintf(&b, "Duration: %.1fs\n", outcome.Duration.Seconds())
	fmt.Fprintf(&b, "Dir: %s\n", outcome.Task.Dir)
	if outcome.Task.CheckCommand != "" {
		fmt.Fprintf(&b, "Check: %s\n", outcome.Task.CheckCommand)
	}
	b.WriteString("\n")
	if outcome.Result.Message != "" {
		fmt.Fprintf(&b, "Message:\n%s\n\n", outcome.Result.Message)
	}
	if outcome.Result.Details != "" {
		fmt.Fprintf(&b, "Details:\n%s\n\n", outcome.Result.Details)
	}
	fmt.Fprintf(&b, "Completed at: %s\n", time.Now().Format(time.RFC3339))

	if err := os.WriteFile(taskLogPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write task log: %w", err)
	}
	return nil
}

// LogSummary writes the run totals and verdict.
func (fl *FileLogger) LogSummary(result models.ValidationResult) {
	if !fl.shouldLog("info") {
		return
	}

	status := "PASSED"
	if !result.Verdict {
		status = "FAILED"
	}

	ts := timestamp()
	fl.writeRunLog(fmt.Sprintf(
		"\n[%s] === VALIDATION SUMMARY ===\n"+
			"[%s] Total tasks:  %d\n"+
			"[%s] Solved:       %d\n"+
			"[%s] Failed:       %d\n"+
			"[%s] Unchecked:    %d\n"+
			"[%s] Total time:   %.1fs\n"+
			"[%s] Verdict:      %s (%d/%d tasks solved)\n"+
			"[%s] Completed at: %s\n",
		ts, ts, result.Total, ts, result.Solved, ts, result.Failed, ts, result.Unchecked,
		ts, result.Duration.Seconds(), ts, status, result.Solved, result.Total,
		ts, time.Now().Format(time.RFC3339),
	))
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
