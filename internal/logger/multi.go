package logger

import "github.com/harrison/courseval/internal/models"

// RunLogger is the set of events a validation run reports.
type RunLogger interface {
	LogRunStart(course *models.Course)
	LogTaskStart(task *models.Task)
	LogTaskResult(outcome models.TaskOutcome)
	LogSummary(result models.ValidationResult)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogDebug(message string)
}

// MultiLogger forwards every event to each of its loggers in order.
type MultiLogger struct {
	loggers []RunLogger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...RunLogger) *MultiLogger {
	ml := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			ml.loggers = append(ml.loggers, l)
		}
	}
	return ml
}

func (ml *MultiLogger) LogRunStart(course *models.Course) {
	for _, l := range ml.loggers {
		l.LogRunStart(course)
	}
}

func (ml *MultiLogger) LogTaskStart(task *models.Task) {
	for _, l := range ml.loggers {
		l.LogTaskStart(task)
	}
}

func (ml *MultiLogger) LogTaskResult(outcome models.TaskOutcome) {
	for _, l := range ml.loggers {
		l.LogTaskResult(outcome)
	}
}

func (ml *MultiLogger) LogSummary(result models.ValidationResult) {
	for _, l := range ml.loggers {
		l.LogSummary(result)
	}
}

func (ml *MultiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

func (ml *MultiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

func (ml *MultiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

func (ml *MultiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}
