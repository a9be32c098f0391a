package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/courseval/internal/models"
)

// DuplicateResultError reports a second check result for a task within one run.
type DuplicateResultError struct {
	TaskPath string
}

func (e *DuplicateResultError) Error() string {
	return fmt.Sprintf("task `%s` is already checked", e.TaskPath)
}

// InvalidStateError reports a store operation while validation is not enabled.
type InvalidStateError struct {
	Op string // "await" or "record"
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: validation is not enabled, check results are not collected", e.Op)
}

// PreparationError reports a task that cannot be prepared for checking,
// usually because its primary file cannot be located.
type PreparationError struct {
	TaskPath string
	Err      error
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("prepare task `%s` for checking: %v", e.TaskPath, e.Err)
}

func (e *PreparationError) Unwrap() error {
	return e.Err
}

// UnknownItemError reports a course tree node that is neither a container nor a task.
type UnknownItemError struct {
	Item models.Item
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown course item %T", e.Item)
}

// CheckTimeoutError reports a check whose result did not arrive in time.
type CheckTimeoutError struct {
	TaskPath string
	Timeout  time.Duration
}

func (e *CheckTimeoutError) Error() string {
	return fmt.Sprintf("task `%s`: no check result after %v", e.TaskPath, e.Timeout)
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *CheckTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsPreparationError checks if the error is or wraps a PreparationError.
func IsPreparationError(err error) bool {
	var pe *PreparationError
	return errors.As(err, &pe)
}

// IsFatal reports whether err aborts a validation run. Every non-nil error
// does, except a PreparationError when preparation failures are downgraded.
func IsFatal(err error, continueOnPreparation bool) bool {
	if err == nil {
		return false
	}
	if continueOnPreparation && IsPreparationError(err) {
		return false
	}
	return true
}
