package validation

import (
	"context"
	"fmt"

	"github.com/harrison/courseval/internal/models"
)

// Executor runs a function on the designated execution context and blocks
// until it returns. *eventloop.Loop satisfies it.
type Executor interface {
	Invoke(ctx context.Context, fn func() error) error
}

// Editor prepares a task for checking by opening its primary file.
// *workspace.Workspace satisfies it.
type Editor interface {
	OpenTask(task *models.Task) error
}

// CheckAction triggers a check of the currently open task without waiting
// for its completion. *checker.Action satisfies it.
type CheckAction interface {
	Perform(ctx context.Context) error
}

// Dispatcher submits a single task's check on the designated execution context.
type Dispatcher struct {
	executor Executor
	editor   Editor
	action   CheckAction
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(executor Executor, editor Editor, action CheckAction) *Dispatcher {
	return &Dispatcher{executor: executor, editor: editor, action: action}
}

// DispatchCheck opens the task's primary file and triggers the check action,
// both on the designated context. It returns once the check is submitted; the
// result arrives later through the checker's listeners. A task that cannot be
// opened yields a *PreparationError.
func (d *Dispatcher) DispatchCheck(ctx context.Context, task *models.Task) error {
	return d.executor.Invoke(ctx, func() error {
		if err := d.editor.OpenTask(task); err != nil {
			return &PreparationError{TaskPath: task.Path, Err: err}
		}
		if err := d.action.Perform(ctx); err != nil {
			return fmt.Errorf("run check action for task `%s`: %w", task.Path, err)
		}
		return nil
	})
}
