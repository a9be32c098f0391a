package checker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harrison/courseval/internal/models"
)

// ErrNoActiveTask is returned by Perform when no task file is open.
var ErrNoActiveTask = errors.New("no active task to check")

// ActiveTaskSource resolves the task whose file is currently open.
// *workspace.Workspace satisfies it.
type ActiveTaskSource interface {
	ActiveTask() (*models.Task, error)
}

// Action is the "check task" action: it checks whatever task is active in the
// workspace and publishes the result on the bus when the check completes.
type Action struct {
	source  ActiveTaskSource
	checker Checker
	bus     *Bus

	wg sync.WaitGroup
}

// NewAction creates a check action.
func NewAction(source ActiveTaskSource, checker Checker, bus *Bus) *Action {
	return &Action{source: source, checker: checker, bus: bus}
}

// Perform submits a check of the active task and returns without waiting for
// it. The check runs on its own goroutine under ctx; its result is delivered
// through the bus.
func (a *Action) Perform(ctx context.Context) error {
	task, err := a.source.ActiveTask()
	if err != nil {
		return err
	}
	if task == nil {
		return ErrNoActiveTask
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		result := a.checker.Check(ctx, task)
		a.bus.Publish(task, result)
	}()
	return nil
}

// Wait blocks until every submitted check has published its result.
func (a *Action) Wait() {
	a.wg.Wait()
}

// WaitTimeout is Wait bounded by d. It reports whether every check finished.
func (a *Action) WaitTimeout(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
