// Package validation drives the check of every task in a course and reports
// the outcome as nested suite/test protocol records.
//
// A run walks the course tree in stored order. For each task it dispatches the
// check on the designated execution context, then waits in a ResultStore until
// the checker's completion event, delivered through a ListenerBridge, records
// the result. Tasks are checked strictly one at a time.
package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harrison/courseval/internal/checker"
	"github.com/harrison/courseval/internal/models"
	"github.com/harrison/courseval/internal/protocol"
)

// Logger defines the interface for logging validation progress and results.
type Logger interface {
	LogRunStart(course *models.Course)
	LogTaskStart(task *models.Task)
	LogTaskResult(outcome models.TaskOutcome)
	LogSummary(result models.ValidationResult)
	LogWarn(message string)
}

// TaskDispatcher submits a task's check. *Dispatcher satisfies it.
type TaskDispatcher interface {
	DispatchCheck(ctx context.Context, task *models.Task) error
}

// Subscriber registers check-completed listeners. *checker.Bus satisfies it.
type Subscriber interface {
	Subscribe(l checker.Listener) (unsubscribe func())
}

// Options tunes a validation run.
type Options struct {
	// CheckTimeout bounds the wait for each task's result (0 = wait forever).
	CheckTimeout time.Duration

	// ContinueOnPreparationError reports a task that cannot be prepared as a
	// failed test instead of aborting the run.
	ContinueOnPreparationError bool

	// CourseSuite wraps the whole run in a suite named after the course.
	CourseSuite bool
}

// Validator walks a course and checks every task.
type Validator struct {
	dispatcher TaskDispatcher
	subscriber Subscriber
	reporter   *protocol.Reporter
	logger     Logger
	opts       Options
}

// NewValidator creates a Validator. The logger parameter is optional and can be nil.
func NewValidator(dispatcher TaskDispatcher, subscriber Subscriber, reporter *protocol.Reporter, logger Logger, opts Options) *Validator {
	if dispatcher == nil {
		panic("dispatcher cannot be nil")
	}
	if subscriber == nil {
		panic("subscriber cannot be nil")
	}
	if reporter == nil {
		panic("reporter cannot be nil")
	}

	return &Validator{
		dispatcher: dispatcher,
		subscriber: subscriber,
		reporter:   reporter,
		logger:     logger,
		opts:       opts,
	}
}

// Run validates course. The returned result's Verdict is true iff every task
// was solved. A non-nil error means the run was aborted; the partial result
// is still returned. Result collection is switched off before Run returns,
// whatever the outcome.
func (v *Validator) Run(ctx context.Context, course *models.Course) (*models.ValidationResult, error) {
	if course == nil {
		return nil, fmt.Errorf("course cannot be nil")
	}

	// Set up context with cancellation for signal handling
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			if v.logger != nil {
				v.logger.LogWarn("Received interrupt signal, stopping validation...")
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	store := NewResultStore()
	store.Enable()
	defer store.Disable()

	unsubscribe := v.subscriber.Subscribe(NewListenerBridge(store))
	defer unsubscribe()

	r := &run{
		validator: v,
		store:     store,
		result:    &models.ValidationResult{},
	}

	if v.logger != nil {
		v.logger.LogRunStart(course)
	}
	startTime := time.Now()

	var verdict bool
	var err error
	if v.opts.CourseSuite {
		err = v.reporter.Suite(course.Title, func() error {
			var visitErr error
			verdict, visitErr = r.visitItems(ctx, course.Items)
			return visitErr
		})
	} else {
		verdict, err = r.visitItems(ctx, course.Items)
	}

	// A duplicate completion may land after the last Await returned.
	unsubscribe()
	store.Disable()
	if err == nil {
		err = store.AbortErr()
	}

	r.result.Duration = time.Since(startTime)
	r.result.Verdict = verdict && err == nil

	if v.logger != nil {
		v.logger.LogSummary(*r.result)
	}

	return r.result, err
}

// run holds the state of a single Validator.Run invocation.
type run struct {
	validator *Validator
	store     *ResultStore
	result    *models.ValidationResult
}

// visitItems visits items in order and returns true if all of them passed.
// Every item is visited even after a failure; an error stops the walk.
func (r *run) visitItems(ctx context.Context, items []models.Item) (bool, error) {
	passed := true
	for _, item := range items {
		itemPassed, err := r.visit(ctx, item)
		if err != nil {
			return false, err
		}
		passed = passed && itemPassed
	}
	return passed, nil
}

func (r *run) visit(ctx context.Context, item models.Item) (bool, error) {
	switch it := item.(type) {
	case *models.Container:
		if it != nil {
			return r.visitContainer(ctx, it)
		}
	case *models.Task:
		if it != nil {
			return r.visitTask(ctx, it)
		}
	}
	return false, &UnknownItemError{Item: item}
}

func (r *run) visitContainer(ctx context.Context, container *models.Container) (bool, error) {
	passed := true
	err := r.validator.reporter.Suite(container.Name, func() error {
		var err error
		passed, err = r.visitItems(ctx, container.Items)
		return err
	})
	return passed, err
}

func (r *run) visitTask(ctx context.Context, task *models.Task) (bool, error) {
	v := r.validator
	if v.logger != nil {
		v.logger.LogTaskStart(task)
	}

	startTime := time.Now()
	result, err := v.reporter.Test(task.PresentableName(), func() (models.CheckResult, error) {
		return r.check(ctx, task)
	})
	if err != nil {
		return false, err
	}

	outcome := models.TaskOutcome{
		Task:     task,
		Result:   result,
		Duration: time.Since(startTime),
	}
	r.result.Add(outcome)
	if v.logger != nil {
		v.logger.LogTaskResult(outcome)
	}
	return result.IsSolved(), nil
}

// check dispatches the task's check and waits for its result.
func (r *run) check(ctx context.Context, task *models.Task) (models.CheckResult, error) {
	v := r.validator
	if err := v.dispatcher.DispatchCheck(ctx, task); err != nil {
		if !IsFatal(err, v.opts.ContinueOnPreparationError) {
			return models.CheckResult{Status: models.StatusFailed, Message: err.Error()}, nil
		}
		return models.CheckResult{}, err
	}

	awaitCtx := ctx
	if v.opts.CheckTimeout > 0 {
		var cancel context.CancelFunc
		awaitCtx, cancel = context.WithTimeout(ctx, v.opts.CheckTimeout)
		defer cancel()
	}

	result, err := r.store.Await(awaitCtx, task)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return models.CheckResult{}, &CheckTimeoutError{TaskPath: task.Path, Timeout: v.opts.CheckTimeout}
		}
		return models.CheckResult{}, err
	}
	return result, nil
}
