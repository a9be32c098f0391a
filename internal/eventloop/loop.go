// Package eventloop provides a designated execution context: a single
// goroutine that runs submitted functions one at a time, in submission order.
//
// Code that must only touch workspace state from one goroutine (opening the
// active file, triggering a check) runs through Loop.Invoke.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned by Invoke once the loop has been stopped.
var ErrStopped = errors.New("event loop stopped")

type job struct {
	ctx  context.Context
	fn   func() error
	done chan error
}

// Loop is a single-consumer job queue bound to one goroutine.
type Loop struct {
	jobs    chan job
	quit    chan struct{}
	exited  chan struct{}
	running atomic.Bool
	onLoop  atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a loop. Call Start before the first Invoke.
func New() *Loop {
	return &Loop{
		jobs:   make(chan job),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling Start more than once is a no-op.
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		l.running.Store(true)
		go l.run()
	})
}

// Stop terminates the loop after the job in progress (if any) returns and
// waits for the goroutine to exit. Pending Invoke calls fail with ErrStopped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
		if l.running.Load() {
			<-l.exited
		}
	})
}

// OnLoop reports whether the caller is running inside a job on the loop.
// Only one job runs at a time, so this is true exactly while a job executes.
func (l *Loop) OnLoop() bool {
	return l.onLoop.Load()
}

// Invoke runs fn on the loop goroutine and blocks until fn returns. It does not
// wait for any asynchronous work fn starts. If ctx is done before fn was picked
// up, fn is not run and ctx.Err() is returned. A panic in fn is recovered and
// returned as an error.
func (l *Loop) Invoke(ctx context.Context, fn func() error) error {
	if !l.running.Load() {
		return fmt.Errorf("invoke: %w", ErrStopped)
	}

	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case l.jobs <- j:
	case <-l.quit:
		return fmt.Errorf("invoke: %w", ErrStopped)
	case <-ctx.Done():
		return ctx.Err()
	}

	// once accepted, the job always completes
	return <-j.done
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		select {
		case <-l.quit:
			l.running.Store(false)
			return
		case j := <-l.jobs:
			j.done <- l.execute(j)
		}
	}
}

func (l *Loop) execute(j job) (err error) {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	l.onLoop.Store(true)
	defer func() {
		l.onLoop.Store(false)
		if r := recover(); r != nil {
			err = fmt.Errorf("panic on event loop: %v", r)
		}
	}()
	return j.fn()
}
