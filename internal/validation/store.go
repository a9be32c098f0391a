package validation

import (
	"context"
	"sync"

	"github.com/harrison/courseval/internal/models"
)

// ResultStore is the rendezvous between the validator, which waits for a
// task's result, and the checker, which delivers it from another goroutine.
// Each task key gets at most one result per store; a store lives for a single
// validation run.
type ResultStore struct {
	mu       sync.Mutex
	enabled  bool
	results  map[string]models.CheckResult
	waiters  map[string]chan struct{}
	disabled chan struct{} // closed by Disable
	aborted  chan struct{} // closed by Abort
	abortErr error
}

// NewResultStore creates a disabled store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		results:  make(map[string]models.CheckResult),
		waiters:  make(map[string]chan struct{}),
		disabled: make(chan struct{}),
		aborted:  make(chan struct{}),
	}
}

// Enable starts collecting results. Enabling after Disable starts a fresh
// collection window; results recorded earlier are kept.
func (s *ResultStore) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	s.enabled = true
	s.disabled = make(chan struct{})
}

// Disable stops collecting results and wakes every waiter.
func (s *ResultStore) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.enabled = false
	close(s.disabled)
}

// Enabled reports whether results are being collected.
func (s *ResultStore) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Record stores the result for task and wakes its waiter.
func (s *ResultStore) Record(task *models.Task, result models.CheckResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return &InvalidStateError{Op: "record"}
	}
	key := task.Path
	if _, exists := s.results[key]; exists {
		return &DuplicateResultError{TaskPath: key}
	}
	s.results[key] = result
	close(s.waiterLocked(key))
	return nil
}

// Await blocks until a result for task is recorded and returns it. It fails
// when the store is disabled (before or while waiting), when the store was
// aborted, or when ctx is done.
func (s *ResultStore) Await(ctx context.Context, task *models.Task) (models.CheckResult, error) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return models.CheckResult{}, &InvalidStateError{Op: "await"}
	}
	if s.abortErr != nil {
		err := s.abortErr
		s.mu.Unlock()
		return models.CheckResult{}, err
	}
	key := task.Path
	if result, ok := s.results[key]; ok {
		s.mu.Unlock()
		return result, nil
	}
	ready := s.waiterLocked(key)
	disabled, aborted := s.disabled, s.aborted
	s.mu.Unlock()

	select {
	case <-ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.results[key], nil
	case <-aborted:
		return models.CheckResult{}, s.AbortErr()
	case <-disabled:
		return models.CheckResult{}, &InvalidStateError{Op: "await"}
	case <-ctx.Done():
		return models.CheckResult{}, ctx.Err()
	}
}

// Abort makes every pending and future Await fail with err. Only the first
// call has an effect.
func (s *ResultStore) Abort(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abortErr != nil || err == nil {
		return
	}
	s.abortErr = err
	close(s.aborted)
}

// AbortErr returns the error passed to Abort, if any.
func (s *ResultStore) AbortErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abortErr
}

// Len returns the number of recorded results.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// waiterLocked returns the one-shot channel for key, creating it on demand.
// The channel is closed exactly once, when the result is recorded.
func (s *ResultStore) waiterLocked(key string) chan struct{} {
	ch, ok := s.waiters[key]
	if !ok {
		ch = make(chan struct{})
		s.waiters[key] = ch
	}
	return ch
}
