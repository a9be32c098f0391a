package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/harrison/courseval/internal/models"
)

// ErrUnbalanced is returned when a finished record would not match the most
// recently started suite or test.
var ErrUnbalanced = errors.New("unbalanced protocol records")

// Reporter writes nested suite/test records. It is safe for concurrent use,
// though a validation run reports from a single goroutine.
type Reporter struct {
	writer io.Writer
	flowID string
	now    func() time.Time

	mu    sync.Mutex
	stack []string
	err   error
}

// NewReporter creates a Reporter writing to w. When flowID is non-empty every
// record carries a flowId attribute.
func NewReporter(w io.Writer, flowID string) *Reporter {
	return &Reporter{
		writer: w,
		flowID: flowID,
		now:    time.Now,
	}
}

// Suite emits testSuiteStarted, runs body and emits testSuiteFinished, even if
// body returns an error or panics.
func (r *Reporter) Suite(name string, body func() error) (err error) {
	r.open(KindSuiteStarted, name)
	defer func() {
		if closeErr := r.close(KindSuiteFinished, name, nil); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return body()
}

// Test emits testStarted, runs body, emits the status record for its result and
// finally testFinished. Solved results get no status record, Unchecked ones
// are reported as ignored and Failed ones as failed. An error from body is
// reported as a failure and returned.
func (r *Reporter) Test(name string, body func() (models.CheckResult, error)) (result models.CheckResult, err error) {
	r.open(KindTestStarted, name)
	start := r.now()
	defer func() {
		duration := strconv.FormatInt(r.now().Sub(start).Milliseconds(), 10)
		if closeErr := r.close(KindTestFinished, name, []Attribute{{Name: "duration", Value: duration}}); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	result, err = body()
	if err != nil {
		r.emit(NewMessage(KindTestFailed, name).
			AddAttribute("message", err.Error()).
			AddAttribute("details", fmt.Sprintf("%+v", err)))
		return result, err
	}

	switch result.Status {
	case models.StatusSolved:
	case models.StatusFailed:
		r.emit(NewMessage(KindTestFailed, name).
			AddAttribute("message", result.Message).
			AddAttribute("details", result.Details))
	default:
		r.emit(NewMessage(KindTestIgnored, name).
			AddAttribute("message", result.Message))
	}
	return result, nil
}

// Depth returns the number of currently open suites and tests.
func (r *Reporter) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// Err returns the first write error, if any.
func (r *Reporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Reporter) open(kind Kind, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = append(r.stack, name)
	r.writeLocked(NewMessage(kind, name))
}

func (r *Reporter) close(kind Kind, name string, attrs []Attribute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) == 0 || r.stack[len(r.stack)-1] != name {
		return fmt.Errorf("%w: %s %q does not match open record", ErrUnbalanced, kind, name)
	}
	r.stack = r.stack[:len(r.stack)-1]
	msg := NewMessage(kind, name)
	msg.Attributes = append(msg.Attributes, attrs...)
	r.writeLocked(msg)
	return nil
}

func (r *Reporter) emit(msg *Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLocked(msg)
}

func (r *Reporter) writeLocked(msg *Message) {
	if r.writer == nil {
		return
	}
	if r.flowID != "" {
		msg.AddAttribute("flowId", r.flowID)
	}
	if _, err := fmt.Fprintln(r.writer, msg.String()); err != nil && r.err == nil {
		r.err = err
	}
}
