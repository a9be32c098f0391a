package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/harrison/courseval/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(buf *bytes.Buffer, flowID string) *Reporter {
	r := NewReporter(buf, flowID)
	r.now = func() time.Time { return time.Unix(0, 0) }
	return r
}

func kinds(t *testing.T, buf *bytes.Buffer) []Kind {
	t.Helper()
	messages, err := ReadMessages(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NoError(t, CheckNesting(messages))

	var out []Kind
	for _, m := range messages {
		out = append(out, m.Kind)
	}
	return out
}

func TestReporterTestStatuses(t *testing.T) {
	tests := []struct {
		name   string
		result models.CheckResult
		want   []Kind
	}{
		{
			name:   "solved emits no status record",
			result: models.CheckResult{Status: models.StatusSolved},
			want:   []Kind{KindTestStarted, KindTestFinished},
		},
		{
			name:   "failed emits testFailed",
			result: models.CheckResult{Status: models.StatusFailed, Message: "3 tests failed", Details: "diff"},
			want:   []Kind{KindTestStarted, KindTestFailed, KindTestFinished},
		},
		{
			name:   "unchecked emits testIgnored",
			result: models.CheckResult{Status: models.StatusUnchecked, Message: "not checked"},
			want:   []Kind{KindTestStarted, KindTestIgnored, KindTestFinished},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := newTestReporter(&buf, "")

			got, err := r.Test("Task", func() (models.CheckResult, error) {
				return tt.result, nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.result, got)
			assert.Equal(t, tt.want, kinds(t, &buf))
			assert.Equal(t, 0, r.Depth())
		})
	}
}

func TestReporterFailedCarriesMessageAndDetails(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, "")

	_, err := r.Test("Task", func() (models.CheckResult, error) {
		return models.CheckResult{Status: models.StatusFailed, Message: "3 tests failed", Details: "expected 1"}, nil
	})
	require.NoError(t, err)

	messages, err := ReadMessages(&buf)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	failed := messages[1]
	msg, _ := failed.Attr("message")
	details, _ := failed.Attr("details")
	assert.Equal(t, "3 tests failed", msg)
	assert.Equal(t, "expected 1", details)

	duration, ok := messages[2].Attr("duration")
	assert.True(t, ok)
	assert.Equal(t, "0", duration)
}

func TestReporterBodyErrorStillFinishes(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, "")
	boom := errors.New("boom")

	err := r.Suite("Lesson", func() error {
		_, err := r.Test("Task", func() (models.CheckResult, error) {
			return models.CheckResult{}, boom
		})
		return err
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Kind{KindSuiteStarted, KindTestStarted, KindTestFailed, KindTestFinished, KindSuiteFinished}, kinds(t, &buf))
}

func TestReporterSuiteFinishesOnPanic(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, "")

	assert.Panics(t, func() {
		_ = r.Suite("Section", func() error {
			panic("unexpected")
		})
	})
	assert.Equal(t, []Kind{KindSuiteStarted, KindSuiteFinished}, kinds(t, &buf))
}

func TestReporterNestedSuites(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, "flow-1")

	err := r.Suite("Section", func() error {
		return r.Suite("Lesson", func() error {
			_, err := r.Test("Task", func() (models.CheckResult, error) {
				return models.CheckResult{Status: models.StatusSolved}, nil
			})
			return err
		})
	})
	require.NoError(t, err)

	messages, err := ReadMessages(&buf)
	require.NoError(t, err)
	require.NoError(t, CheckNesting(messages))
	require.Len(t, messages, 6)
	for _, m := range messages {
		flow, ok := m.Attr("flowId")
		assert.True(t, ok)
		assert.Equal(t, "flow-1", flow)
	}
	assert.Equal(t, "Section", messages[0].Name())
	assert.Equal(t, "Lesson", messages[1].Name())
}

func TestReporterRejectsMismatchedClose(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, "")

	r.open(KindSuiteStarted, "A")
	err := r.close(KindSuiteFinished, "B", nil)
	assert.ErrorIs(t, err, ErrUnbalanced)
	assert.Equal(t, 1, r.Depth())
}

func TestCheckNesting(t *testing.T) {
	msg := func(kind Kind, name string) *Message { return NewMessage(kind, name) }

	tests := []struct {
		name     string
		messages []*Message
		wantErr  bool
	}{
		{
			name: "balanced",
			messages: []*Message{
				msg(KindSuiteStarted, "s"), msg(KindTestStarted, "t"), msg(KindTestFailed, "t"),
				msg(KindTestFinished, "t"), msg(KindSuiteFinished, "s"),
			},
		},
		{
			name:     "underflow",
			messages: []*Message{msg(KindTestFinished, "t")},
			wantErr:  true,
		},
		{
			name:     "left open",
			messages: []*Message{msg(KindSuiteStarted, "s")},
			wantErr:  true,
		},
		{
			name: "interleaved",
			messages: []*Message{
				msg(KindSuiteStarted, "a"), msg(KindSuiteStarted, "b"),
				msg(KindSuiteFinished, "a"), msg(KindSuiteFinished, "b"),
			},
			wantErr: true,
		},
		{
			name:     "status outside test",
			messages: []*Message{msg(KindSuiteStarted, "s"), msg(KindTestIgnored, "t"), msg(KindSuiteFinished, "s")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNesting(tt.messages)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnbalanced)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
