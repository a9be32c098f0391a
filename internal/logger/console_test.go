package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/courseval/internal/models"
)

func sampleCourse() *models.Course {
	return &models.Course{
		Title: "Go Basics",
		Items: []models.Item{
			&models.Container{Kind: models.KindLesson, Name: "Hello", Items: []models.Item{
				&models.Task{Name: "Print", Path: "Hello/Print", Files: []string{"main.go"}},
				&models.Task{Name: "Loop", Path: "Hello/Loop", Files: []string{"loop.go"}},
			}},
		},
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"  WARN ", "warn"},
		{"Trace", "trace"},
		{"", "info"},
		{"verbose", "info"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeLogLevel(tt.in), "input %q", tt.in)
	}
}

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "warn")

	cl.LogDebug("hidden debug")
	cl.LogInfo("hidden info")
	cl.LogWarn("shown warn")
	cl.LogError("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown warn")
	assert.Contains(t, out, "[ERROR] shown error")
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	cl := NewConsoleLogger(nil, "trace")
	assert.NotPanics(t, func() {
		cl.LogInfo("nothing")
		cl.LogRunStart(sampleCourse())
		cl.LogSummary(models.ValidationResult{})
	})
}

func TestConsoleLoggerNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")
	assert.False(t, cl.colorOutput)

	cl.LogWarn("plain")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestConsoleLoggerRunProgress(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")
	course := sampleCourse()
	tasks := course.Tasks()

	cl.LogRunStart(course)
	cl.LogTaskStart(tasks[0])
	cl.LogTaskResult(models.TaskOutcome{
		Task:     tasks[0],
		Result:   models.CheckResult{Status: models.StatusSolved, Message: "Congratulations!"},
		Duration: 1500 * time.Millisecond,
	})
	cl.LogTaskResult(models.TaskOutcome{
		Task:     tasks[1],
		Result:   models.CheckResult{Status: models.StatusFailed, Message: "expected 3, got 4"},
		Duration: 200 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Validating Go Basics: 2 tasks")
	assert.NotContains(t, out, "Checking", "task start is debug level")
	assert.Contains(t, out, "Hello/Print: Solved (1s) [=====     ] 1/2 (50%)")
	assert.Contains(t, out, "Hello/Loop: Failed (200ms) [==========] 2/2 (100%)")
	assert.Contains(t, out, "expected 3, got 4")
	assert.NotContains(t, out, "Congratulations!", "messages are only echoed for unsolved tasks")
}

func TestConsoleLoggerSummary(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")
	tasks := sampleCourse().Tasks()

	var result models.ValidationResult
	result.Add(models.TaskOutcome{Task: tasks[0], Result: models.CheckResult{Status: models.StatusSolved}})
	result.Add(models.TaskOutcome{Task: tasks[1], Result: models.CheckResult{Status: models.StatusUnchecked}})
	result.Duration = 90 * time.Second

	cl.LogSummary(result)

	out := buf.String()
	assert.Contains(t, out, "=== Validation Summary ===")
	assert.Contains(t, out, "Total tasks: 2")
	assert.Contains(t, out, "Solved: 1")
	assert.Contains(t, out, "Unchecked: 1")
	assert.Contains(t, out, "Duration: 1m30s")
	assert.Contains(t, out, "- Hello/Loop: Unchecked")
	assert.Contains(t, out, "Verdict: FAILED")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{2 * time.Minute, "2m"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

func TestProgressBarRender(t *testing.T) {
	pb := NewProgressBar(4, 8, false)
	assert.Equal(t, "[        ] 0/4 (0%)", pb.Render())

	pb.Increment()
	assert.Equal(t, "[==      ] 1/4 (25%)", pb.Render())
	assert.Equal(t, 25, pb.Percentage())

	for i := 0; i < 5; i++ {
		pb.Increment()
	}
	assert.Equal(t, 6, pb.Current())
	assert.Equal(t, 100, pb.Percentage())
	assert.True(t, strings.HasPrefix(pb.Render(), "[========]"))

	empty := NewProgressBar(0, 0, false)
	assert.Equal(t, "[          ] 0/0 (0%)", empty.Render())
}

type recordingLogger struct {
	events []string
}

func (r *recordingLogger) LogRunStart(course *models.Course) { r.events = append(r.events, "start:"+course.Title) }
func (r *recordingLogger) LogTaskStart(task *models.Task)    { r.events = append(r.events, "task:"+task.Path) }
func (r *recordingLogger) LogTaskResult(outcome models.TaskOutcome) {
	r.events = append(r.events, "result:"+string(outcome.Result.Status))
}
func (r *recordingLogger) LogSummary(result models.ValidationResult) {
	r.events = append(r.events, "summary")
}
func (r *recordingLogger) LogInfo(message string)  { r.events = append(r.events, "info:"+message) }
func (r *recordingLogger) LogWarn(message string)  { r.events = append(r.events, "warn:"+message) }
func (r *recordingLogger) LogError(message string) { r.events = append(r.events, "error:"+message) }
func (r *recordingLogger) LogDebug(message string) { r.events = append(r.events, "debug:"+message) }

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	ml := NewMultiLogger(a, nil, b)
	course := sampleCourse()

	ml.LogRunStart(course)
	ml.LogTaskStart(course.Tasks()[0])
	ml.LogTaskResult(models.TaskOutcome{Task: course.Tasks()[0], Result: models.CheckResult{Status: models.StatusSolved}})
	ml.LogSummary(models.ValidationResult{})
	ml.LogInfo("i")
	ml.LogWarn("w")
	ml.LogError(errors.New("e").Error())
	ml.LogDebug("d")

	want := []string{"start:Go Basics", "task:Hello/Print", "result:Solved", "summary", "info:i", "warn:w", "error:e", "debug:d"}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}

func TestLoggersSatisfyRunLogger(t *testing.T) {
	var _ RunLogger = NewConsoleLogger(nil, "info")
	var _ RunLogger = &FileLogger{}
	var _ RunLogger = NewMultiLogger()
}
