package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrison/courseval/internal/checker"
	"github.com/harrison/courseval/internal/eventloop"
	"github.com/harrison/courseval/internal/models"
	"github.com/harrison/courseval/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEditor struct {
	calls []string
	err   error
}

func (e *recordingEditor) OpenTask(task *models.Task) error {
	e.calls = append(e.calls, "open:"+task.Path)
	return e.err
}

type recordingAction struct {
	editor *recordingEditor
	err    error
}

func (a *recordingAction) Perform(ctx context.Context) error {
	a.editor.calls = append(a.editor.calls, "check")
	return a.err
}

func TestDispatcherPreparesBeforeCheck(t *testing.T) {
	loop := eventloop.New()
	loop.Start()
	defer loop.Stop()

	editor := &recordingEditor{}
	d := NewDispatcher(loop, editor, &recordingAction{editor: editor})

	require.NoError(t, d.DispatchCheck(context.Background(), testTask("Intro/Hello")))
	assert.Equal(t, []string{"open:Intro/Hello", "check"}, editor.calls)
}

func TestDispatcherPreparationError(t *testing.T) {
	loop := eventloop.New()
	loop.Start()
	defer loop.Stop()

	openErr := errors.New("file not found")
	editor := &recordingEditor{err: openErr}
	d := NewDispatcher(loop, editor, &recordingAction{editor: editor})

	err := d.DispatchCheck(context.Background(), testTask("Intro/Hello"))

	var prepErr *PreparationError
	require.ErrorAs(t, err, &prepErr)
	assert.Equal(t, "Intro/Hello", prepErr.TaskPath)
	assert.ErrorIs(t, err, openErr)
	assert.Equal(t, []string{"open:Intro/Hello"}, editor.calls, "check must not run after failed preparation")
}

func TestDispatcherActionError(t *testing.T) {
	loop := eventloop.New()
	loop.Start()
	defer loop.Stop()

	editor := &recordingEditor{}
	d := NewDispatcher(loop, editor, &recordingAction{editor: editor, err: checker.ErrNoActiveTask})

	err := d.DispatchCheck(context.Background(), testTask("T"))
	assert.ErrorIs(t, err, checker.ErrNoActiveTask)
	assert.False(t, IsPreparationError(err))
}

func TestDispatcherWithWorkspaceOnLoop(t *testing.T) {
	root := t.TempDir()
	taskDir := filepath.Join(root, "Hello")
	require.NoError(t, os.MkdirAll(taskDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(taskDir, "main.go"), []byte("package main\n"), 0644))

	loop := eventloop.New()
	loop.Start()
	defer loop.Stop()

	ws, err := workspace.New(root, loop)
	require.NoError(t, err)

	bus := checker.NewBus()
	results := make(chan models.CheckResult, 1)
	bus.Subscribe(checker.ListenerFunc(func(_ *models.Task, r models.CheckResult) { results <- r }))

	action := checker.NewAction(ws, checker.NewCommandChecker(nil, 0, nil), bus)
	d := NewDispatcher(loop, ws, action)

	task := &models.Task{Name: "Hello", Path: "Hello", Dir: taskDir, Files: []string{"main.go"}}
	require.NoError(t, d.DispatchCheck(context.Background(), task))
	action.Wait()

	assert.Equal(t, filepath.Join(taskDir, "main.go"), ws.ActiveFile())
	assert.Equal(t, models.StatusUnchecked, (<-results).Status)

	missing := &models.Task{Name: "Missing", Path: "Missing", Dir: taskDir, Files: []string{"nope.go"}}
	assert.True(t, IsPreparationError(d.DispatchCheck(context.Background(), missing)))
}
