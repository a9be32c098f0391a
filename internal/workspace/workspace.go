// Package workspace tracks the project a course is validated in and which task
// file is currently active. Checks act on the active task, so a task's primary
// file must be opened before its check is triggered.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrison/courseval/internal/models"
)

var (
	// ErrNoFiles is returned when a task has no files to open.
	ErrNoFiles = errors.New("task has no files")
	// ErrWrongContext is returned when a method that requires the designated
	// execution context is called from elsewhere.
	ErrWrongContext = errors.New("workspace accessed outside the designated execution context")
)

// ContextGuard reports whether the caller runs on the designated execution
// context. *eventloop.Loop satisfies it.
type ContextGuard interface {
	OnLoop() bool
}

// Workspace is a project directory with at most one active (opened) file.
type Workspace struct {
	root  string
	guard ContextGuard

	mu         sync.Mutex
	activeFile string
	activeTask *models.Task
	opened     []string
}

// New creates a workspace rooted at projectDir. When guard is non-nil, OpenTask
// and ActiveTask refuse to run outside the designated context.
func New(projectDir string, guard ContextGuard) (*Workspace, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project dir %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project dir %s is not a directory", abs)
	}
	return &Workspace{root: abs, guard: guard}, nil
}

// Root returns the absolute project directory.
func (w *Workspace) Root() string {
	return w.root
}

// OpenTask makes the task's primary file the active file.
// It fails when the task has no files or the primary file does not exist.
func (w *Workspace) OpenTask(task *models.Task) error {
	if err := w.checkContext(); err != nil {
		return err
	}
	path := task.PrimaryFile()
	if path == "" {
		return ErrNoFiles
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("locate %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("locate %s: is a directory", path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeFile = path
	w.activeTask = task
	w.opened = append(w.opened, path)
	return nil
}

// ActiveTask returns the task owning the active file, or nil.
func (w *Workspace) ActiveTask() (*models.Task, error) {
	if err := w.checkContext(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeTask, nil
}

// ActiveFile returns the absolute path of the active file, or "".
func (w *Workspace) ActiveFile() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeFile
}

// OpenedFiles returns every file opened so far, in order.
func (w *Workspace) OpenedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.opened...)
}

func (w *Workspace) checkContext() error {
	if w.guard != nil && !w.guard.OnLoop() {
		return ErrWrongContext
	}
	return nil
}
