package models

import (
	"errors"
	"path/filepath"
)

// Task represents a single checkable leaf of a course
type Task struct {
	Name         string   // Task name, as presented to the learner
	Path         string   // Slash-joined path in the course, unique within a run
	Dir          string   // Absolute task directory
	Files        []string // Task files relative to Dir; the first one is the primary file
	CheckCommand string   // Shell command that verifies the task (optional)
}

func (t *Task) ItemName() string { return t.Name }
func (*Task) isItem()            {}

// PresentableName returns the name reported in the test protocol
func (t *Task) PresentableName() string {
	return t.Name
}

// PrimaryFile returns the absolute path of the first task file, or "" when the
// task has no files
func (t *Task) PrimaryFile() string {
	if len(t.Files) == 0 {
		return ""
	}
	if filepath.IsAbs(t.Files[0]) {
		return t.Files[0]
	}
	return filepath.Join(t.Dir, t.Files[0])
}

// Validate checks if the task has all required fields
func (t *Task) Validate() error {
	if t.Name == "" {
		return errors.New("task name is required")
	}
	if t.Path == "" {
		return errors.New("task path is required")
	}
	if len(t.Files) == 0 {
		return errors.New("task must have at least one file")
	}
	return nil
}
