package models

import "time"

// CheckStatus is the outcome of a single task check
type CheckStatus string

// Check status constants
const (
	StatusUnchecked CheckStatus = "Unchecked" // Check did not produce a verdict
	StatusSolved    CheckStatus = "Solved"    // Task passed its check
	StatusFailed    CheckStatus = "Failed"    // Task failed its check
)

// CheckResult is produced by the checker for one task. It is never mutated
// after it has been published.
type CheckResult struct {
	Status  CheckStatus // Unchecked, Solved or Failed
	Message string      // Human-readable summary
	Details string      // Optional diff, output tail or stack trace
}

// IsSolved reports whether the result counts as a success
func (r CheckResult) IsSolved() bool {
	return r.Status == StatusSolved
}

// TaskOutcome pairs a task with its check result
type TaskOutcome struct {
	Task     *Task         // The task that was checked
	Result   CheckResult   // The recorded check result
	Duration time.Duration // Time from dispatch to recorded result
}

// ValidationResult represents the aggregate result of validating a course
type ValidationResult struct {
	Verdict   bool          // True iff every visited task is Solved
	Total     int           // Number of visited tasks
	Solved    int           // Number of solved tasks
	Failed    int           // Number of failed tasks
	Unchecked int           // Number of unchecked tasks
	Duration  time.Duration // Total validation time
	Outcomes  []TaskOutcome // Per-task outcomes in visiting order
}

// Add folds a task outcome into the aggregate
func (r *ValidationResult) Add(outcome TaskOutcome) {
	r.Total++
	r.Outcomes = append(r.Outcomes, outcome)
	switch outcome.Result.Status {
	case StatusSolved:
		r.Solved++
	case StatusFailed:
		r.Failed++
	default:
		r.Unchecked++
	}
}

// NotSolved returns the outcomes that did not pass
func (r *ValidationResult) NotSolved() []TaskOutcome {
	var out []TaskOutcome
	for _, o := range r.Outcomes {
		if !o.Result.IsSolved() {
			out = append(out, o)
		}
	}
	return out
}
