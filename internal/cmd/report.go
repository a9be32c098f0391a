package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harrison/courseval/internal/models"
)

// runReport is the JSON summary written by validate --report
type runReport struct {
	RunID      string       `json:"run_id"`
	Course     string       `json:"course"`
	SourceFile string       `json:"source_file"`
	Verdict    bool         `json:"verdict"`
	Total      int          `json:"total"`
	Solved     int          `json:"solved"`
	Failed     int          `json:"failed"`
	Unchecked  int          `json:"unchecked"`
	DurationMs int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
	FinishedAt time.Time    `json:"finished_at"`
	Tasks      []taskReport `json:"tasks"`
}

type taskReport struct {
	Path       string `json:"path"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func buildReport(runID string, course *models.Course, result *models.ValidationResult, runErr error) *runReport {
	report := &runReport{
		RunID:      runID,
		Course:     courseLabel(course),
		SourceFile: course.SourceFile,
		FinishedAt: time.Now().UTC(),
		Tasks:      []taskReport{},
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	if result == nil {
		return report
	}

	report.Verdict = result.Verdict
	report.Total = result.Total
	report.Solved = result.Solved
	report.Failed = result.Failed
	report.Unchecked = result.Unchecked
	report.DurationMs = result.Duration.Milliseconds()
	for _, o := range result.Outcomes {
		report.Tasks = append(report.Tasks, taskReport{
			Path:       o.Task.Path,
			Status:     string(o.Result.Status),
			Message:    o.Result.Message,
			DurationMs: o.Duration.Milliseconds(),
		})
	}
	return report
}

// JSON renders the report with a trailing newline.
func (r *runReport) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}
