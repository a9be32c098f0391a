package checker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/harrison/courseval/internal/models"
)

// Messages used for check results produced by CommandChecker.
const (
	MessageSolved       = "Congratulations!"
	MessageNoCheck      = "No check command configured"
	maxDetailsLineCount = 50
)

// Checker verifies a single task. Implementations report the outcome as a
// CheckResult; a failing task is a result, not an error.
type Checker interface {
	Check(ctx context.Context, task *models.Task) models.CheckResult
}

// CommandRunner executes a shell command in a directory.
type CommandRunner interface {
	Run(ctx context.Context, dir string, command string, env []string) (output string, err error)
}

// outputWaitDelay bounds how long Run keeps reading output after the command
// was killed, in case a detached descendant still holds the pipe.
const outputWaitDelay = 2 * time.Second

// ShellCommandRunner executes commands via the system shell.
type ShellCommandRunner struct{}

// Run executes a command via sh -c and returns combined stdout/stderr.
// env entries are appended to the current process environment. Cancelling
// ctx kills the shell together with every process it started.
func (ShellCommandRunner) Run(ctx context.Context, dir string, command string, env []string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	startInOwnGroup(cmd)
	cmd.Cancel = func() error { return killGroup(cmd) }
	cmd.WaitDelay = outputWaitDelay
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// CommandChecker checks a task by running its check command in the task directory.
type CommandChecker struct {
	runner  CommandRunner
	timeout time.Duration
	env     []string
}

// NewCommandChecker creates a checker. timeout bounds each command (0 = no
// limit); env holds extra KEY=VALUE pairs for every command.
func NewCommandChecker(runner CommandRunner, timeout time.Duration, env map[string]string) *CommandChecker {
	if runner == nil {
		runner = ShellCommandRunner{}
	}
	return &CommandChecker{
		runner:  runner,
		timeout: timeout,
		env:     envList(env),
	}
}

// Check runs the task's check command. Exit code 0 means Solved, anything else
// Failed with the output tail as details. Tasks without a command are Unchecked.
func (c *CommandChecker) Check(ctx context.Context, task *models.Task) models.CheckResult {
	if strings.TrimSpace(task.CheckCommand) == "" {
		return models.CheckResult{Status: models.StatusUnchecked, Message: MessageNoCheck}
	}

	parent := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	output, err := c.runner.Run(ctx, task.Dir, task.CheckCommand, c.env)
	if err == nil {
		return models.CheckResult{Status: models.StatusSolved, Message: MessageSolved}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		message := "check timed out"
		if c.timeout > 0 && parent.Err() == nil {
			message = fmt.Sprintf("check timed out after %s", c.timeout)
		}
		return models.CheckResult{
			Status:  models.StatusFailed,
			Message: message,
			Details: tail(output, maxDetailsLineCount),
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return models.CheckResult{
			Status:  models.StatusUnchecked,
			Message: "check canceled",
		}
	}

	return models.CheckResult{
		Status:  models.StatusFailed,
		Message: fmt.Sprintf("check command failed: %v", err),
		Details: tail(output, maxDetailsLineCount),
	}
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
