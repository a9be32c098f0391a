package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/courseval/internal/checker"
	"github.com/harrison/courseval/internal/config"
	"github.com/harrison/courseval/internal/eventloop"
	"github.com/harrison/courseval/internal/filelock"
	"github.com/harrison/courseval/internal/logger"
	"github.com/harrison/courseval/internal/models"
	"github.com/harrison/courseval/internal/parser"
	"github.com/harrison/courseval/internal/protocol"
	"github.com/harrison/courseval/internal/validation"
	"github.com/harrison/courseval/internal/workspace"
)

// checkDrainTimeout bounds the wait for cancelled checks after a run ends.
const checkDrainTimeout = 5 * time.Second

// ErrNotAllSolved is returned when the run completed but at least one task
// was not solved.
var ErrNotAllSolved = errors.New("some tasks haven't finished successfully")

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [project-dir]",
		Short: "Check every task of a course",
		Long: `Check every task of a course, one at a time, in course order.

The course file defaults to course.yaml, course.yml or course.md in the
project directory. Test protocol records are written to stdout; logs go to
stderr and to the log directory.

Configuration is loaded from <project>/.courseval/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  courseval validate ./my-course
  courseval validate --course outline.md --check-timeout 2m .
  courseval validate --report report.json --course-suite .

Exit code: 0 if every task is solved, 1 otherwise`,
		Args: cobra.MaximumNArgs(1),
		RunE: validateCommand,
	}

	cmd.Flags().String("course", "", "Course file (default: course.yaml, course.yml or course.md in the project)")
	cmd.Flags().String("config", "", "Path to config file (default: <project>/.courseval/config.yaml)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().Bool("verbose", false, "Show detailed progress (same as --log-level debug)")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().String("check-timeout", "", "Maximum wait for one task's result (e.g. 30s, 5m; 0 = no limit)")
	cmd.Flags().String("command-timeout", "", "Maximum run time of one check command")
	cmd.Flags().Bool("continue-on-preparation-error", false, "Report tasks whose files cannot be opened as failed and keep going")
	cmd.Flags().Bool("course-suite", false, "Wrap the run in a suite named after the course")
	cmd.Flags().String("report", "", "Write a JSON summary of the run to this file")
	cmd.Flags().String("flow-id", "", "flowId attribute for protocol records (default: random)")

	return cmd
}

func validateCommand(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("failed to resolve project dir: %w", err)
	}

	cfg, err := loadValidateConfig(cmd, projectDir)
	if err != nil {
		return err
	}

	coursePath, _ := cmd.Flags().GetString("course")
	if coursePath == "" {
		coursePath, err = parser.FindCourseFile(projectDir)
		if err != nil {
			return err
		}
	}
	course, err := parser.ParseFile(coursePath, projectDir)
	if err != nil {
		return fmt.Errorf("failed to load course: %w", err)
	}

	stateDir, err := config.StateDir(projectDir)
	if err != nil {
		return err
	}
	lock, err := filelock.AcquireRunLock(filepath.Join(stateDir, "validate.lock"))
	if err != nil {
		if errors.Is(err, filelock.ErrLocked) {
			return fmt.Errorf("validation already running for %s", projectDir)
		}
		return err
	}
	defer lock.Unlock()

	logDir := cfg.LogDir
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(projectDir, logDir)
	}
	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	fileLog, err := logger.NewFileLoggerWithLevel(logDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()
	log := logger.NewMultiLogger(consoleLog, fileLog)

	env, err := config.LoadEnv(projectDir, cfg.EnvFile)
	if err != nil {
		return err
	}
	if len(env) > 0 {
		log.LogDebug(fmt.Sprintf("Loaded %d variables from %s", len(env), cfg.EnvFile))
	}

	flowID, _ := cmd.Flags().GetString("flow-id")
	if flowID == "" {
		flowID = uuid.NewString()
	}
	log.LogDebug(fmt.Sprintf("Run %s, course %s", flowID, course.SourceFile))

	loop := eventloop.New()
	loop.Start()
	defer loop.Stop()

	ws, err := workspace.New(projectDir, loop)
	if err != nil {
		return err
	}

	bus := checker.NewBus()
	action := checker.NewAction(ws, checker.NewCommandChecker(nil, cfg.CommandTimeout, env), bus)
	dispatcher := validation.NewDispatcher(loop, ws, action)
	reporter := protocol.NewReporter(cmd.OutOrStdout(), flowID)

	validator := validation.NewValidator(dispatcher, bus, reporter, log, validation.Options{
		CheckTimeout:               cfg.CheckTimeout,
		ContinueOnPreparationError: cfg.ContinueOnPreparationError,
		CourseSuite:                cfg.CourseSuite,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, runErr := validator.Run(ctx, course)
	// Checks still in flight were cancelled with the run; let them publish
	// into the now-disabled store before tearing down.
	if !action.WaitTimeout(checkDrainTimeout) {
		log.LogWarn(fmt.Sprintf("Checks still running after %s, not waiting for them", checkDrainTimeout))
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		data, err := buildReport(flowID, course, result, runErr).JSON()
		if err != nil {
			return err
		}
		if err := filelock.LockAndWrite(reportPath, data); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.LogInfo(fmt.Sprintf("Report written to %s", reportPath))
	}

	if runErr != nil {
		log.LogError(runErr.Error())
		return fmt.Errorf("validation aborted: %w", runErr)
	}
	if err := reporter.Err(); err != nil {
		return fmt.Errorf("failed to write protocol: %w", err)
	}
	if !result.Verdict {
		return ErrNotAllSolved
	}
	return nil
}

func loadValidateConfig(cmd *cobra.Command, projectDir string) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(projectDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var flags config.Flags
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		flags.LogLevel = &v
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		debug := "debug"
		flags.LogLevel = &debug
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		flags.LogDir = &v
	}
	if flags.CheckTimeout, err = durationFlag(cmd, "check-timeout"); err != nil {
		return nil, err
	}
	if flags.CommandTimeout, err = durationFlag(cmd, "command-timeout"); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("continue-on-preparation-error") {
		v, _ := cmd.Flags().GetBool("continue-on-preparation-error")
		flags.ContinueOnPreparationError = &v
	}
	if cmd.Flags().Changed("course-suite") {
		v, _ := cmd.Flags().GetBool("course-suite")
		flags.CourseSuite = &v
	}

	cfg.MergeWithFlags(flags)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func durationFlag(cmd *cobra.Command, name string) (*time.Duration, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString(name)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return &d, nil
}

// courseLabel names a course for humans: its title, or the source file.
func courseLabel(course *models.Course) string {
	if course.Title != "" {
		return course.Title
	}
	return filepath.Base(course.SourceFile)
}
