package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents courseval configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written, relative to the project
	LogDir string `yaml:"log_dir"`

	// CheckTimeout bounds how long the validator waits for a task result (0 = wait forever)
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// CommandTimeout bounds a single check command (0 = no limit)
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// ContinueOnPreparationError records a failed task instead of aborting
	// the run when a task's files cannot be opened
	ContinueOnPreparationError bool `yaml:"continue_on_preparation_error"`

	// CourseSuite wraps the whole run in a suite named after the course
	CourseSuite bool `yaml:"course_suite"`

	// EnvFile is the dotenv file passed to check commands, relative to the project
	EnvFile string `yaml:"env_file"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:                   "info",
		LogDir:                     filepath.Join(StateDirName, "logs"),
		CheckTimeout:               0,
		CommandTimeout:             10 * time.Minute,
		ContinueOnPreparationError: false,
		CourseSuite:                false,
		EnvFile:                    ".env",
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are written as strings ("30s", "5m")
	type yamlConfig struct {
		LogLevel                   string `yaml:"log_level"`
		LogDir                     string `yaml:"log_dir"`
		CheckTimeout               string `yaml:"check_timeout"`
		CommandTimeout             string `yaml:"command_timeout"`
		ContinueOnPreparationError *bool  `yaml:"continue_on_preparation_error"`
		CourseSuite                *bool  `yaml:"course_suite"`
		EnvFile                    string `yaml:"env_file"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.CheckTimeout != "" {
		d, err := time.ParseDuration(yamlCfg.CheckTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid check_timeout format %q: %w", yamlCfg.CheckTimeout, err)
		}
		cfg.CheckTimeout = d
	}
	if yamlCfg.CommandTimeout != "" {
		d, err := time.ParseDuration(yamlCfg.CommandTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid command_timeout format %q: %w", yamlCfg.CommandTimeout, err)
		}
		cfg.CommandTimeout = d
	}
	if yamlCfg.ContinueOnPreparationError != nil {
		cfg.ContinueOnPreparationError = *yamlCfg.ContinueOnPreparationError
	}
	if yamlCfg.CourseSuite != nil {
		cfg.CourseSuite = *yamlCfg.CourseSuite
	}
	if yamlCfg.EnvFile != "" {
		cfg.EnvFile = yamlCfg.EnvFile
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .courseval/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, StateDirName, "config.yaml"))
}

// Flags carries command-line overrides; nil fields were not set
type Flags struct {
	LogLevel                   *string
	LogDir                     *string
	CheckTimeout               *time.Duration
	CommandTimeout             *time.Duration
	ContinueOnPreparationError *bool
	CourseSuite                *bool
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(f Flags) {
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.CheckTimeout != nil {
		c.CheckTimeout = *f.CheckTimeout
	}
	if f.CommandTimeout != nil {
		c.CommandTimeout = *f.CommandTimeout
	}
	if f.ContinueOnPreparationError != nil {
		c.ContinueOnPreparationError = *f.ContinueOnPreparationError
	}
	if f.CourseSuite != nil {
		c.CourseSuite = *f.CourseSuite
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.CheckTimeout < 0 {
		return fmt.Errorf("check_timeout must be >= 0, got %v", c.CheckTimeout)
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must be >= 0, got %v", c.CommandTimeout)
	}

	return nil
}
