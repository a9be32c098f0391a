package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// StateDirName is the per-project directory holding config, logs and the run lock
const StateDirName = ".courseval"

// StateDir returns the state directory for a project
// Priority order:
//  1. COURSEVAL_HOME environment variable (if set)
//  2. <projectDir>/.courseval
//
// The directory is created if it doesn't exist
func StateDir(projectDir string) (string, error) {
	dir := os.Getenv("COURSEVAL_HOME")
	if dir == "" {
		dir = filepath.Join(projectDir, StateDirName)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return dir, nil
}

// LoadEnv reads the dotenv file used for check commands. A relative envFile
// is resolved against projectDir. A missing file yields an empty set.
func LoadEnv(projectDir, envFile string) (map[string]string, error) {
	if envFile == "" {
		return map[string]string{}, nil
	}
	if !filepath.IsAbs(envFile) {
		envFile = filepath.Join(projectDir, envFile)
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	env, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return env, nil
}
