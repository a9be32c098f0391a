package parser

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/harrison/courseval/internal/models"
)

// Format represents the format of a course descriptor file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatMarkdown represents a Markdown (.md, .markdown) course outline
	FormatMarkdown
	// FormatYAML represents a YAML (.yaml, .yml) course descriptor
	FormatYAML
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// DefaultCourseFiles are looked up, in order, in the project directory when no
// course file is given explicitly.
var DefaultCourseFiles = []string{"course.yaml", "course.yml", "course.md"}

// Parser is the interface that all course parsers must implement
type Parser interface {
	// Parse reads from an io.Reader and returns the course tree. Task paths and
	// directories are not resolved yet.
	Parse(r io.Reader) (*models.Course, error)
}

// DetectFormat automatically detects the course format based on file extension
// Supported extensions:
//   - .md, .markdown -> FormatMarkdown
//   - .yaml, .yml -> FormatYAML
//   - all others -> FormatUnknown
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// NewParser creates a new parser instance for the specified format
// Returns an error if the format is unknown or unsupported
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// FindCourseFile returns the first default course file present in projectDir.
func FindCourseFile(projectDir string) (string, error) {
	for _, name := range DefaultCourseFiles {
		candidate := filepath.Join(projectDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no course file found in %s (looked for %s)", projectDir, strings.Join(DefaultCourseFiles, ", "))
}

// ParseFile is a convenience function that:
//  1. Auto-detects the format from the file extension
//  2. Parses the course tree
//  3. Resolves task paths and directories against projectDir
//  4. Validates the resulting tree
//
// This is the recommended way to load a course from disk.
func ParseFile(coursePath string, projectDir string) (*models.Course, error) {
	format := DetectFormat(coursePath)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unknown file format: %s (supported: .md, .markdown, .yaml, .yml)", coursePath)
	}

	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(coursePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	course, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse course: %w", err)
	}

	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}
	if absCourse, err := filepath.Abs(coursePath); err == nil {
		course.SourceFile = absCourse
	} else {
		course.SourceFile = coursePath
	}

	Resolve(course, absProject)

	if err := course.Validate(); err != nil {
		return nil, fmt.Errorf("invalid course: %w", err)
	}
	return course, nil
}

// Resolve fills in every task's Path (slash-joined container names plus the
// task name) and Dir. A task without an explicit Dir lives in
// projectDir/<containers...>/<task>; a relative Dir is taken relative to projectDir.
func Resolve(course *models.Course, projectDir string) {
	course.ProjectDir = projectDir

	var walk func(items []models.Item, names []string)
	walk = func(items []models.Item, names []string) {
		for _, item := range items {
			switch it := item.(type) {
			case *models.Container:
				walk(it.Items, append(names[:len(names):len(names)], it.Name))
			case *models.Task:
				parts := append(names[:len(names):len(names)], it.Name)
				it.Path = path.Join(parts...)
				switch {
				case it.Dir == "":
					it.Dir = filepath.Join(append([]string{projectDir}, parts...)...)
				case !filepath.IsAbs(it.Dir):
					it.Dir = filepath.Join(projectDir, filepath.FromSlash(it.Dir))
				}
			}
		}
	}
	walk(course.Items, nil)
}
