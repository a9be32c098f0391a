package parser

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/courseval/internal/models"
)

// yamlCourse is the on-disk shape of a YAML course descriptor
type yamlCourse struct {
	Title string     `yaml:"title"`
	Check string     `yaml:"check"` // default check command for tasks without one
	Items []yamlItem `yaml:"items"`
}

type yamlItem struct {
	Type  string     `yaml:"type"` // section, lesson or task
	Name  string     `yaml:"name"`
	Items []yamlItem `yaml:"items"`
	Files []string   `yaml:"files"`
	Check string     `yaml:"check"`
	Dir   string     `yaml:"dir"`
}

// YAMLParser parses YAML course descriptors
type YAMLParser struct{}

// NewYAMLParser creates a YAML course parser
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Parse reads a YAML course descriptor
func (p *YAMLParser) Parse(r io.Reader) (*models.Course, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	var doc yamlCourse
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	items, err := convertYAMLItems(doc.Items, doc.Check, "")
	if err != nil {
		return nil, err
	}

	return &models.Course{
		Title: doc.Title,
		Items: items,
	}, nil
}

func convertYAMLItems(raw []yamlItem, defaultCheck string, location string) ([]models.Item, error) {
	items := make([]models.Item, 0, len(raw))
	for i, ri := range raw {
		where := fmt.Sprintf("item #%d", i+1)
		if location != "" {
			where = fmt.Sprintf("%s > %s", location, where)
		}

		kind := strings.ToLower(strings.TrimSpace(ri.Type))
		if kind == "" {
			// infer: anything with files is a task
			if len(ri.Files) > 0 || len(ri.Items) == 0 {
				kind = "task"
			} else {
				kind = string(models.KindLesson)
			}
		}

		switch kind {
		case string(models.KindSection), string(models.KindLesson):
			if len(ri.Files) > 0 {
				return nil, fmt.Errorf("%s (%s %q): only tasks can have files", where, kind, ri.Name)
			}
			children, err := convertYAMLItems(ri.Items, defaultCheck, fmt.Sprintf("%s %q", kind, ri.Name))
			if err != nil {
				return nil, err
			}
			items = append(items, &models.Container{
				Kind:  models.ContainerKind(kind),
				Name:  ri.Name,
				Items: children,
			})
		case "task":
			if len(ri.Items) > 0 {
				return nil, fmt.Errorf("%s (task %q): tasks cannot contain items", where, ri.Name)
			}
			check := ri.Check
			if check == "" {
				check = defaultCheck
			}
			items = append(items, &models.Task{
				Name:         ri.Name,
				Files:        ri.Files,
				CheckCommand: check,
				Dir:          ri.Dir,
			})
		default:
			return nil, fmt.Errorf("%s: unknown item type %q (expected section, lesson or task)", where, ri.Type)
		}
	}
	return items, nil
}
