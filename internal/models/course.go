package models

import (
	"fmt"
	"strings"
)

// ContainerKind distinguishes the non-leaf levels of a course tree.
type ContainerKind string

const (
	KindSection ContainerKind = "section"
	KindLesson  ContainerKind = "lesson"
)

// Item is a node of the course tree. It is implemented only by *Container and *Task.
type Item interface {
	ItemName() string
	isItem()
}

// Container is a section or lesson holding an ordered list of children.
type Container struct {
	Kind  ContainerKind // section or lesson
	Name  string        // Name reported as the suite name
	Items []Item        // Children, visited in this order
}

func (c *Container) ItemName() string { return c.Name }
func (*Container) isItem()            {}

// Course is the root of the tree.
type Course struct {
	Title      string // Course title
	Items      []Item // Top-level sections, lessons or tasks
	ProjectDir string // Absolute project directory the course was loaded for
	SourceFile string // Descriptor the course was parsed from
}

// Tasks returns every task of the course in visiting order.
func (c *Course) Tasks() []*Task {
	var tasks []*Task
	var walk func(items []Item)
	walk = func(items []Item) {
		for _, item := range items {
			switch it := item.(type) {
			case *Container:
				walk(it.Items)
			case *Task:
				tasks = append(tasks, it)
			}
		}
	}
	walk(c.Items)
	return tasks
}

// Depth returns the maximum nesting depth of the course, counting the task level.
func (c *Course) Depth() int {
	var depth func(items []Item) int
	depth = func(items []Item) int {
		max := 0
		for _, item := range items {
			d := 1
			if container, ok := item.(*Container); ok {
				d += depth(container.Items)
			}
			if d > max {
				max = d
			}
		}
		return max
	}
	return depth(c.Items)
}

// Validate checks structural soundness: non-empty names, valid task
// definitions and task paths that are unique within the course.
func (c *Course) Validate() error {
	seen := make(map[string]bool)
	var check func(items []Item, path []string) error
	check = func(items []Item, path []string) error {
		for i, item := range items {
			switch it := item.(type) {
			case *Container:
				if strings.TrimSpace(it.Name) == "" {
					return fmt.Errorf("%s #%d under %q has no name", it.Kind, i+1, strings.Join(path, "/"))
				}
				if err := check(it.Items, append(path, it.Name)); err != nil {
					return err
				}
			case *Task:
				if err := it.Validate(); err != nil {
					return fmt.Errorf("task #%d under %q: %w", i+1, strings.Join(path, "/"), err)
				}
				if seen[it.Path] {
					return fmt.Errorf("duplicate task path %q", it.Path)
				}
				seen[it.Path] = true
			case nil:
				return fmt.Errorf("nil item #%d under %q", i+1, strings.Join(path, "/"))
			}
		}
		return nil
	}
	return check(c.Items, nil)
}
