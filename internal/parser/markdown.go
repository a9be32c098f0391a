package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/courseval/internal/models"
)

var (
	itemHeadingRegex = regexp.MustCompile(`(?i)^(section|lesson|task)\s*:\s*(.+)$`)
	taskFieldRegex   = regexp.MustCompile(`(?i)^(files|check|dir)\s*:\s*(.*)$`)
)

// MarkdownParser parses Markdown course outlines
type MarkdownParser struct {
	markdown goldmark.Markdown
}

type markdownFrontmatter struct {
	Title string `yaml:"title"`
	Check string `yaml:"check"`
}

// outlineScope is an open heading on the nesting stack
type outlineScope struct {
	level     int
	container *models.Container
	task      *models.Task
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

func (p *MarkdownParser) Parse(r io.Reader) (*models.Course, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	course := &models.Course{}
	var front markdownFrontmatter
	content, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		if err := yaml.Unmarshal(frontmatter, &front); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		course.Title = front.Title
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))

	if err := p.extractOutline(doc, content, course, front.Check); err != nil {
		return nil, fmt.Errorf("failed to extract course outline: %w", err)
	}
	return course, nil
}

func (p *MarkdownParser) extractOutline(doc ast.Node, source []byte, course *models.Course, defaultCheck string) error {
	var stack []outlineScope
	var tasks []*models.Task

	appendItem := func(item models.Item) {
		if len(stack) == 0 {
			course.Items = append(course.Items, item)
			return
		}
		top := stack[len(stack)-1].container
		top.Items = append(top.Items, item)
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := strings.TrimSpace(extractText(node, source))
			if node.Level == 1 && len(stack) == 0 && len(course.Items) == 0 {
				if course.Title == "" {
					course.Title = headingText
				}
				return ast.WalkSkipChildren, nil
			}

			for len(stack) > 0 && stack[len(stack)-1].level >= node.Level {
				stack = stack[:len(stack)-1]
			}

			matches := itemHeadingRegex.FindStringSubmatch(headingText)
			if matches == nil {
				return ast.WalkSkipChildren, nil
			}
			if len(stack) > 0 && stack[len(stack)-1].task != nil {
				return ast.WalkStop, fmt.Errorf("line %q: task %q cannot contain items",
					headingText, stack[len(stack)-1].task.Name)
			}

			name := strings.TrimSpace(matches[2])
			switch strings.ToLower(matches[1]) {
			case "task":
				task := &models.Task{Name: name}
				appendItem(task)
				tasks = append(tasks, task)
				stack = append(stack, outlineScope{level: node.Level, task: task})
			default:
				container := &models.Container{
					Kind: models.ContainerKind(strings.ToLower(matches[1])),
					Name: name,
				}
				appendItem(container)
				stack = append(stack, outlineScope{level: node.Level, container: container})
			}
			return ast.WalkSkipChildren, nil

		case *ast.ListItem:
			if len(stack) == 0 || stack[len(stack)-1].task == nil {
				return ast.WalkSkipChildren, nil
			}
			applyTaskField(stack[len(stack)-1].task, strings.TrimSpace(extractText(node, source)))
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return err
	}

	for _, task := range tasks {
		if task.CheckCommand == "" {
			task.CheckCommand = defaultCheck
		}
	}
	return nil
}

// applyTaskField reads a "files:", "check:" or "dir:" bullet into the task
func applyTaskField(task *models.Task, line string) {
	matches := taskFieldRegex.FindStringSubmatch(line)
	if matches == nil {
		return
	}
	value := strings.TrimSpace(matches[2])
	switch strings.ToLower(matches[1]) {
	case "files":
		for _, f := range strings.Split(value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				task.Files = append(task.Files, f)
			}
		}
	case "check":
		task.CheckCommand = value
	case "dir":
		task.Dir = value
	}
}

// extractText collects the plain text of a node, descending into inline
// children such as code spans and emphasis
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(extractText(c, source))
		}
	}
	return buf.String()
}

// extractFrontmatter splits a leading "---" delimited YAML block from the body
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}

	return content, nil
}
