package protocol

import (
	"bufio"
	"fmt"
	"io"
)

// ReadMessages parses every service message line from r, skipping other lines.
func ReadMessages(r io.Reader) ([]*Message, error) {
	var messages []*Message
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if msg, ok := Parse(scanner.Text()); ok {
			messages = append(messages, msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read service messages: %w", err)
	}
	return messages, nil
}

// CheckNesting replays messages against a stack and reports the first record
// that breaks nesting: a finished record without a matching started one,
// a status record outside its test, or records left open at the end.
func CheckNesting(messages []*Message) error {
	type frame struct {
		kind Kind
		name string
	}
	var stack []frame

	for i, msg := range messages {
		switch msg.Kind {
		case KindSuiteStarted, KindTestStarted:
			stack = append(stack, frame{kind: msg.Kind, name: msg.Name()})
		case KindSuiteFinished, KindTestFinished:
			want := KindSuiteStarted
			if msg.Kind == KindTestFinished {
				want = KindTestStarted
			}
			if len(stack) == 0 {
				return fmt.Errorf("%w: record %d %s %q underflows", ErrUnbalanced, i, msg.Kind, msg.Name())
			}
			top := stack[len(stack)-1]
			if top.kind != want || top.name != msg.Name() {
				return fmt.Errorf("%w: record %d %s %q closes %s %q", ErrUnbalanced, i, msg.Kind, msg.Name(), top.kind, top.name)
			}
			stack = stack[:len(stack)-1]
		case KindTestFailed, KindTestIgnored:
			if len(stack) == 0 || stack[len(stack)-1].kind != KindTestStarted || stack[len(stack)-1].name != msg.Name() {
				return fmt.Errorf("%w: record %d %s %q outside its test", ErrUnbalanced, i, msg.Kind, msg.Name())
			}
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return fmt.Errorf("%w: %d records left open, innermost %s %q", ErrUnbalanced, len(stack), top.kind, top.name)
	}
	return nil
}
