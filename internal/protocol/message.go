// Package protocol emits TeamCity-style service messages describing the
// suite/test structure of a validation run.
//
// Each record is a single line of the form
//
//	##teamcity[testStarted name='Task 1' flowId='...']
//
// and started/finished records always nest like a stack.
package protocol

import (
	"fmt"
	"strings"
)

// Kind is the record kind of a service message
type Kind string

const (
	KindSuiteStarted  Kind = "testSuiteStarted"
	KindSuiteFinished Kind = "testSuiteFinished"
	KindTestStarted   Kind = "testStarted"
	KindTestFinished  Kind = "testFinished"
	KindTestFailed    Kind = "testFailed"
	KindTestIgnored   Kind = "testIgnored"
)

// Attribute is a single name='value' pair of a message
type Attribute struct {
	Name  string
	Value string
}

// Message is one service message record. Attributes keep insertion order.
type Message struct {
	Kind       Kind
	Attributes []Attribute
}

// NewMessage creates a message of the given kind with its name attribute set
func NewMessage(kind Kind, name string) *Message {
	return &Message{
		Kind:       kind,
		Attributes: []Attribute{{Name: "name", Value: name}},
	}
}

// AddAttribute appends an attribute and returns the message for chaining
func (m *Message) AddAttribute(name, value string) *Message {
	m.Attributes = append(m.Attributes, Attribute{Name: name, Value: value})
	return m
}

// Attr returns the value of the named attribute
func (m *Message) Attr(name string) (string, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Name returns the value of the name attribute
func (m *Message) Name() string {
	v, _ := m.Attr("name")
	return v
}

// String formats the message as a single service message line (without newline)
func (m *Message) String() string {
	var sb strings.Builder
	sb.WriteString("##teamcity[")
	sb.WriteString(string(m.Kind))
	for _, a := range m.Attributes {
		fmt.Fprintf(&sb, " %s='%s'", a.Name, Escape(a.Value))
	}
	sb.WriteString("]")
	return sb.String()
}

var escaper = strings.NewReplacer(
	"|", "||",
	"'", "|'",
	"\n", "|n",
	"\r", "|r",
	"[", "|[",
	"]", "|]",
	"\u0085", "|x",
	"\u2028", "|l",
	"\u2029", "|p",
)

var unescaper = strings.NewReplacer(
	"||", "|",
	"|'", "'",
	"|n", "\n",
	"|r", "\r",
	"|[", "[",
	"|]", "]",
	"|x", "\u0085",
	"|l", "\u2028",
	"|p", "\u2029",
)

// Escape applies service message value escaping
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// Parse parses a single service message line. It returns false for lines that
// are not service messages.
func Parse(line string) (*Message, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "##teamcity[") || !strings.HasSuffix(line, "]") {
		return nil, false
	}
	body := line[len("##teamcity[") : len(line)-1]

	kindEnd := strings.IndexByte(body, ' ')
	if kindEnd < 0 {
		return &Message{Kind: Kind(body)}, true
	}
	msg := &Message{Kind: Kind(body[:kindEnd])}
	rest := body[kindEnd:]

	for {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			return msg, true
		}
		eq := strings.Index(rest, "='")
		if eq < 0 {
			return nil, false
		}
		name := rest[:eq]
		rest = rest[eq+2:]

		// find the closing quote, skipping escaped characters
		end := -1
		for i := 0; i < len(rest); i++ {
			if rest[i] == '|' {
				i++
				continue
			}
			if rest[i] == '\'' {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, false
		}
		msg.Attributes = append(msg.Attributes, Attribute{Name: name, Value: Unescape(rest[:end])})
		rest = rest[end+1:]
	}
}
