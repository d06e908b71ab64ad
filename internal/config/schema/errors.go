package schema

import (
	"fmt"
	"strings"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Failure is one schema violation.
type Failure struct {
	// Path is the dot-path of the offending key.
	Path string

	// Message is the human-readable description.
	Message string

	// Value is the rejected value; null for unknown keys.
	Value value.Value
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Path == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Path, f.Message)
}

// unknownKey reports an unrecognized top-level key.
func unknownKey(key string) *Failure {
	return &Failure{
		Path:    key,
		Message: fmt.Sprintf("Unknown configuration key: %s", key),
	}
}

// failures accumulates violations in the order they are found.
type failures []*Failure

func (fs *failures) add(path, message string, v value.Value) {
	*fs = append(*fs, &Failure{Path: path, Message: message, Value: v})
}

func (fs failures) messages() []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Message)
	}
	return out
}

// Error joins every violation, one per line after the first.
func (fs failures) Error() string {
	switch len(fs) {
	case 0:
		return "no schema violations"
	case 1:
		return fs[0].Error()
	}
	msgs := make([]string, 0, len(fs))
	for _, f := range fs {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d schema violations:\n  - %s", len(fs), strings.Join(msgs, "\n  - "))
}
