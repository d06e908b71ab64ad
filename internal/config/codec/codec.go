// Package codec reads and writes configuration trees in the dialects
// memento understands.
//
// YAML is the canonical on-disk dialect. The JSON-like dialect accepts
// comments and trailing commas. TOML is supported for export and import.
// The format is always passed explicitly; Detect derives it from a file
// extension and never sniffs content.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Format identifies a configuration dialect.
type Format uint8

const (
	// FormatYAML is the block-structured YAML dialect.
	FormatYAML Format = iota
	// FormatJSON is JSON with comments and trailing commas allowed.
	FormatJSON
	// FormatTOML is TOML.
	FormatTOML
)

// String returns the conventional name of the format.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	default:
		return "unknown"
	}
}

// Extension returns the file extension used for the format.
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat converts a user-provided name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json", "jsonc":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return FormatYAML, fmt.Errorf("unknown config format %q (want yaml, json or toml)", name)
	}
}

// Detect picks the format for path from its extension. Files without an
// extension, such as .mementorc, are YAML.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Parse decodes raw into a mapping. Empty or whitespace-only input yields
// an empty mapping. Failures are returned as *ParseError.
func Parse(raw []byte, format Format) (*value.Map, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return value.NewMap(), nil
	}

	switch format {
	case FormatYAML:
		return parseYAML(raw)
	case FormatJSON:
		return parseJSON(raw)
	case FormatTOML:
		return parseTOML(raw)
	default:
		return nil, &ParseError{Format: format, Message: "unsupported format"}
	}
}

// ParseFile is Parse with the source path recorded on any error.
func ParseFile(path string, raw []byte, format Format) (*value.Map, error) {
	m, err := Parse(raw, format)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return m, nil
}

// Serialize encodes tree in the given format. Output is deterministic.
func Serialize(tree *value.Map, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return serializeYAML(tree)
	case FormatJSON:
		return serializeJSON(tree)
	case FormatTOML:
		return serializeTOML(tree)
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

// ParseError represents an error while parsing configuration content.
type ParseError struct {
	// Path is the file that failed to parse; empty for in-memory input.
	Path string
	// Format is the dialect that was being decoded.
	Format Format
	// Line is the 1-based line of the error, when known.
	Line int
	// Message describes the problem.
	Message string
	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	source := e.Path
	if source == "" {
		source = "<" + e.Format.String() + ">"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", source, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", source, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
