package codec

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// parseYAML decodes through yaml.Node so mapping order survives.
func parseYAML(raw []byte) (*value.Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, yamlParseError(err)
	}

	v, err := yamlNodeToValue(&doc)
	if err != nil {
		return nil, &ParseError{Format: FormatYAML, Message: err.Error(), Err: err}
	}
	return topLevelMap(v, FormatYAML)
}

func yamlParseError(err error) *ParseError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	pe := &ParseError{Format: FormatYAML, Message: msg, Err: err}
	if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}

// topLevelMap accepts a mapping or null as a document root.
func topLevelMap(v value.Value, format Format) (*value.Map, error) {
	switch v.Kind() {
	case value.KindNull:
		return value.NewMap(), nil
	case value.KindMap:
		m, _ := v.AsMap()
		return m, nil
	default:
		return nil, &ParseError{
			Format:  format,
			Message: fmt.Sprintf("top-level value must be a mapping, got %s", v.Kind()),
		}
	}
}

func yamlNodeToValue(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case 0:
		return value.Null(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), nil
		}
		return yamlNodeToValue(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return value.Null(), nil
		}
		return yamlNodeToValue(n.Alias)
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := yamlNodeToValue(child)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.Array(items...), nil
	case yaml.MappingNode:
		m := value.NewMap()
		if err := yamlFillMap(m, n); err != nil {
			return value.Value{}, err
		}
		return value.Mapping(m), nil
	case yaml.ScalarNode:
		return yamlScalar(n), nil
	default:
		return value.Value{}, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func yamlFillMap(m *value.Map, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
		}

		// "<<" merge keys contribute entries the mapping does not set itself.
		if key.ShortTag() == "!!merge" {
			merged, err := yamlNodeToValue(val)
			if err != nil {
				return err
			}
			yamlApplyMerge(m, merged)
			continue
		}

		v, err := yamlNodeToValue(val)
		if err != nil {
			return err
		}
		m.Set(key.Value, v)
	}
	return nil
}

func yamlApplyMerge(m *value.Map, merged value.Value) {
	sources := []value.Value{merged}
	if items, ok := merged.AsArray(); ok {
		sources = items
	}
	for _, src := range sources {
		sm, ok := src.AsMap()
		if !ok {
			continue
		}
		sm.Range(func(k string, v value.Value) bool {
			if !m.Has(k) {
				m.Set(k, v)
			}
			return true
		})
	}
}

func yamlScalar(n *yaml.Node) value.Value {
	switch n.ShortTag() {
	case "!!null":
		return value.Null()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return value.Bool(b)
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return value.Number(float64(i))
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			return value.Number(f)
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return value.Number(f)
		}
	}
	return value.String(n.Value)
}

func serializeYAML(tree *value.Map) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(value.Mapping(tree))); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlNode builds a node tree with explicit tags; the encoder quotes any
// string that would otherwise resolve to another type.
func yamlNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
	case value.KindNumber:
		n, _ := v.AsNumber()
		if i, ok := value.Integral(n); ok {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(n)}
	case value.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case value.KindArray:
		items, _ := v.AsArray()
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node
	case value.KindMap:
		m, _ := v.AsMap()
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		m.Range(func(k string, child value.Value) bool {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(child),
			)
			return true
		})
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
