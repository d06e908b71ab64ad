package codec

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

func parseTOML(raw []byte) (*value.Map, error) {
	var data map[string]any
	if err := toml.Unmarshal(raw, &data); err != nil {
		pe := &ParseError{Format: FormatTOML, Message: err.Error(), Err: err}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			pe.Line, _ = decodeErr.Position()
		}
		return nil, pe
	}

	m, err := value.MapFromInterface(data)
	if err != nil {
		return nil, &ParseError{Format: FormatTOML, Message: err.Error(), Err: err}
	}
	return m, nil
}

// serializeTOML drops null values, which TOML cannot represent. Keys come
// out sorted.
func serializeTOML(tree *value.Map) ([]byte, error) {
	out, err := toml.Marshal(dropNulls(tree).Interface())
	if err != nil {
		return nil, fmt.Errorf("encoding toml: %w", err)
	}
	return out, nil
}

func dropNulls(m *value.Map) *value.Map {
	out := value.NewMap()
	m.Range(func(k string, v value.Value) bool {
		switch v.Kind() {
		case value.KindNull:
			return true
		case value.KindMap:
			nested, _ := v.AsMap()
			out.Set(k, value.Mapping(dropNulls(nested)))
		case value.KindArray:
			items, _ := v.AsArray()
			kept := make([]value.Value, 0, len(items))
			for _, item := range items {
				if item.IsNull() {
					continue
				}
				if nested, ok := item.AsMap(); ok {
					item = value.Mapping(dropNulls(nested))
				}
				kept = append(kept, item)
			}
			out.Set(k, value.Array(kept...))
		default:
			out.Set(k, v)
		}
		return true
	})
	return out
}
