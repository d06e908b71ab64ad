package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// prettyOptions expands every array and object onto its own lines and keeps
// keys in insertion order.
var prettyOptions = &pretty.Options{Width: 0, Indent: "  ", SortKeys: false}

var errInvalidJSON = errors.New("invalid JSON")

// parseJSON strips comments and trailing commas, then builds the tree from
// gjson so object key order is kept.
func parseJSON(raw []byte) (*value.Map, error) {
	clean := jsonc.ToJSON(raw)
	if len(bytes.TrimSpace(clean)) == 0 {
		// Comment-only documents have no value at all.
		return value.NewMap(), nil
	}
	if !gjson.ValidBytes(clean) {
		return nil, jsonParseError(clean)
	}

	v, err := fromJSON(gjson.ParseBytes(clean))
	if err != nil {
		return nil, &ParseError{Format: FormatJSON, Line: 1, Message: err.Error(), Err: err}
	}
	return topLevelMap(v, FormatJSON)
}

// jsonParseError locates the first syntax error. gjson only reports
// validity, so the position comes from encoding/json.
func jsonParseError(data []byte) *ParseError {
	err := json.Unmarshal(data, new(json.RawMessage))
	if err == nil {
		err = errInvalidJSON
	}

	offset := int64(len(data))
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) && syntax.Offset < offset {
		offset = syntax.Offset
	}
	return &ParseError{
		Format:  FormatJSON,
		Line:    1 + bytes.Count(data[:offset], []byte("\n")),
		Message: err.Error(),
		Err:     err,
	}
}

// fromJSON converts a validated gjson result.
func fromJSON(r gjson.Result) (value.Value, error) {
	switch r.Type {
	case gjson.Null:
		return value.Null(), nil
	case gjson.True:
		return value.Bool(true), nil
	case gjson.False:
		return value.Bool(false), nil
	case gjson.Number:
		if math.IsInf(r.Num, 0) {
			return value.Value{}, fmt.Errorf("number %s out of range", r.Raw)
		}
		return value.Number(r.Num), nil
	case gjson.String:
		return value.String(r.Str), nil
	}

	var err error
	if r.IsArray() {
		items := []value.Value{}
		r.ForEach(func(_, item gjson.Result) bool {
			var v value.Value
			v, err = fromJSON(item)
			items = append(items, v)
			return err == nil
		})
		return value.Array(items...), err
	}

	m := value.NewMap()
	r.ForEach(func(key, child gjson.Result) bool {
		var v value.Value
		v, err = fromJSON(child)
		m.Set(key.Str, v)
		return err == nil
	})
	return value.Mapping(m), err
}

func serializeJSON(tree *value.Map) ([]byte, error) {
	compact, err := appendJSON(nil, value.Mapping(tree))
	if err != nil {
		return nil, err
	}
	out := pretty.PrettyOptions(compact, prettyOptions)
	return append(bytes.TrimRight(out, "\n"), '\n'), nil
}

// EncodeValue renders a single value as compact JSON, for terminal output.
func EncodeValue(v value.Value) (string, error) {
	out, err := appendJSON(nil, v)
	return string(out), err
}

// appendJSON writes v as compact JSON in mapping insertion order.
func appendJSON(buf []byte, v value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.KindNull:
		return append(buf, "null"...), nil
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.AppendBool(buf, b), nil
	case value.KindNumber:
		n, _ := v.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("cannot encode %v as JSON", n)
		}
		if i, ok := value.Integral(n); ok {
			return strconv.AppendInt(buf, i, 10), nil
		}
		return strconv.AppendFloat(buf, n, 'g', -1, 64), nil
	case value.KindString:
		s, _ := v.AsString()
		return appendJSONString(buf, s), nil
	case value.KindArray:
		items, _ := v.AsArray()
		buf = append(buf, '[')
		for i, item := range items {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = appendJSON(buf, item); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case value.KindMap:
		m, _ := v.AsMap()
		buf = append(buf, '{')
		var err error
		i := 0
		m.Range(func(k string, child value.Value) bool {
			if i > 0 {
				buf = append(buf, ',')
			}
			i++
			buf = appendJSONString(buf, k)
			buf = append(buf, ':')
			buf, err = appendJSON(buf, child)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return append(buf, '}'), nil
	}
	return buf, nil
}

func appendJSONString(buf []byte, s string) []byte {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return append(buf, bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))...)
}
