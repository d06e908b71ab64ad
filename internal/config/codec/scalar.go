package codec

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// ParseScalar interprets command-line input. Valid JSON literals (true,
// 42, null, ["a","b"], {"k":1}) keep their type; anything else is a string.
func ParseScalar(s string) value.Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return value.String(s)
	}
	v, err := fromJSON(gjson.Parse(trimmed))
	if err != nil {
		return value.String(s)
	}
	return v
}
