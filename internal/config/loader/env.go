package loader

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// EnvPrefix is the prefix of every memento environment variable.
const EnvPrefix = "MEMENTO_"

// EnvFunc looks up an environment variable. os.LookupEnv satisfies it.
type EnvFunc func(key string) (string, bool)

// Coercion converts a raw environment string into a value.
type Coercion uint8

const (
	// CoerceString keeps the raw string.
	CoerceString Coercion = iota
	// CoerceBool accepts true or false, case-insensitive.
	CoerceBool
	// CoerceInt accepts a base-10 integer.
	CoerceInt
	// CoerceList splits on commas, trims items and drops empty ones.
	CoerceList
)

// String returns the coercion name.
func (c Coercion) String() string {
	switch c {
	case CoerceString:
		return "string"
	case CoerceBool:
		return "boolean"
	case CoerceInt:
		return "integer"
	case CoerceList:
		return "list"
	default:
		return "unknown"
	}
}

// EnvBinding maps one variable onto a config path.
type EnvBinding struct {
	Var    string
	Path   string
	Coerce Coercion
}

// DefaultEnvTable returns the standard variable table.
func DefaultEnvTable() []EnvBinding {
	return []EnvBinding{
		{Var: EnvPrefix + "DEFAULT_MODE", Path: "defaultMode", Coerce: CoerceString},
		{Var: EnvPrefix + "COLOR_OUTPUT", Path: "ui.colorOutput", Coerce: CoerceBool},
		{Var: EnvPrefix + "VERBOSE", Path: "ui.verboseLogging", Coerce: CoerceBool},
		{Var: EnvPrefix + "MODES", Path: "components.modes", Coerce: CoerceList},
		{Var: EnvPrefix + "WORKFLOWS", Path: "components.workflows", Coerce: CoerceList},
		{Var: EnvPrefix + "HOOKS", Path: "components.hooks", Coerce: CoerceList},
	}
}

// Applied records a variable that contributed to the tree.
type Applied struct {
	Var   string
	Path  string
	Raw   string
	Value value.Value
}

// EnvMapper builds the environment override tree.
type EnvMapper struct {
	lookup EnvFunc
	table  []EnvBinding
	log    zerolog.Logger
}

// NewEnvMapper creates a mapper over the default table. A nil lookup uses
// the process environment.
func NewEnvMapper(lookup EnvFunc, log zerolog.Logger) *EnvMapper {
	return NewEnvMapperWithTable(lookup, DefaultEnvTable(), log)
}

// NewEnvMapperWithTable creates a mapper with custom bindings.
func NewEnvMapperWithTable(lookup EnvFunc, table []EnvBinding, log zerolog.Logger) *EnvMapper {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	bindings := make([]EnvBinding, len(table))
	copy(bindings, table)
	return &EnvMapper{lookup: lookup, table: bindings, log: log}
}

// Table returns a copy of the bindings.
func (m *EnvMapper) Table() []EnvBinding {
	out := make([]EnvBinding, len(m.table))
	copy(out, m.table)
	return out
}

// Load builds a tree from the variables that are set. Variables that fail
// coercion are skipped with a warning.
func (m *EnvMapper) Load() (*value.Map, []Applied) {
	tree := value.NewMap()
	var applied []Applied

	for _, b := range m.table {
		raw, ok := m.lookup(b.Var)
		if !ok {
			continue
		}
		v, ok := Coerce(raw, b.Coerce)
		if !ok {
			m.log.Warn().Str("env", b.Var).Str("value", raw).Str("expected", b.Coerce.String()).
				Msg("ignoring environment variable with invalid value")
			continue
		}
		tree = value.Set(tree, b.Path, v)
		applied = append(applied, Applied{Var: b.Var, Path: b.Path, Raw: raw, Value: v})
	}

	return tree, applied
}

// Coerce converts raw according to c.
func Coerce(raw string, c Coercion) (value.Value, bool) {
	switch c {
	case CoerceString:
		return value.String(raw), true
	case CoerceBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			return value.Bool(true), true
		case "false":
			return value.Bool(false), true
		}
		return value.Value{}, false
	case CoerceInt:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return value.Value{}, false
		}
		return value.Number(float64(i)), true
	case CoerceList:
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return value.Strings(items...), true
	default:
		return value.Value{}, false
	}
}
