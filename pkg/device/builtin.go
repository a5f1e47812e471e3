package device

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/linectl/linectl-go/pkg/wire"
)

// Primitive aliases and dict tags understood by every registry.
const (
	TagInt      = "int"
	TagStr      = "str"
	TagFloat    = "float"
	TagList     = "list"
	TagDict     = "dict"
	TagAttrDict = "AttrDict"
)

func builtins() map[string]Constructor {
	return map[string]Constructor{
		TagInt:      toInt,
		TagStr:      toStr,
		TagFloat:    toFloat,
		TagList:     toList,
		TagDict:     toDict,
		TagAttrDict: toDict,
	}
}

// toInt truncates floats toward zero and parses decimal strings.
func toInt(data any) (any, error) {
	switch v := data.(type) {
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: int(%v)", ErrPrimitive, v)
		}
		return int64(math.Trunc(v)), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: int(%q)", ErrPrimitive, v)
		}
		return n, nil
	}
	if n, ok := wire.ToInt64(data); ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: int(%T)", ErrPrimitive, data)
}

func toFloat(data any) (any, error) {
	switch v := data.(type) {
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: float(%q)", ErrPrimitive, v)
		}
		return f, nil
	}
	if f, ok := wire.ToFloat64(data); ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: float(%T)", ErrPrimitive, data)
}

// toStr never fails. Floats always carry a fractional part.
func toStr(data any) (any, error) {
	return FormatValue(data), nil
}

func toList(data any) (any, error) {
	switch v := data.(type) {
	case []any:
		return append([]any{}, v...), nil
	case string:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out, nil
	case *wire.Dict:
		keys := v.Keys()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: list(%T)", ErrPrimitive, data)
}

func toDict(data any) (any, error) {
	d, ok := data.(*wire.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: dict from %T", ErrConstruction, data)
	}
	return d.Copy(), nil
}

// FormatValue renders a decoded value for display and for the str alias.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(t)
	case *wire.Dict:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			if s, ok := item.(string); ok {
				parts[i] = strconv.Quote(s)
				continue
			}
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
