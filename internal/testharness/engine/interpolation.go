package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// variablePattern matches {{ variable }} templates. A dotted path selects
// a member of a saved map: {{ before.reboot_count }}.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)*)\s*\}\}`)

// lookup resolves a variable name or dotted path in state.
func (s *ExecutionState) lookup(path string) (any, bool) {
	head, rest, dotted := strings.Cut(path, ".")
	v, ok := s.Outputs[head]
	for ok && dotted {
		var m map[string]any
		if m, ok = v.(map[string]any); !ok {
			return nil, false
		}
		head, rest, dotted = strings.Cut(rest, ".")
		v, ok = m[head]
	}
	return v, ok
}

// Interpolate replaces {{ variable }} placeholders in s with values from
// state. Unknown variables are left unchanged.
func Interpolate(s string, state *ExecutionState) string {
	if state == nil {
		return s
	}
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		value, ok := state.lookup(name)
		if !ok {
			return match
		}
		return valueToString(value)
	})
}

// InterpolateParams returns a copy of params with every string interpolated,
// recursing into maps and lists. A string that is exactly one "{{ var }}"
// reference takes the variable's value with its type intact.
func InterpolateParams(params map[string]any, state *ExecutionState) map[string]any {
	if params == nil {
		return nil
	}
	result := make(map[string]any, len(params))
	for k, v := range params {
		result[k] = interpolateValue(v, state)
	}
	return result
}

func interpolateValue(value any, state *ExecutionState) any {
	switch v := value.(type) {
	case string:
		return interpolateString(v, state)
	case map[string]any:
		return InterpolateParams(v, state)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = interpolateValue(item, state)
		}
		return out
	}
	return value
}

func interpolateString(s string, state *ExecutionState) any {
	if state == nil {
		return s
	}
	trimmed := strings.TrimSpace(s)
	if m := variablePattern.FindStringSubmatchIndex(trimmed); m != nil && m[0] == 0 && m[1] == len(trimmed) {
		if value, ok := state.lookup(trimmed[m[2]:m[3]]); ok {
			return value
		}
		return s
	}
	return Interpolate(s, state)
}

func valueToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
