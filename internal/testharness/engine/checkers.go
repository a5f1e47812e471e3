package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/linectl/linectl-go/pkg/wire"
)

func pass(key string, expected, actual any, format string, args ...any) *ExpectResult {
	return &ExpectResult{Key: key, Expected: expected, Actual: actual, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(key string, expected, actual any, format string, args ...any) *ExpectResult {
	return &ExpectResult{Key: key, Expected: expected, Actual: actual, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func verdict(passed bool, key string, expected, actual any, format string, args ...any) *ExpectResult {
	if passed {
		return pass(key, expected, actual, format, args...)
	}
	return fail(key, expected, actual, format, args...)
}

// ValuesMatch compares an expected scenario value with an actual output.
// Numbers compare by value; strings also match case-insensitively so
// enum names can be written either way.
func ValuesMatch(expected, actual any) bool {
	if wire.ValuesEqual(expected, actual) {
		return true
	}
	es, eok := expected.(string)
	if !eok {
		return false
	}
	if as, ok := actual.(string); ok {
		return strings.EqualFold(es, as)
	}
	if s, ok := actual.(fmt.Stringer); ok {
		return strings.EqualFold(es, s.String())
	}
	return false
}

// defaultChecker compares the output named key with expected.
func defaultChecker(key string, expected any, state *ExecutionState) *ExpectResult {
	actual, ok := state.Get(key)
	if !ok {
		return fail(key, expected, nil, "key %q not found in outputs", key)
	}
	if s, ok := expected.(string); ok && s == "present" {
		return pass(key, expected, actual, "%s = %v", key, actual)
	}
	if ValuesMatch(expected, actual) {
		return pass(key, expected, actual, "%s = %v", key, actual)
	}
	return fail(key, expected, actual, "expected %v, got %v", expected, actual)
}

func numericValue(key string, expected any, state *ExecutionState) (float64, float64, *ExpectResult) {
	actual, ok := stepOutput(state, KeyValue)
	if !ok {
		return 0, 0, fail(key, expected, nil, "output key %q not found", KeyValue)
	}
	a, ok1 := wire.ToFloat64(actual)
	e, ok2 := wire.ToFloat64(expected)
	if !ok1 || !ok2 {
		return 0, 0, fail(key, expected, actual, "cannot compare non-numeric values: %T and %T", actual, expected)
	}
	return a, e, nil
}

// CheckerValueGT passes when the step value is greater than expected.
func CheckerValueGT(key string, expected any, state *ExecutionState) *ExpectResult {
	a, e, bad := numericValue(key, expected, state)
	if bad != nil {
		return bad
	}
	return verdict(a > e, key, expected, a, "%v > %v = %v", a, e, a > e)
}

// CheckerValueLT passes when the step value is less than expected.
func CheckerValueLT(key string, expected any, state *ExecutionState) *ExpectResult {
	a, e, bad := numericValue(key, expected, state)
	if bad != nil {
		return bad
	}
	return verdict(a < e, key, expected, a, "%v < %v = %v", a, e, a < e)
}

// CheckerValueInRange passes when min <= value <= max. Expected is either
// {min, max} or a [min, max] list.
func CheckerValueInRange(key string, expected any, state *ExecutionState) *ExpectResult {
	actual, ok := stepOutput(state, KeyValue)
	if !ok {
		return fail(key, expected, nil, "output key %q not found", KeyValue)
	}

	var lo, hi any
	switch e := expected.(type) {
	case map[string]any:
		var hasMin, hasMax bool
		lo, hasMin = e["min"]
		hi, hasMax = e["max"]
		if !hasMin || !hasMax {
			return fail(key, expected, actual, "expected must have both 'min' and 'max' keys")
		}
	case []any:
		if len(e) != 2 {
			return fail(key, expected, actual, "expected array must have exactly 2 elements [min, max]")
		}
		lo, hi = e[0], e[1]
	default:
		return fail(key, expected, actual, "expected must be a map with 'min'/'max' or a [min, max] array")
	}

	a, ok1 := wire.ToFloat64(actual)
	minN, ok2 := wire.ToFloat64(lo)
	maxN, ok3 := wire.ToFloat64(hi)
	if !ok1 || !ok2 || !ok3 {
		return fail(key, expected, actual, "cannot compare non-numeric values")
	}
	in := a >= minN && a <= maxN
	return verdict(in, key, expected, actual, "%v in [%v, %v] = %v", a, minN, maxN, in)
}

// CheckerValueEquals passes when the step value matches expected.
func CheckerValueEquals(key string, expected any, state *ExecutionState) *ExpectResult {
	actual, ok := stepOutput(state, KeyValue)
	if !ok {
		return fail(key, expected, nil, "output key %q not found", KeyValue)
	}
	if ValuesMatch(expected, actual) {
		return pass(key, expected, actual, "value = %v", actual)
	}
	return fail(key, expected, actual, "expected %v, got %v", expected, actual)
}

// CheckerValueNot passes when the step value differs from expected.
func CheckerValueNot(key string, expected any, state *ExecutionState) *ExpectResult {
	actual, ok := stepOutput(state, KeyValue)
	if !ok {
		return fail(key, expected, nil, "output key %q not found", KeyValue)
	}
	if ValuesMatch(expected, actual) {
		return fail(key, expected, actual, "value must not be %v", expected)
	}
	return pass(key, expected, actual, "value %v != %v", actual, expected)
}

// CheckerValueIsEnvelope passes when the reply was (or, with false, was
// not) left as a raw envelope.
func CheckerValueIsEnvelope(key string, expected any, state *ExecutionState) *ExpectResult {
	want, ok := expected.(bool)
	if !ok {
		return fail(key, expected, nil, "expected must be true or false")
	}
	v, _ := stepOutput(state, KeyEnvelope)
	got, _ := v.(bool)
	typ, _ := stepOutput(state, KeyType)
	return verdict(got == want, key, expected, got, "envelope = %v (type %v)", got, typ)
}

// stepOutput reads key from the current step's outputs, falling back to
// the accumulated state when no step has run.
func stepOutput(state *ExecutionState, key string) (any, bool) {
	if m, ok := state.Outputs[InternalStepOutput].(map[string]any); ok {
		v, ok := m[key]
		return v, ok
	}
	return state.Get(key)
}

// fieldValue returns a member of the step's fields. The name "value"
// falls back to the step value so scalars work with field checkers.
func fieldValue(state *ExecutionState, name string) (any, bool) {
	if v, ok := stepOutput(state, KeyFields); ok {
		if m, ok := v.(map[string]any); ok {
			if f, ok := m[name]; ok {
				return f, true
			}
		}
	}
	if name == KeyValue {
		return stepOutput(state, KeyValue)
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkFields applies cmp to every field named in expected. Expected must
// be a map of field name to operand.
func checkFields(key string, expected any, state *ExecutionState, op string, cmp func(want, got any) (bool, error)) *ExpectResult {
	want, ok := expected.(map[string]any)
	if !ok || len(want) == 0 {
		return fail(key, expected, nil, "expected must map field names to values")
	}
	var problems []string
	actual := make(map[string]any, len(want))
	for _, name := range sortedKeys(want) {
		got, has := fieldValue(state, name)
		if !has {
			problems = append(problems, fmt.Sprintf("missing field %q", name))
			continue
		}
		actual[name] = got
		okField, err := cmp(want[name], got)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if !okField {
			problems = append(problems, fmt.Sprintf("%s = %v, want %s %v", name, got, op, want[name]))
		}
	}
	if len(problems) > 0 {
		return fail(key, expected, actual, "%s", strings.Join(problems, "; "))
	}
	return pass(key, expected, actual, "all fields %s expected", op)
}

func numericPair(want, got any) (float64, float64, error) {
	w, ok1 := wire.ToFloat64(want)
	g, ok2 := wire.ToFloat64(got)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("cannot compare %T with %T", got, want)
	}
	return w, g, nil
}

// CheckerFieldEquals passes when each named field matches.
func CheckerFieldEquals(key string, expected any, state *ExecutionState) *ExpectResult {
	return checkFields(key, expected, state, "==", func(want, got any) (bool, error) {
		return ValuesMatch(want, got), nil
	})
}

// CheckerFieldGT passes when each named field exceeds its bound.
func CheckerFieldGT(key string, expected any, state *ExecutionState) *ExpectResult {
	return checkFields(key, expected, state, ">", func(want, got any) (bool, error) {
		w, g, err := numericPair(want, got)
		return g > w, err
	})
}

// CheckerFieldLT passes when each named field is below its bound.
func CheckerFieldLT(key string, expected any, state *ExecutionState) *ExpectResult {
	return checkFields(key, expected, state, "<", func(want, got any) (bool, error) {
		w, g, err := numericPair(want, got)
		return g < w, err
	})
}

// CheckerFieldDelta passes when |field - value| <= delta. Expected is
// {field, value, delta}; field "value" addresses a scalar step value.
func CheckerFieldDelta(key string, expected any, state *ExecutionState) *ExpectResult {
	params, ok := expected.(map[string]any)
	if !ok {
		return fail(key, expected, nil, "expected must have 'field', 'value' and 'delta'")
	}
	name, _ := params["field"].(string)
	if name == "" {
		return fail(key, expected, nil, "expected.field is required")
	}
	got, has := fieldValue(state, name)
	if !has {
		return fail(key, expected, nil, "missing field %q", name)
	}
	g, ok1 := wire.ToFloat64(got)
	w, ok2 := wire.ToFloat64(params["value"])
	d, ok3 := wire.ToFloat64(params["delta"])
	if !ok1 || !ok2 || !ok3 {
		return fail(key, expected, got, "field_delta needs numeric field, value and delta")
	}
	diff := math.Abs(g - w)
	return verdict(diff <= d, key, expected, got, "|%v - %v| = %v <= %v", g, w, diff, d)
}

// CheckerFieldIncreasedBy passes when field - from == by exactly.
// Expected is {field, from, by}.
func CheckerFieldIncreasedBy(key string, expected any, state *ExecutionState) *ExpectResult {
	params, ok := expected.(map[string]any)
	if !ok {
		return fail(key, expected, nil, "expected must have 'field', 'from' and 'by'")
	}
	name, _ := params["field"].(string)
	if name == "" {
		return fail(key, expected, nil, "expected.field is required")
	}
	got, has := fieldValue(state, name)
	if !has {
		return fail(key, expected, nil, "missing field %q", name)
	}
	g, ok1 := wire.ToFloat64(got)
	from, ok2 := wire.ToFloat64(params["from"])
	by, ok3 := wire.ToFloat64(params["by"])
	if !ok1 || !ok2 || !ok3 {
		return fail(key, expected, got, "field_increased_by needs numeric field, from and by")
	}
	return verdict(g-from == by, key, expected, got, "%v - %v = %v, want %v", g, from, g-from, by)
}

// CheckerSaveAs stores the step value under the name given as expected.
// It always passes when a value exists.
func CheckerSaveAs(key string, expected any, state *ExecutionState) *ExpectResult {
	name, ok := expected.(string)
	if !ok || name == "" {
		return fail(key, expected, nil, "save_as needs a variable name")
	}
	value, ok := stepOutput(state, KeyValue)
	if !ok {
		return fail(key, expected, nil, "output key %q not found", KeyValue)
	}
	state.Set(name, value)
	return pass(key, expected, value, "saved %s = %v", name, value)
}

// RegisterCheckers registers every built-in checker on e.
func RegisterCheckers(e *Engine) {
	e.RegisterChecker(CheckerNameValueGT, CheckerValueGT)
	e.RegisterChecker(CheckerNameValueLT, CheckerValueLT)
	e.RegisterChecker(CheckerNameValueInRange, CheckerValueInRange)
	e.RegisterChecker(CheckerNameValueEquals, CheckerValueEquals)
	e.RegisterChecker(CheckerNameValueNot, CheckerValueNot)
	e.RegisterChecker(CheckerNameValueIsEnvelope, CheckerValueIsEnvelope)
	e.RegisterChecker(CheckerNameFieldEquals, CheckerFieldEquals)
	e.RegisterChecker(CheckerNameFieldGT, CheckerFieldGT)
	e.RegisterChecker(CheckerNameFieldLT, CheckerFieldLT)
	e.RegisterChecker(CheckerNameFieldDelta, CheckerFieldDelta)
	e.RegisterChecker(CheckerNameFieldIncreasedBy, CheckerFieldIncreasedBy)
	e.RegisterChecker(CheckerNameSaveAs, CheckerSaveAs)
}
