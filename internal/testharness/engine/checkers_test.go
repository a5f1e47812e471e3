package engine

import (
	"context"
	"testing"

	"github.com/linectl/linectl-go/pkg/wire"
)

func stateWith(outputs map[string]any) *ExecutionState {
	s := NewExecutionState(context.Background())
	for k, v := range outputs {
		s.Set(k, v)
	}
	return s
}

type named string

func (n named) String() string { return string(n) }

func TestValueCheckers(t *testing.T) {
	tests := []struct {
		name     string
		checker  ExpectChecker
		outputs  map[string]any
		expected any
		want     bool
	}{
		{"gt pass", CheckerValueGT, map[string]any{KeyValue: 2}, 0, true},
		{"gt equal fails", CheckerValueGT, map[string]any{KeyValue: 2}, 2, false},
		{"gt non numeric", CheckerValueGT, map[string]any{KeyValue: "x"}, 1, false},
		{"gt missing", CheckerValueGT, map[string]any{}, 1, false},
		{"lt pass", CheckerValueLT, map[string]any{KeyValue: 24.5}, 85.0, true},
		{"lt fail", CheckerValueLT, map[string]any{KeyValue: 90}, 85, false},
		{"range map", CheckerValueInRange, map[string]any{KeyValue: 25.1}, map[string]any{"min": -40, "max": 85}, true},
		{"range list", CheckerValueInRange, map[string]any{KeyValue: 100}, []any{-40, 85}, false},
		{"range inclusive", CheckerValueInRange, map[string]any{KeyValue: 85}, []any{-40, 85}, true},
		{"range bad expectation", CheckerValueInRange, map[string]any{KeyValue: 1}, map[string]any{"min": 0}, false},
		{"equals string fold", CheckerValueEquals, map[string]any{KeyValue: "ok"}, "OK", true},
		{"equals stringer", CheckerValueEquals, map[string]any{KeyValue: named("reserve")}, "reserve", true},
		{"equals number", CheckerValueEquals, map[string]any{KeyValue: int64(3)}, 3.0, true},
		{"equals mismatch", CheckerValueEquals, map[string]any{KeyValue: "main"}, "reserve", false},
		{"not pass", CheckerValueNot, map[string]any{KeyValue: "SN-1"}, "SN-0", true},
		{"not fail", CheckerValueNot, map[string]any{KeyValue: 5}, 5, false},
		{"envelope true", CheckerValueIsEnvelope, map[string]any{KeyEnvelope: true}, true, true},
		{"envelope false", CheckerValueIsEnvelope, map[string]any{KeyEnvelope: false}, true, false},
		{"envelope absent", CheckerValueIsEnvelope, map[string]any{}, false, true},
		{"envelope bad expectation", CheckerValueIsEnvelope, map[string]any{}, "yes", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.checker("k", tt.expected, stateWith(tt.outputs))
			if r.Passed != tt.want {
				t.Errorf("Passed = %v, want %v (%s)", r.Passed, tt.want, r.Message)
			}
		})
	}
}

func TestFieldCheckers(t *testing.T) {
	fields := map[string]any{"major": int64(1), "minor": int64(2), "operating_time": 12.5, "current_time": 1000.4}
	state := stateWith(map[string]any{KeyFields: fields})

	tests := []struct {
		name     string
		checker  ExpectChecker
		expected any
		want     bool
	}{
		{"equals", CheckerFieldEquals, map[string]any{"major": 1, "minor": 2}, true},
		{"equals mismatch", CheckerFieldEquals, map[string]any{"major": 2}, false},
		{"equals missing", CheckerFieldEquals, map[string]any{"nope": 1}, false},
		{"equals bad expectation", CheckerFieldEquals, "major", false},
		{"gt", CheckerFieldGT, map[string]any{"minor": 0}, true},
		{"gt fail", CheckerFieldGT, map[string]any{"minor": 2}, false},
		{"lt", CheckerFieldLT, map[string]any{"operating_time": 60}, true},
		{"lt non numeric", CheckerFieldLT, map[string]any{"operating_time": "x"}, false},
		{"delta", CheckerFieldDelta, map[string]any{"field": "current_time", "value": 1000, "delta": 2}, true},
		{"delta exceeded", CheckerFieldDelta, map[string]any{"field": "current_time", "value": 990, "delta": 2}, false},
		{"delta no field", CheckerFieldDelta, map[string]any{"value": 1, "delta": 1}, false},
		{"increased by one", CheckerFieldIncreasedBy, map[string]any{"field": "minor", "from": int64(1), "by": 1}, true},
		{"increased by two", CheckerFieldIncreasedBy, map[string]any{"field": "minor", "from": 0, "by": 1}, false},
		{"not increased", CheckerFieldIncreasedBy, map[string]any{"field": "minor", "from": 2, "by": 1}, false},
		{"increased no from", CheckerFieldIncreasedBy, map[string]any{"field": "minor", "by": 1}, false},
		{"increased missing field", CheckerFieldIncreasedBy, map[string]any{"field": "nope", "from": 0, "by": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.checker("k", tt.expected, state)
			if r.Passed != tt.want {
				t.Errorf("Passed = %v, want %v (%s)", r.Passed, tt.want, r.Message)
			}
		})
	}

	r := CheckerFieldEquals("k", map[string]any{"major": 1}, stateWith(nil))
	if r.Passed {
		t.Error("field checker without fields should fail")
	}
}

func TestFieldEqualsAcceptsDict(t *testing.T) {
	d := wire.DictOf("a", 1)
	state := stateWith(map[string]any{KeyFields: map[string]any{"nested": d}})
	r := CheckerFieldEquals("k", map[string]any{"nested": map[string]any{"a": 1}}, state)
	if !r.Passed {
		t.Errorf("dict field should match: %s", r.Message)
	}
}

func TestCheckerSaveAs(t *testing.T) {
	state := stateWith(map[string]any{KeyValue: "SN-1"})
	r := CheckerSaveAs("save_as", "before", state)
	if !r.Passed {
		t.Fatalf("save_as failed: %s", r.Message)
	}
	if v, _ := state.Get("{{ before }}"); v != "SN-1" {
		t.Errorf("saved value = %v", v)
	}
	if CheckerSaveAs("save_as", "", state).Passed {
		t.Error("empty name should fail")
	}
}

func TestDefaultChecker(t *testing.T) {
	state := stateWith(map[string]any{"code": "ok", "n": 3})
	if !defaultChecker("code", "OK", state).Passed {
		t.Error("case-insensitive match expected")
	}
	if !defaultChecker("n", "present", state).Passed {
		t.Error("present should pass")
	}
	if defaultChecker("missing", 1, state).Passed {
		t.Error("missing key should fail")
	}
	if defaultChecker("n", 4, state).Passed {
		t.Error("mismatch should fail")
	}
}

func TestFieldCheckersOnScalarValue(t *testing.T) {
	state := stateWith(map[string]any{KeyValue: 1700000001.2})
	r := CheckerFieldDelta("k", map[string]any{"field": "value", "value": 1700000000, "delta": 2}, state)
	if !r.Passed {
		t.Errorf("scalar delta: %s", r.Message)
	}
	if !CheckerFieldGT("k", map[string]any{"value": 0}, state).Passed {
		t.Error("scalar field_gt should pass")
	}
}
