package engine

import (
	"context"
	"testing"
)

func TestInterpolate(t *testing.T) {
	state := NewExecutionState(context.Background())
	state.Set("serial", "SN-9")
	state.Set("delta", 2.0)
	state.Set("limit", 85.5)

	tests := []struct {
		in, want string
	}{
		{"{{ serial }}", "SN-9"},
		{"serial={{serial}}", "serial=SN-9"},
		{"{{ delta }}s", "2s"},
		{"max {{ limit }}", "max 85.5"},
		{"{{ unknown }}", "{{ unknown }}"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Interpolate(tt.in, state); got != tt.want {
			t.Errorf("Interpolate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Interpolate("{{ serial }}", nil); got != "{{ serial }}" {
		t.Errorf("nil state changed template: %q", got)
	}
}

func TestInterpolateParamsKeepsTypes(t *testing.T) {
	state := NewExecutionState(context.Background())
	state.Set("t", 1700000000.5)

	params := map[string]any{
		"time":   " {{ t }} ",
		"nested": map[string]any{"list": []any{"{{ t }}", 3}},
		"count":  2,
		"miss":   "{{ nope }}",
	}
	out := InterpolateParams(params, state)

	if out["time"] != 1700000000.5 {
		t.Errorf("time = %#v", out["time"])
	}
	list := out["nested"].(map[string]any)["list"].([]any)
	if list[0] != 1700000000.5 || list[1] != 3 {
		t.Errorf("list = %#v", list)
	}
	if out["count"] != 2 || out["miss"] != "{{ nope }}" {
		t.Errorf("passthrough broken: %#v", out)
	}
	if params["time"] != " {{ t }} " {
		t.Error("input map was modified")
	}
	if InterpolateParams(nil, state) != nil {
		t.Error("nil params should stay nil")
	}
}

func TestInterpolateDottedPath(t *testing.T) {
	state := NewExecutionState(context.Background())
	state.Set("before", map[string]any{"reboot_count": 3, "inner": map[string]any{"x": "y"}})

	if got := InterpolateParams(map[string]any{"n": "{{ before.reboot_count }}"}, state)["n"]; got != 3 {
		t.Errorf("dotted ref = %#v", got)
	}
	if got := Interpolate("x={{before.inner.x}}", state); got != "x=y" {
		t.Errorf("nested dotted = %q", got)
	}
	if got := Interpolate("{{ before.reboot_count.deeper }}", state); got != "{{ before.reboot_count.deeper }}" {
		t.Errorf("path through scalar should stay unresolved, got %q", got)
	}
	if v, ok := state.Get("{{ before.reboot_count }}"); !ok || v != 3 {
		t.Errorf("Get dotted = %v, %v", v, ok)
	}
}
