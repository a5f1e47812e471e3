package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linectl/linectl-go/internal/testharness/engine"
	"github.com/linectl/linectl-go/internal/testharness/loader"
)

func constHandler(out map[string]any) engine.ActionHandler {
	return func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
		return out, nil
	}
}

// TestEngineBasic tests basic engine functionality.
func TestEngineBasic(t *testing.T) {
	e := engine.New()
	e.RegisterHandler("get", constHandler(map[string]any{"result": "success"}))

	tc := &loader.TestCase{
		ID: "TC-001",
		Steps: []loader.Step{
			{Action: "get", Expect: map[string]any{"result": "success"}},
		},
	}

	result := e.Run(context.Background(), tc)
	if !result.Passed {
		t.Fatalf("Test should pass, error: %v", result.Error)
	}
	if len(result.StepResults) != 1 {
		t.Errorf("Expected 1 step result, got %d", len(result.StepResults))
	}
	if result.EndTime.Before(result.StartTime) {
		t.Error("EndTime before StartTime")
	}
}

// TestEngineStepsShareState tests that outputs flow into later steps.
func TestEngineStepsShareState(t *testing.T) {
	e := engine.New()
	var order []string

	e.RegisterHandler("first", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
		order = append(order, "first")
		return map[string]any{"value": 41.5}, nil
	})
	e.RegisterHandler("second", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
		order = append(order, "second")
		if step.Params["prev"] != 41.5 {
			return nil, errors.New("prev not interpolated with its type")
		}
		return map[string]any{"label": step.Params["label"]}, nil
	})

	tc := &loader.TestCase{
		ID: "TC-STATE",
		Steps: []loader.Step{
			{Action: "first", SaveAs: "saved"},
			{
				Action: "second",
				Params: map[string]any{"prev": "{{ saved }}", "label": "got {{saved}}"},
				Expect: map[string]any{"label": "got 41.5"},
			},
		},
	}

	result := e.Run(context.Background(), tc)
	if !result.Passed {
		t.Fatalf("expected pass: %v", result.Error)
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("order = %v", order)
	}
}

func TestEngineVarsSeedState(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Vars = map[string]any{"max_temperature": 85.0}
	e := engine.NewWithConfig(cfg)
	e.RegisterHandler("temp", constHandler(map[string]any{"value": 25.0}))

	tc := &loader.TestCase{
		ID: "TC-VARS",
		Steps: []loader.Step{
			{Action: "temp", Expect: map[string]any{"value_lt": "{{ max_temperature }}"}},
		},
	}
	if r := e.Run(context.Background(), tc); !r.Passed {
		t.Fatalf("expected pass: %v", r.Error)
	}
}

func TestEngineFailures(t *testing.T) {
	e := engine.New()
	e.RegisterHandler("boom", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
		return nil, errors.New("device gone")
	})
	e.RegisterHandler("ok", constHandler(map[string]any{"value": 1}))

	tests := []struct {
		name    string
		steps   []loader.Step
		wantErr string
		ran     int
	}{
		{"unknown action", []loader.Step{{Action: "nope"}}, "unknown action: nope", 1},
		{"handler error", []loader.Step{{Action: "boom"}, {Action: "ok"}}, "device gone", 1},
		{"expectation", []loader.Step{{Action: "ok", Expect: map[string]any{"value_gt": 5}}}, "value_gt", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.Run(context.Background(), &loader.TestCase{ID: "X", Steps: tt.steps})
			if r.Passed {
				t.Fatal("expected failure")
			}
			if r.Error == nil || !strings.Contains(r.Error.Error(), tt.wantErr) {
				t.Errorf("error %v does not contain %q", r.Error, tt.wantErr)
			}
			if len(r.StepResults) != tt.ran {
				t.Errorf("ran %d steps, want %d", len(r.StepResults), tt.ran)
			}
		})
	}
}

func TestEngineSkip(t *testing.T) {
	e := engine.New()
	r := e.Run(context.Background(), &loader.TestCase{ID: "S", Skip: true, Steps: []loader.Step{{Action: "x"}}})
	if !r.Skipped || r.SkipReason == "" {
		t.Errorf("expected skip with reason, got %+v", r)
	}
}

func TestEngineSetupTeardown(t *testing.T) {
	var tornDown bool
	cfg := engine.DefaultConfig()
	cfg.Setup = func(ctx context.Context, tc *loader.TestCase, state *engine.ExecutionState) error {
		state.Custom["device"] = "dev"
		return nil
	}
	cfg.Teardown = func(tc *loader.TestCase, state *engine.ExecutionState) {
		tornDown = state.Custom["device"] == "dev"
	}
	e := engine.NewWithConfig(cfg)
	e.RegisterHandler("fail", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
		return nil, errors.New("x")
	})

	e.Run(context.Background(), &loader.TestCase{ID: "T", Steps: []loader.Step{{Action: "fail"}}})
	if !tornDown {
		t.Error("teardown should run after a failed step")
	}

	cfg.Setup = func(ctx context.Context, tc *loader.TestCase, state *engine.ExecutionState) error {
		return errors.New("connect refused")
	}
	r := e.Run(context.Background(), &loader.TestCase{ID: "T", Steps: []loader.Step{{Action: "fail"}}})
	if r.Passed || !strings.Contains(r.Error.Error(), "setup failed") {
		t.Errorf("expected setup failure, got %v", r.Error)
	}
}

func TestEngineStepTimeout(t *testing.T) {
	e := engine.New()
	e.RegisterHandler("hang", func(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := e.Run(context.Background(), &loader.TestCase{
		ID:    "T",
		Steps: []loader.Step{{Action: "hang", Timeout: "20ms"}},
	})
	if r.Passed || !errors.Is(r.Error, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", r.Error)
	}
}

func TestRunSuite(t *testing.T) {
	var completed []string
	cfg := engine.DefaultConfig()
	cfg.OnTestComplete = func(r *engine.TestResult) { completed = append(completed, r.TestCase.ID) }
	e := engine.NewWithConfig(cfg)
	e.RegisterHandler("ok", constHandler(nil))

	cases := []*loader.TestCase{
		{ID: "A", Steps: []loader.Step{{Action: "ok"}}},
		{ID: "B", Steps: []loader.Step{{Action: "missing"}}},
		{ID: "C", Skip: true, Steps: []loader.Step{{Action: "ok"}}},
		{ID: "D", Steps: []loader.Step{{Action: "ok"}}},
	}

	suite := e.RunSuite(context.Background(), cases)
	if suite.PassCount != 2 || suite.FailCount != 1 || suite.SkipCount != 1 {
		t.Errorf("counts = %d/%d/%d", suite.PassCount, suite.FailCount, suite.SkipCount)
	}
	if len(completed) != 4 {
		t.Errorf("OnTestComplete called %d times", len(completed))
	}

	cfg.StopOnFirstFailure = true
	suite = e.RunSuite(context.Background(), cases)
	if len(suite.Results) != 2 {
		t.Errorf("StopOnFirstFailure ran %d cases, want 2", len(suite.Results))
	}
}

func TestStepDuration(t *testing.T) {
	step := &loader.Step{Params: map[string]any{"duration_seconds": 1, "duration_ms": 1500}}
	if d := engine.StepDuration(step); d != 1500*time.Millisecond {
		t.Errorf("StepDuration = %v", d)
	}
	if d := engine.StepDuration(&loader.Step{}); d != 0 {
		t.Errorf("empty StepDuration = %v", d)
	}
}
