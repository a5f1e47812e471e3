package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/linectl/linectl-go/internal/testharness/loader"
	"github.com/linectl/linectl-go/pkg/wire"
)

// Engine executes scenarios.
type Engine struct {
	config   *EngineConfig
	handlers map[string]ActionHandler
	checkers map[string]ExpectChecker
	logger   *slog.Logger
	mu       sync.RWMutex
}

// New creates an engine with the default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an engine with the given configuration. The
// default checker and all built-in checkers are registered.
func NewWithConfig(config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		config:   config,
		handlers: make(map[string]ActionHandler),
		checkers: make(map[string]ExpectChecker),
		logger:   logger,
	}
	e.RegisterChecker(CheckerNameDefault, defaultChecker)
	RegisterCheckers(e)
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() *EngineConfig {
	return e.config
}

// RegisterHandler registers an action handler.
func (e *Engine) RegisterHandler(action string, handler ActionHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[action] = handler
}

// RegisterChecker registers an expectation checker.
func (e *Engine) RegisterChecker(key string, checker ExpectChecker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkers[key] = checker
}

// Actions lists the registered action names, sorted.
func (e *Engine) Actions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.handlers))
	for n := range e.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes a single scenario.
func (e *Engine) Run(ctx context.Context, tc *loader.TestCase) *TestResult {
	result := &TestResult{
		TestCase:  tc,
		StartTime: time.Now(),
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	if tc.Skip {
		result.Skipped = true
		result.SkipReason = tc.SkipReason
		if result.SkipReason == "" {
			result.SkipReason = "skipped by test definition"
		}
		return result
	}

	timeout, err := tc.ParseTimeout(e.config.DefaultTimeout)
	if err != nil {
		result.Error = fmt.Errorf("test timeout: %w", err)
		return result
	}

	testCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state := NewExecutionState(testCtx)
	for k, v := range e.config.Vars {
		state.Set(k, v)
	}

	if e.config.Setup != nil {
		if err := e.config.Setup(testCtx, tc, state); err != nil {
			result.Error = fmt.Errorf("setup failed: %w", err)
			return result
		}
	}
	if e.config.Teardown != nil {
		defer e.config.Teardown(tc, state)
	}

	for i := range tc.Steps {
		step := &tc.Steps[i]
		stepResult := e.executeStep(testCtx, step, i, state)
		result.StepResults = append(result.StepResults, stepResult)

		if !stepResult.Passed {
			result.Error = fmt.Errorf("step %d (%s): %w", i+1, step.Action, stepResult.Error)
			e.logger.Debug("step failed", "test", tc.ID, "step", i+1, "action", step.Action, "error", stepResult.Error)
			return result
		}
	}

	result.Passed = true
	return result
}

func (e *Engine) executeStep(ctx context.Context, step *loader.Step, index int, state *ExecutionState) *StepResult {
	result := &StepResult{
		Step:          step,
		StepIndex:     index,
		ExpectResults: make(map[string]*ExpectResult),
		Output:        make(map[string]any),
	}

	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	timeout, err := step.ParseTimeout(e.config.StepTimeout)
	if err != nil {
		result.Error = err
		return result
	}
	// wait steps get their own duration on top of the step timeout
	if d := stepDurationFromParams(step.Params); d > 0 {
		timeout += d
	}

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e.mu.RLock()
	handler, exists := e.handlers[step.Action]
	e.mu.RUnlock()

	if !exists {
		result.Error = fmt.Errorf("unknown action: %s", step.Action)
		return result
	}

	interpolated := *step
	interpolated.Params = InterpolateParams(step.Params, state)

	outputs, err := handler(stepCtx, &interpolated, state)
	if err != nil {
		result.Error = err
		return result
	}

	for k, v := range outputs {
		state.Set(k, v)
		result.Output[k] = v
	}
	state.Set(InternalStepOutput, result.Output)

	if step.SaveAs != "" {
		if v, ok := outputs[KeyValue]; ok {
			state.Set(step.SaveAs, v)
		}
	}

	result.Passed = true
	expect := InterpolateParams(step.Expect, state)
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var failures []error
	for _, key := range keys {
		er := e.checkExpectation(key, expect[key], state)
		result.ExpectResults[key] = er
		if !er.Passed {
			result.Passed = false
			failures = append(failures, fmt.Errorf("%s: %s", key, er.Message))
		}
	}
	if len(failures) > 0 {
		result.Error = fmt.Errorf("expectation failed: %w", errors.Join(failures...))
	}
	return result
}

func (e *Engine) checkExpectation(key string, expected any, state *ExecutionState) *ExpectResult {
	e.mu.RLock()
	checker, exists := e.checkers[key]
	if !exists {
		checker = e.checkers[CheckerNameDefault]
	}
	e.mu.RUnlock()

	return checker(key, expected, state)
}

// RunSuite executes scenarios in order.
func (e *Engine) RunSuite(ctx context.Context, cases []*loader.TestCase) *SuiteResult {
	result := &SuiteResult{SuiteName: "linectl"}

	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	suiteTimeout := e.config.SuiteTimeout
	if suiteTimeout == 0 {
		for _, tc := range cases {
			d, err := tc.ParseTimeout(e.config.DefaultTimeout)
			if err != nil {
				d = e.config.DefaultTimeout
			}
			suiteTimeout += d
		}
		suiteTimeout += time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, suiteTimeout)
	defer cancel()

	for _, tc := range cases {
		if ctx.Err() != nil {
			return result
		}

		testResult := e.Run(ctx, tc)
		result.Results = append(result.Results, testResult)

		switch {
		case testResult.Skipped:
			result.SkipCount++
		case testResult.Passed:
			result.PassCount++
		default:
			result.FailCount++
		}

		if e.config.OnTestComplete != nil {
			e.config.OnTestComplete(testResult)
		}

		if !testResult.Passed && !testResult.Skipped && e.config.StopOnFirstFailure {
			break
		}
	}

	return result
}

// stepDurationFromParams extracts an explicit wait duration from
// duration_seconds or duration_ms, whichever is longer.
func stepDurationFromParams(params map[string]any) time.Duration {
	var d time.Duration
	if v, ok := params["duration_seconds"]; ok {
		if f, ok := wire.ToFloat64(v); ok {
			d = time.Duration(f * float64(time.Second))
		}
	}
	if v, ok := params["duration_ms"]; ok {
		if f, ok := wire.ToFloat64(v); ok {
			if md := time.Duration(f * float64(time.Millisecond)); md > d {
				d = md
			}
		}
	}
	return d
}

// StepDuration is the wait duration a step asks for.
func StepDuration(step *loader.Step) time.Duration {
	return stepDurationFromParams(step.Params)
}
