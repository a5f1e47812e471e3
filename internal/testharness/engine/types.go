// Package engine runs scenario steps and checks their expectations.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/linectl/linectl-go/internal/testharness/loader"
)

// TestResult represents the outcome of a single scenario.
type TestResult struct {
	// TestCase is the scenario that was executed.
	TestCase *loader.TestCase

	// Passed indicates if all steps passed.
	Passed bool

	// Error is the error that caused failure, if any.
	Error error

	// StepResults contains results for each executed step.
	StepResults []*StepResult

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time

	// Skipped indicates the scenario was not run.
	Skipped bool

	// SkipReason explains why the scenario was skipped.
	SkipReason string
}

// StepResult represents the outcome of a single step.
type StepResult struct {
	Step *loader.Step

	// StepIndex is the index of this step (0-based).
	StepIndex int

	Passed bool
	Error  error

	// ExpectResults maps checker names to their results.
	ExpectResults map[string]*ExpectResult

	Duration time.Duration

	// Output contains the values the action produced.
	Output map[string]any
}

// ExpectResult represents the result of checking one expectation.
type ExpectResult struct {
	Key      string
	Expected any
	Actual   any
	Passed   bool
	Message  string
}

// SuiteResult represents the outcome of running a set of scenarios.
type SuiteResult struct {
	SuiteName string
	Results   []*TestResult
	PassCount int
	FailCount int
	SkipCount int
	Duration  time.Duration
}

// ActionHandler processes a step action. The returned outputs are merged
// into the execution state for later steps and checkers.
type ActionHandler func(ctx context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error)

// ExpectChecker checks an expectation against the execution state.
type ExpectChecker func(key string, expected any, state *ExecutionState) *ExpectResult

// ExecutionState holds state during one scenario.
type ExecutionState struct {
	// Outputs accumulated from previous steps and seeded variables.
	Outputs map[string]any

	// Context for cancellation.
	Context context.Context

	// Custom state that handlers can use (e.g. the open device).
	Custom map[string]any
}

// NewExecutionState creates a new execution state.
func NewExecutionState(ctx context.Context) *ExecutionState {
	return &ExecutionState{
		Outputs: make(map[string]any),
		Custom:  make(map[string]any),
		Context: ctx,
	}
}

// Get retrieves a value from outputs. A "{{ path }}" key is resolved as a
// variable reference.
func (s *ExecutionState) Get(key string) (any, bool) {
	if m := variablePattern.FindStringSubmatch(key); m != nil && m[0] == key {
		return s.lookup(m[1])
	}
	v, ok := s.Outputs[key]
	return v, ok
}

// Set stores a value in outputs.
func (s *ExecutionState) Set(key string, value any) {
	s.Outputs[key] = value
}

// EngineConfig configures the engine.
type EngineConfig struct {
	// DefaultTimeout bounds a scenario without its own timeout.
	DefaultTimeout time.Duration

	// StepTimeout bounds a step without its own timeout.
	StepTimeout time.Duration

	// SuiteTimeout bounds RunSuite. Zero derives it from the scenarios.
	SuiteTimeout time.Duration

	// StopOnFirstFailure stops RunSuite after the first failed scenario.
	StopOnFirstFailure bool

	// Vars seed every scenario's state for {{ var }} interpolation.
	Vars map[string]any

	// Setup runs before the first step; an error fails the scenario.
	Setup func(ctx context.Context, tc *loader.TestCase, state *ExecutionState) error

	// Teardown runs after the last step, also on failure.
	Teardown func(tc *loader.TestCase, state *ExecutionState)

	// OnTestComplete is called after each scenario in RunSuite.
	OnTestComplete func(*TestResult)

	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *EngineConfig {
	return &EngineConfig{
		DefaultTimeout: 30 * time.Second,
		StepTimeout:    10 * time.Second,
	}
}
