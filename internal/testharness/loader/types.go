// Package loader reads YAML scenario files for the linectl harness.
package loader

import (
	"strconv"
	"time"
)

// TestCase is one scenario: a sequence of steps run against a single
// device connection.
type TestCase struct {
	// ID is the unique scenario identifier (e.g., "TC-BUS-001").
	ID string `yaml:"id"`

	// Name is a human-readable name for the scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Tags for selecting scenarios on the command line.
	Tags []string `yaml:"tags,omitempty"`

	// Skip disables the scenario; SkipReason is reported instead.
	Skip       bool   `yaml:"skip,omitempty"`
	SkipReason string `yaml:"skip_reason,omitempty"`

	// Timeout bounds the whole scenario (e.g., "30s").
	Timeout string `yaml:"timeout,omitempty"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// File is the path the scenario was loaded from.
	File string `yaml:"-"`
}

// Step is a single action in a scenario.
type Step struct {
	// Action names the handler to run (e.g., "get_tm", "set_active_bus").
	Action string `yaml:"action"`

	// Params are passed to the action after interpolation.
	Params map[string]any `yaml:"params,omitempty"`

	// Expect maps checker names to expected values.
	Expect map[string]any `yaml:"expect,omitempty"`

	// SaveAs stores the step's primary value under this name.
	SaveAs string `yaml:"save_as,omitempty"`

	// Timeout overrides the scenario timeout for this step.
	Timeout string `yaml:"timeout,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`

	// Line is the source line of the step, 0 when unknown.
	Line int `yaml:"-"`
}

// ParseTimeout returns the scenario timeout, or fallback when unset.
func (tc *TestCase) ParseTimeout(fallback time.Duration) (time.Duration, error) {
	return parseDuration(tc.Timeout, fallback)
}

// ParseTimeout returns the step timeout, or fallback when unset.
func (s *Step) ParseTimeout(fallback time.Duration) (time.Duration, error) {
	return parseDuration(s.Timeout, fallback)
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}

// LoadError provides details about a scenario loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	loc := e.File
	switch {
	case e.Line > 0 && loc != "":
		loc += ":" + strconv.Itoa(e.Line)
	case e.Line > 0:
		loc = "line " + strconv.Itoa(e.Line)
	}
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if loc == "" {
		return msg
	}
	return loc + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
