// Package reporter renders scenario results as text, JSON or JUnit XML.
package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/linectl/linectl-go/internal/testharness/engine"
)

// Reporter formats and outputs scenario results.
type Reporter interface {
	// ReportSuite reports results for a whole run.
	ReportSuite(result *engine.SuiteResult)

	// ReportTest reports results for a single scenario.
	ReportTest(result *engine.TestResult)
}

// Formats lists the names accepted by New.
var Formats = []string{"text", "json", "junit"}

// New returns the reporter for format.
func New(format string, w io.Writer, verbose bool) (Reporter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextReporter(w, verbose), nil
	case "json":
		return NewJSONReporter(w, verbose), nil
	case "junit":
		return NewJUnitReporter(w), nil
	}
	return nil, fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

func status(result *engine.TestResult) string {
	switch {
	case result.Skipped:
		return "skipped"
	case result.Passed:
		return "passed"
	}
	return "failed"
}

func passRate(result *engine.SuiteResult) float64 {
	ran := result.PassCount + result.FailCount
	if ran == 0 {
		return 0
	}
	return float64(result.PassCount) / float64(ran) * 100
}

func sortedExpectKeys(m map[string]*engine.ExpectResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TextReporter outputs human-readable text reports.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{writer: w, verbose: verbose}
}

// ReportSuite reports every scenario followed by a summary.
func (r *TextReporter) ReportSuite(result *engine.SuiteResult) {
	fmt.Fprintf(r.writer, "\n=== Suite: %s ===\n\n", result.SuiteName)

	for _, tr := range result.Results {
		r.ReportTest(tr)
	}

	fmt.Fprintf(r.writer, "\n--- Summary ---\n")
	fmt.Fprintf(r.writer, "Total:   %d\n", len(result.Results))
	fmt.Fprintf(r.writer, "Passed:  %d\n", result.PassCount)
	fmt.Fprintf(r.writer, "Failed:  %d\n", result.FailCount)
	fmt.Fprintf(r.writer, "Skipped: %d\n", result.SkipCount)
	if result.PassCount+result.FailCount > 0 {
		fmt.Fprintf(r.writer, "Pass Rate: %.1f%%\n", passRate(result))
	}
	fmt.Fprintf(r.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
}

// ReportTest reports a single scenario.
func (r *TextReporter) ReportTest(result *engine.TestResult) {
	tc := result.TestCase

	fmt.Fprintf(r.writer, "[%s] %s - %s (%s)\n",
		strings.ToUpper(status(result)[:4]), tc.ID, tc.Name, result.Duration.Round(time.Millisecond))

	if result.Skipped && result.SkipReason != "" {
		fmt.Fprintf(r.writer, "       Skip reason: %s\n", result.SkipReason)
	}
	if !result.Passed && result.Error != nil {
		fmt.Fprintf(r.writer, "       Error: %v\n", result.Error)
	}

	if !r.verbose {
		return
	}
	for _, sr := range result.StepResults {
		stepStatus := "PASS"
		if !sr.Passed {
			stepStatus = "FAIL"
		}
		label := sr.Step.Action
		if sr.Step.Description != "" {
			label += ": " + sr.Step.Description
		}
		fmt.Fprintf(r.writer, "    [%s] Step %d %s (%s)\n",
			stepStatus, sr.StepIndex+1, label, sr.Duration.Round(time.Millisecond))

		if v, ok := sr.Output[engine.KeyValue]; ok {
			fmt.Fprintf(r.writer, "           value: %v\n", v)
		}
		for _, key := range sortedExpectKeys(sr.ExpectResults) {
			er := sr.ExpectResults[key]
			mark := "OK"
			if !er.Passed {
				mark = "FAILED"
			}
			fmt.Fprintf(r.writer, "           [%s] %s: %s\n", mark, key, er.Message)
		}
		if !sr.Passed && sr.Error != nil && len(sr.ExpectResults) == 0 {
			fmt.Fprintf(r.writer, "           Error: %v\n", sr.Error)
		}
	}
}
