// Package runner executes scenarios against a linectl device.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/linectl/linectl-go/internal/testharness/engine"
	"github.com/linectl/linectl-go/internal/testharness/loader"
	"github.com/linectl/linectl-go/internal/testharness/reporter"
	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/log"
	"github.com/linectl/linectl-go/pkg/transport"
)

// ErrNoCases is returned by Run when the filters select nothing.
var ErrNoCases = errors.New("no test cases found")

// stateKeyDevice holds the open *catalog.Device in ExecutionState.Custom.
const stateKeyDevice = "device"

// DialFunc opens the device for one scenario.
type DialFunc func(ctx context.Context) (*catalog.Device, error)

// Config configures the runner.
type Config struct {
	// Target is the device endpoint (host:port, tcp://, ws://, serial://).
	Target string

	// DeviceID identifies the device in handles and protocol logs.
	DeviceID uint64

	// Transport configures each connection. ProtocolLogger and DeviceID
	// are filled in by the runner.
	Transport transport.Config

	// TestDir is the scenario directory.
	TestDir string

	// Pattern filters scenarios by ID or name (comma-separated globs).
	Pattern string

	// Tags filters scenarios by tag; "!tag" excludes.
	Tags string

	// Timeout is the default scenario timeout.
	Timeout time.Duration

	// SuiteTimeout bounds the whole run (0 = derived).
	SuiteTimeout time.Duration

	StopOnFirstFailure bool

	// Vars seed scenario interpolation (see config.Expect.Vars).
	Vars map[string]any

	Verbose bool

	// Output is where results are written (default os.Stdout).
	Output io.Writer

	// OutputFormat is "text", "json", or "junit".
	OutputFormat string

	// ProtocolLogger receives wire events for every connection.
	ProtocolLogger log.Logger

	Logger *slog.Logger

	// Dial overrides how the device is opened.
	Dial DialFunc
}

// Runner executes scenarios, one fresh device connection per scenario.
type Runner struct {
	config   *Config
	engine   *engine.Engine
	reporter reporter.Reporter
	logger   *slog.Logger
}

// New creates a runner.
func New(config *Config) (*Runner, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rep, err := reporter.New(config.OutputFormat, config.Output, config.Verbose)
	if err != nil {
		return nil, err
	}

	engineConfig := engine.DefaultConfig()
	if config.Timeout > 0 {
		engineConfig.DefaultTimeout = config.Timeout
	}
	engineConfig.SuiteTimeout = config.SuiteTimeout
	engineConfig.StopOnFirstFailure = config.StopOnFirstFailure
	engineConfig.Vars = config.Vars
	engineConfig.Logger = logger

	r := &Runner{
		config:   config,
		engine:   engine.NewWithConfig(engineConfig),
		reporter: rep,
		logger:   logger,
	}

	engineConfig.Setup = r.setupTest
	engineConfig.Teardown = r.teardownTest
	engineConfig.OnTestComplete = func(result *engine.TestResult) {
		r.logger.Info("test complete", "id", result.TestCase.ID, "passed", result.Passed,
			"skipped", result.Skipped, "duration", result.Duration.Round(time.Millisecond))
	}

	r.registerHandlers()
	return r, nil
}

// Engine exposes the underlying engine.
func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Run loads, filters and executes the scenarios in TestDir, then reports.
func (r *Runner) Run(ctx context.Context) (*engine.SuiteResult, error) {
	cases, err := loader.LoadDirectory(r.config.TestDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load tests: %w", err)
	}
	cases = loader.FilterByPattern(cases, r.config.Pattern)
	cases = loader.FilterByTags(cases, r.config.Tags)
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w matching filters (pattern=%q, tags=%q)", ErrNoCases, r.config.Pattern, r.config.Tags)
	}

	result := r.RunCases(ctx, cases)
	r.reporter.ReportSuite(result)
	return result, nil
}

// RunCases executes cases without reporting.
func (r *Runner) RunCases(ctx context.Context, cases []*loader.TestCase) *engine.SuiteResult {
	result := r.engine.RunSuite(ctx, cases)
	result.SuiteName = fmt.Sprintf("linectl (%s)", r.config.Target)
	return result
}

func (r *Runner) dial(ctx context.Context) (*catalog.Device, error) {
	if r.config.Dial != nil {
		return r.config.Dial(ctx)
	}
	tc := r.config.Transport
	tc.Logger = r.config.ProtocolLogger
	return catalog.Open(ctx, r.config.DeviceID, r.config.Target, tc)
}

func (r *Runner) setupTest(ctx context.Context, tc *loader.TestCase, state *engine.ExecutionState) error {
	dev, err := r.dial(ctx)
	if err != nil {
		return fmt.Errorf("open device %s: %w", r.config.Target, err)
	}
	state.Custom[stateKeyDevice] = dev
	r.logger.Debug("device opened", "test", tc.ID, "target", r.config.Target)
	return nil
}

func (r *Runner) teardownTest(tc *loader.TestCase, state *engine.ExecutionState) {
	if dev, ok := state.Custom[stateKeyDevice].(*catalog.Device); ok {
		if err := dev.Close(); err != nil {
			r.logger.Warn("close device", "test", tc.ID, "error", err)
		}
		delete(state.Custom, stateKeyDevice)
	}
}

func deviceFrom(state *engine.ExecutionState) (*catalog.Device, error) {
	dev, ok := state.Custom[stateKeyDevice].(*catalog.Device)
	if !ok {
		return nil, errors.New("no open device")
	}
	return dev, nil
}
