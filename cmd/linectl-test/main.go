// Command linectl-test runs YAML scenarios against a linectl device.
//
// Usage:
//
//	linectl-test [flags] [test-pattern]
//
// Flags:
//
//	-config string        Path to the harness config (YAML)
//	-target string        Device endpoint (host:port, ws://, serial://); overrides the config
//	-id string            Device id (decimal or 0x hex); overrides the config
//	-tests string         Path to scenario directory (default "./testdata/scenarios")
//	-tags string          Comma-separated tags to run; "!tag" excludes
//	-timeout duration     Default scenario timeout (default 30s)
//	-stop-on-failure      Stop after the first failing scenario
//	-verbose              Enable verbose output
//	-json                 Output results as JSON
//	-junit                Output results as JUnit XML
//	-protocol-log string  File path for protocol event logging (CBOR format)
//
// Exit status is 0 when every scenario passed, 1 when one failed, and 2
// on configuration errors.
//
// Examples:
//
//	# Run every scenario against the default endpoint
//	linectl-test -config linectl.yaml
//
//	# Run the bus scenarios with verbose output
//	linectl-test -target 10.0.0.7:9090 -verbose "TC-BUS-*"
//
//	# Skip destructive scenarios
//	linectl-test -tags '!reset'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/linectl/linectl-go/internal/config"
	"github.com/linectl/linectl-go/internal/testharness/runner"
	linelog "github.com/linectl/linectl-go/pkg/log"
)

var (
	configFile    = flag.String("config", "", "Path to the harness config (YAML)")
	target        = flag.String("target", "", "Device endpoint; overrides the config")
	deviceID      = flag.String("id", "", "Device id (decimal or 0x hex); overrides the config")
	tests         = flag.String("tests", "./testdata/scenarios", "Path to scenario directory")
	tags          = flag.String("tags", "", "Comma-separated tags to run; \"!tag\" excludes")
	timeout       = flag.Duration("timeout", 30*time.Second, "Default scenario timeout")
	stopOnFailure = flag.Bool("stop-on-failure", false, "Stop after the first failing scenario")
	verbose       = flag.Bool("verbose", false, "Enable verbose output")
	jsonOut       = flag.Bool("json", false, "Output results as JSON")
	junitOut      = flag.Bool("junit", false, "Output results as JUnit XML")
	protocolLog   = flag.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	pattern := ""
	if flag.NArg() > 0 {
		pattern = flag.Arg(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	outputFormat := "text"
	if *jsonOut {
		outputFormat = "json"
	} else if *junitOut {
		outputFormat = "junit"
	}

	level, _ := cfg.Log.SlogLevel()
	if *verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if outputFormat == "text" {
		log.SetFlags(log.Ltime)
		if *verbose {
			log.SetFlags(log.Ltime | log.Lmicroseconds)
		}
		printBanner()
		log.Printf("Target: %s (device 0x%x)", cfg.Device.Endpoint, uint64(cfg.Device.ID))
		log.Printf("Scenarios: %s", *tests)
		if pattern != "" {
			log.Printf("Pattern: %s", pattern)
		}
		if *tags != "" {
			log.Printf("Tags: %s", *tags)
		}
		log.Println()
	}

	var protocolLogger *linelog.FileLogger
	if cfg.Log.ProtocolLog != "" {
		protocolLogger, err = linelog.NewFileLogger(cfg.Log.ProtocolLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create protocol logger: %v\n", err)
			return 2
		}
		defer protocolLogger.Close()
		if outputFormat == "text" {
			log.Printf("Protocol logging to: %s", cfg.Log.ProtocolLog)
		}
	}

	rc := &runner.Config{
		Target:             cfg.Device.Endpoint,
		DeviceID:           uint64(cfg.Device.ID),
		Transport:          cfg.Transport(),
		TestDir:            *tests,
		Pattern:            pattern,
		Tags:               *tags,
		Timeout:            *timeout,
		StopOnFirstFailure: *stopOnFailure,
		Vars:               cfg.Expect.Vars(),
		Verbose:            *verbose,
		Output:             os.Stdout,
		OutputFormat:       outputFormat,
		Logger:             logger,
	}
	// Only set the logger when non-nil to avoid a typed-nil interface.
	if protocolLogger != nil {
		rc.ProtocolLogger = protocolLogger
	}

	r, err := runner.New(rc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := r.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, runner.ErrNoCases) {
			return 2
		}
		return 1
	}
	if result.FailCount > 0 {
		return 1
	}
	return 0
}

// loadConfig layers the config file, environment and flags, in that order.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	if *target != "" {
		cfg.Device.Endpoint = *target
	}
	if *deviceID != "" {
		id, err := strconv.ParseUint(*deviceID, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -id %q: %w", *deviceID, err)
		}
		cfg.Device.ID = config.DeviceID(id)
	}
	if *protocolLog != "" {
		cfg.Log.ProtocolLog = *protocolLog
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printBanner() {
	fmt.Print(`
 _ _            _   _       _            _
| (_)_ __   ___| |_| |_ ___| |_ ___  ___| |_
| | | '_ \ / _ \ __| __/ _ \ __/ _ \/ __| __|
| | | | | |  __/ || ||  __/ ||  __/\__ \ |_
|_|_|_| |_|\___|\__|\__\___|\__\___||___/\__|

Device Scenario Runner
`)
}
