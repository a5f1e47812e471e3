// Package cli implements the linectl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/linectl/linectl-go/internal/config"
	"github.com/linectl/linectl-go/pkg/catalog"
	linelog "github.com/linectl/linectl-go/pkg/log"
)

// Version is reported by --version.
var Version = "dev"

// app holds the persistent flags of one command tree.
type app struct {
	configFile  string
	endpoint    string
	deviceID    string
	timeout     time.Duration
	protocolLog string
	jsonOut     bool

	// dev is the shell's shared connection; nil outside the shell.
	dev *catalog.Device
}

// NewRootCmd builds the linectl command tree.
func NewRootCmd() *cobra.Command {
	return (&app{timeout: 5 * time.Second}).rootCmd()
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "linectl",
		Short: "linectl device controller",
		Long: `linectl - send commands to a device speaking the line-delimited JSON protocol.

The endpoint is taken from --endpoint, then LINECTL_ENDPOINT, then the
config file, then localhost:9090.

Endpoints:
  TCP:       host:port or tcp://host:port
  WebSocket: ws://host/path or wss://host/path
  Serial:    serial:///dev/ttyUSB0?baud=115200`,
		Version:      Version,
		SilenceUsage: true,
	}

	// Defaults come from the current values so that the shell can rebuild
	// the tree without losing flags given on the command line.
	pf := root.PersistentFlags()
	pf.StringVarP(&a.endpoint, "endpoint", "e", a.endpoint, "Device endpoint")
	pf.StringVar(&a.deviceID, "id", a.deviceID, "Device id (decimal or 0x hex)")
	pf.StringVarP(&a.configFile, "config", "c", a.configFile, "Harness config file (YAML)")
	pf.DurationVarP(&a.timeout, "timeout", "t", a.timeout, "Per-command timeout")
	pf.StringVar(&a.protocolLog, "protocol-log", a.protocolLog, "File path for protocol event logging (CBOR format)")
	pf.BoolVar(&a.jsonOut, "json", a.jsonOut, "Print results as JSON")

	root.AddCommand(
		a.getTMCmd(),
		a.setBusCmd(),
		a.setSerialCmd(),
		a.setTimeCmd(),
		a.resetCmd(),
		a.callCmd(),
		a.commandsCmd(),
		a.discoverCmd(),
		a.shellCmd(),
	)
	return root
}

// loadConfig layers the config file, environment and flags.
func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.configFile != "" {
		var err error
		if cfg, err = config.Load(a.configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if a.endpoint != "" {
		cfg.Device.Endpoint = a.endpoint
	}
	if a.deviceID != "" {
		id, err := strconv.ParseUint(a.deviceID, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --id %q: %w", a.deviceID, err)
		}
		cfg.Device.ID = config.DeviceID(id)
	}
	if a.protocolLog != "" {
		cfg.Log.ProtocolLog = a.protocolLog
	}
	return cfg, cfg.Validate()
}

// open returns the device to talk to and a release function.
func (a *app) open(ctx context.Context) (*catalog.Device, func(), error) {
	if a.dev != nil {
		return a.dev, func() {}, nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	tc := cfg.Transport()
	var fl *linelog.FileLogger
	if cfg.Log.ProtocolLog != "" {
		if fl, err = linelog.NewFileLogger(cfg.Log.ProtocolLog); err != nil {
			return nil, nil, fmt.Errorf("failed to create protocol logger: %w", err)
		}
		tc.Logger = fl
	}

	dev, err := catalog.Open(ctx, uint64(cfg.Device.ID), cfg.Device.Endpoint, tc)
	if err != nil {
		if fl != nil {
			fl.Close()
		}
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.Device.Endpoint, err)
	}
	return dev, func() {
		dev.Close()
		if fl != nil {
			fl.Close()
		}
	}, nil
}

// do opens the device, runs fn with the command timeout and prints the
// result. A failing ResultCode is returned as an error.
func (a *app) do(cmd *cobra.Command, fn func(ctx context.Context, dev *catalog.Device) (any, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	dev, release, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	v, err := fn(ctx, dev)
	if err != nil {
		return err
	}
	return a.print(cmd.OutOrStdout(), v)
}

func (a *app) print(w io.Writer, v any) error {
	if a.jsonOut {
		if err := writeJSON(w, v); err != nil {
			return err
		}
	} else {
		writeText(w, v)
	}
	if rc, ok := v.(catalog.ResultCode); ok && !rc.IsSuccess() {
		return fmt.Errorf("device answered %s", rc)
	}
	return nil
}
