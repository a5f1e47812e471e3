package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/device"
)

func (a *app) getTMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-tm <item>... | all",
		Short: "Read telemetry items",
		Long: `Read one or more telemetry items by name or numeric id.

Items: active_bus, temperature, consumption, version, serial,
current_time, operating_time. "all" reads every item.`,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: append(tmNames(), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseTmIDs(args)
			if err != nil {
				return err
			}
			if len(items) == 1 {
				return a.do(cmd, func(ctx context.Context, dev *catalog.Device) (any, error) {
					return dev.GetTM(ctx, items[0])
				})
			}

			return a.do(cmd, func(ctx context.Context, dev *catalog.Device) (any, error) {
				nv := namedValues{values: make(map[string]any, len(items))}
				for _, tm := range items {
					v, err := dev.GetTM(ctx, tm)
					if err != nil {
						return nil, err
					}
					nv.order = append(nv.order, tm.String())
					nv.values[tm.String()] = v
				}
				return nv, nil
			})
		},
	}
}

func tmNames() []string {
	names := make([]string, 0, len(catalog.Telemetry()))
	for _, tm := range catalog.Telemetry() {
		names = append(names, tm.String())
	}
	return names
}

func parseTmIDs(args []string) ([]catalog.TmID, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		return catalog.Telemetry(), nil
	}
	out := make([]catalog.TmID, 0, len(args))
	for _, arg := range args {
		tm, err := catalog.ParseTmID(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, tm)
	}
	return out, nil
}

func (a *app) setBusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set-bus <main|reserve>",
		Short:     "Select the active bus",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"main", "reserve"},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Unknown numbers are sent as-is so that the device's own
			// validation can be observed.
			var bus catalog.ActiveBus
			if n, err := strconv.ParseInt(args[0], 0, 64); err == nil {
				bus = catalog.ActiveBus(n)
			} else if bus, err = catalog.ParseActiveBus(args[0]); err != nil {
				return err
			}
			return a.do(cmd, func(ctx context.Context, dev *catalog.Device) (any, error) {
				return dev.SetActiveBus(ctx, bus)
			})
		},
	}
}

func (a *app) setSerialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-serial <serial>",
		Short: "Write the serial number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd, func(ctx context.Context, dev *catalog.Device) (any, error) {
				return dev.SetSerial(ctx, args[0])
			})
		},
	}
}

func (a *app) setTimeCmd() *cobra.Command {
	var offset time.Duration
	cmd := &cobra.Command{
		Use:   "set-time [unix-seconds]",
		Short: "Set the device clock",
		Long: `Set the device clock to the given number of seconds since the epoch,
or to the local time plus --offset when no value is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var t any = float64(time.Now().Add(offset).UnixNano()) / float64(time.Second)
			if len(args) == 1 {
				if n, err := strconv.ParseInt(args[0], 10, 64); err == nil {
					t = n
				} else if f, err := strconv.ParseFloat(args[0], 64); err == nil {
					t = f
				} else {
					return fmt.Errorf("invalid time %q", args[0])
				}
			}
			return a.do(cmd, func(ctx context.Context, dev *catalog.Device) (any, error) {
				return dev.SetTime(ctx, t)
			})
		},
	}
	cmd.Flags().DurationVar(&offset, "offset", 0, "Offset added to the local time")
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restart the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd, func(ctx context.Context, dev *catalog.Device) (any, error) {
				return dev.Reset(ctx)
			})
		},
	}
}

func (a *app) callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <command|cmd-id> [arg|name=value]...",
		Short: "Send an arbitrary command",
		Long: `Send a command by name or numeric id. Arguments are parsed as YAML
scalars; name=value arguments are sent as keyword arguments.

Examples:
  linectl call get_tm temperature
  linectl call 0x6315111b 1
  linectl call set_serial serial=SN-1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveCommand(args[0])
			if err != nil {
				return err
			}
			pos, kw, err := parseCallArgs(c, args[1:])
			if err != nil {
				return err
			}
			return a.do(cmd, func(ctx context.Context, dev *catalog.Device) (any, error) {
				return dev.Call(ctx, c, pos, kw)
			})
		},
	}
}

// resolveCommand finds a catalog descriptor, or builds one for a bare id.
func resolveCommand(s string) (device.Command, error) {
	if id, err := catalog.ParseCmdID(s); err == nil {
		for _, c := range catalog.Commands() {
			if c.ID == uint64(id) {
				return c, nil
			}
		}
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return device.Command{}, fmt.Errorf("unknown command %q", s)
	}
	return device.Command{Name: fmt.Sprintf("0x%x", n), ArgType: "any", ID: n, ReturnType: "any"}, nil
}

// parseCallArgs splits positional and keyword arguments. Telemetry and
// bus names are resolved for get_tm and set_active_bus.
func parseCallArgs(c device.Command, args []string) ([]any, map[string]any, error) {
	pos := []any{}
	kw := map[string]any{}
	for _, arg := range args {
		name, value, isKw := strings.Cut(arg, "=")
		if !isKw || name == "" {
			value = arg
		}
		v, err := scalar(c, value)
		if err != nil {
			return nil, nil, err
		}
		if isKw && name != "" {
			kw[name] = v
		} else {
			pos = append(pos, v)
		}
	}
	return pos, kw, nil
}

func scalar(c device.Command, s string) (any, error) {
	if _, err := strconv.ParseInt(s, 0, 64); err != nil {
		switch c.ID {
		case catalog.GetTM.ID:
			if tm, err := catalog.ParseTmID(s); err == nil {
				return int64(tm), nil
			}
		case catalog.SetActiveBus.ID:
			if bus, err := catalog.ParseActiveBus(s); err == nil {
				return int64(bus), nil
			}
		}
	}

	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("invalid argument %q: %w", s, err)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case nil:
		if s == "" {
			return "", nil
		}
	}
	return v, nil
}

func (a *app) commandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the command catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tSIGNATURE")
			for _, c := range catalog.Commands() {
				fmt.Fprintf(tw, "%s\t0x%x\t%s\n", c.Name, c.ID, c)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "TELEMETRY\tID")
			for _, tm := range catalog.Telemetry() {
				fmt.Fprintf(tw, "%s\t0x%x\n", tm, int64(tm))
			}
			return tw.Flush()
		},
	}
}
