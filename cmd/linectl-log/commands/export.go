package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/linectl/linectl-go/pkg/log"
)

// Export formats.
const (
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

var csvHeader = []string{
	"timestamp", "connection_id", "role", "direction", "layer", "category",
	"device_id", "type", "cmd_id", "command", "type_tag", "round_trip_us",
}

// RunExport writes every event in path as JSON lines or CSV rows. An empty
// output writes to stdout.
func RunExport(path, format, output string, stdout io.Writer) error {
	if format != FormatJSONL && format != FormatCSV {
		return fmt.Errorf("unknown format %q (supported: %s, %s)", format, FormatJSONL, FormatCSV)
	}

	w := stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if format == FormatJSONL {
		enc := json.NewEncoder(w)
		return readEvents(path, log.Filter{}, func(ev log.Event) error {
			return enc.Encode(ev)
		})
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	err := readEvents(path, log.Filter{}, func(ev log.Event) error {
		return cw.Write(csvRow(ev))
	})
	cw.Flush()
	if err != nil {
		return err
	}
	return cw.Error()
}

func csvRow(ev log.Event) []string {
	var cmdID, command, tag, rtt string
	if m := ev.Message; m != nil {
		if m.CmdID != nil {
			cmdID = strconv.FormatUint(*m.CmdID, 10)
		}
		command, tag = m.Command, m.TypeTag
		if m.RoundTrip != nil {
			rtt = strconv.FormatInt(m.RoundTrip.Microseconds(), 10)
		}
	}
	return []string{
		ev.Timestamp.UTC().Format(timeLayout),
		ev.ConnectionID,
		ev.LocalRole.String(),
		ev.Direction.String(),
		ev.Layer.String(),
		ev.Category.String(),
		ev.DeviceID,
		eventLabel(ev),
		cmdID, command, tag, rtt,
	}
}
