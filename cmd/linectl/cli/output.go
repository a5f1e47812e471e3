package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/linectl/linectl-go/internal/testharness/engine"
	"github.com/linectl/linectl-go/internal/testharness/runner"
	"github.com/linectl/linectl-go/pkg/device"
	"github.com/linectl/linectl-go/pkg/wire"
)

// namedValues is the result of a multi-item get-tm.
type namedValues struct {
	order  []string
	values map[string]any
}

// describe drops the Go value and keeps the printable outputs.
func describe(v any) map[string]any {
	d := runner.Describe(v)
	delete(d, engine.KeyRaw)
	for k, val := range d {
		d[k] = wire.Plain(val)
	}
	return d
}

func writeJSON(w io.Writer, v any) error {
	var doc any
	if nv, ok := v.(namedValues); ok {
		m := make(map[string]any, len(nv.values))
		for name, val := range nv.values {
			m[name] = describe(val)
		}
		doc = m
	} else {
		doc = describe(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeText(w io.Writer, v any) {
	if nv, ok := v.(namedValues); ok {
		for _, name := range nv.order {
			fmt.Fprintf(w, "%s = ", name)
			writeText(w, nv.values[name])
		}
		return
	}

	d := describe(v)
	label := fmt.Sprint(d[engine.KeyType])
	if env, _ := d[engine.KeyEnvelope].(bool); env {
		label += " (unresolved)"
	}

	if text, ok := d["text"].(string); ok {
		fmt.Fprintf(w, "%s: %s\n", label, text)
		return
	}
	if fields, ok := d[engine.KeyFields].(map[string]any); ok {
		fmt.Fprintf(w, "%s:\n", label)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, device.FormatValue(fields[k]))
		}
		return
	}
	fmt.Fprintf(w, "%s: %s\n", label, device.FormatValue(d[engine.KeyValue]))
}
