package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/linectl/linectl-go/pkg/log"
)

func TestFormatLineEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Line:         log.NewLineEvent([]byte(`{"cmd_id": 3, "args": [], "kwargs": {}}`)),
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[conn:abc12345]",
		"OUT",
		"HARNESS",
		"TRANSPORT Line",
		`"cmd_id": 3`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatMessageEvents(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := exchange(ts, "conn-1", 4, "get_tm", "Version", 1500*time.Microsecond)

	var buf bytes.Buffer
	for _, e := range events {
		formatEvent(&buf, e)
	}
	output := buf.String()

	if !strings.Contains(output, "CmdID: 4 (get_tm)") {
		t.Errorf("expected request cmd id, got: %s", output)
	}
	if !strings.Contains(output, `Payload: {"args":["temperature"]}`) {
		t.Errorf("expected payload, got: %s", output)
	}
	if !strings.Contains(output, "Type: Version") {
		t.Errorf("expected response type tag, got: %s", output)
	}
	if !strings.Contains(output, "Duration: 1.500ms") {
		t.Errorf("expected round trip, got: %s", output)
	}
	if !strings.Contains(output, "Device: 0x12") {
		t.Errorf("expected device id, got: %s", output)
	}
}

func TestFormatDegradedResponse(t *testing.T) {
	event := log.Event{
		Layer:    log.LayerWire,
		Category: log.CategoryMessage,
		Message:  &log.MessageEvent{Type: log.MessageTypeResponse, TypeTag: "consumption", Degraded: true},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	if !strings.Contains(buf.String(), "Type: consumption (unresolved)") {
		t.Errorf("expected degraded marker, got: %s", buf.String())
	}
}

func TestFormatControlAndState(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{Layer: log.LayerTransport, Category: log.CategoryControl, Direction: log.DirectionIn})
	formatEvent(&buf, log.Event{
		Layer:    log.LayerDevice,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "OPEN",
			NewState: "CLOSED",
			Reason:   "farewell",
		},
	})
	formatEvent(&buf, log.Event{
		Layer:    log.LayerWire,
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Layer: log.LayerWire, Message: "bad json", Context: "decode response"},
	})
	output := buf.String()

	for _, want := range []string{"CTRL Farewell", "OPEN -> CLOSED", "Reason: farewell", "Message: bad json", "Context: decode response"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestShortenConnID(t *testing.T) {
	if got := shortenConnID("abcdefghij"); got != "abcdefgh" {
		t.Errorf("got %q", got)
	}
	if got := shortenConnID("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("WIRE"); err != nil || l != log.LayerWire {
		t.Errorf("ParseLayerFlag(WIRE) = %v, %v", l, err)
	}
	if l, err := ParseLayerFlag("device"); err != nil || l != log.LayerDevice {
		t.Errorf("ParseLayerFlag(device) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("service"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("in"); err != nil || d != log.DirectionIn {
		t.Errorf("ParseDirectionFlag(in) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
	if c, err := ParseCategoryFlag("Control"); err != nil || c != log.CategoryControl {
		t.Errorf("ParseCategoryFlag(Control) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("snapshot"); err == nil {
		t.Error("expected error for unknown category")
	}
	if r, err := ParseRoleFlag("sim"); err != nil || r != log.RoleSimulator {
		t.Errorf("ParseRoleFlag(sim) = %v, %v", r, err)
	}
}

func TestRunViewFiltersByDirection(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, exchange(ts, "conn-1", 1, "reset", "ResultCode", time.Millisecond))

	in := log.DirectionIn
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Direction: &in}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "REQUEST") {
		t.Errorf("expected requests filtered out, got: %s", output)
	}
	if !strings.Contains(output, "RESPONSE") {
		t.Errorf("expected response, got: %s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	if err := RunView("/nonexistent/file.llog", ViewFilter{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
}
