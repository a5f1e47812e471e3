package log

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &captureLogger{}, &captureLogger{}
	m := NewMultiLogger(a, nil, b)
	m.Log(Event{ConnectionID: "x"})
	m.Log(Event{ConnectionID: "y"})

	if len(a.events) != 2 || len(b.events) != 2 {
		t.Errorf("got %d and %d events, want 2 each", len(a.events), len(b.events))
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	c := &captureLogger{}
	if OrNoop(c) != Logger(c) {
		t.Error("OrNoop should pass through non-nil logger")
	}
}

func TestSlogAdapterWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a := NewSlogAdapter(logger)

	cmdID := uint64(3806007876)
	a.Log(Event{
		ConnectionID: "conn-9",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		DeviceID:     "0x1",
		Message:      &MessageEvent{Type: MessageTypeRequest, CmdID: &cmdID, Command: "reset"},
	})
	a.Log(Event{
		ConnectionID: "conn-9",
		Layer:        LayerTransport,
		Category:     CategoryError,
		Error:        &ErrorEventData{Layer: LayerTransport, Message: "timeout", Context: "receive line"},
	})

	out := buf.String()
	for _, want := range []string{"conn_id=conn-9", "command=reset", "cmd_id=3806007876", "device_id=0x1", "error_msg=timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogAdapterNilUsesDefault(t *testing.T) {
	if NewSlogAdapter(nil).logger == nil {
		t.Error("expected default logger")
	}
}
