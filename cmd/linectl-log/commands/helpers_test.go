package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/linectl/linectl-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+log.FileExtension)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func u64(v uint64) *uint64 { return &v }

func dur(d time.Duration) *time.Duration { return &d }

// exchange returns a request/response pair as recorded by the harness.
func exchange(ts time.Time, conn string, id uint64, cmd, tag string, rtt time.Duration) []log.Event {
	return []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: conn,
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			DeviceID:     "0x12",
			Message: &log.MessageEvent{
				Type:    log.MessageTypeRequest,
				CmdID:   u64(id),
				Command: cmd,
				Payload: map[string]any{"args": []any{"temperature"}},
			},
		},
		{
			Timestamp:    ts.Add(rtt),
			ConnectionID: conn,
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			DeviceID:     "0x12",
			Message: &log.MessageEvent{
				Type:      log.MessageTypeResponse,
				Command:   cmd,
				TypeTag:   tag,
				RoundTrip: dur(rtt),
			},
		},
	}
}
