package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/linectl/linectl-go/pkg/log"
)

func TestRunFilterByConnection(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := append(
		exchange(ts, "conn-a", 1, "get_tm", "TmId", time.Millisecond),
		exchange(ts.Add(time.Second), "conn-b", 2, "reset", "ResultCode", time.Millisecond)...,
	)
	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered"+log.FileExtension)

	n, err := RunFilter(path, FilterOptions{Output: outPath, ConnID: "conn-b"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events written, got %d", n)
	}

	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer reader.Close()
	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, e := range got {
		if e.ConnectionID != "conn-b" {
			t.Errorf("unexpected connection %q in output", e.ConnectionID)
		}
	}
}

func TestRunFilterByTimeAndDirection(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := append(
		exchange(ts, "conn-a", 1, "get_tm", "TmId", time.Millisecond),
		exchange(ts.Add(time.Minute), "conn-a", 2, "get_tm", "TmId", time.Millisecond)...,
	)
	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered"+log.FileExtension)

	n, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: "2026-01-28T10:00:30Z",
		Direction: "out",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
}

func TestBuildFilterRejectsBadInput(t *testing.T) {
	cases := []FilterOptions{
		{TimeStart: "yesterday"},
		{TimeEnd: "tomorrow"},
		{Layer: "service"},
		{Direction: "up"},
		{Category: "snapshot"},
		{Role: "observer"},
	}
	for _, opts := range cases {
		if _, err := BuildFilter(opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}

func TestBuildFilterRole(t *testing.T) {
	f, err := BuildFilter(FilterOptions{Role: "simulator", DeviceID: "0x12"})
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if f.Role == nil || *f.Role != log.RoleSimulator {
		t.Errorf("expected simulator role, got %v", f.Role)
	}
	if f.DeviceID != "0x12" {
		t.Errorf("expected device id, got %q", f.DeviceID)
	}
}
