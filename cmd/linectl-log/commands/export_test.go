package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	path := createTestLogFile(t, exchange(ts, "abc12345", 42, "get_tm", "TmId", time.Millisecond))

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := RunExport(path, "jsonl", outPath, nil); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("failed to parse line 1: %v", err)
	}
	if event["ConnectionID"] != "abc12345" {
		t.Errorf("expected ConnectionID abc12345, got %v", event["ConnectionID"])
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	path := createTestLogFile(t, exchange(ts, "abc12345", 7, "set_serial", "ResultCode", 2*time.Millisecond))

	var buf bytes.Buffer
	if err := RunExport(path, "csv", "", &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0][:3], ",") != "timestamp,connection_id,role" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	req, resp := rows[1], rows[2]
	if req[8] != "7" || req[9] != "set_serial" {
		t.Errorf("unexpected request row: %v", req)
	}
	if resp[10] != "ResultCode" || resp[11] != "2000" {
		t.Errorf("unexpected response row: %v", resp)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)
	err := RunExport(path, "xml", "", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}
