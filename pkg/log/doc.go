// Package log provides protocol capture for linectl connections.
//
// This package defines the Logger interface and Event types for recording
// every line exchanged with a device, the decoded request/response pairs
// built from those lines, and connection lifecycle changes. It is separate
// from operational logging (slog): protocol capture is a complete
// machine-readable trace for post-mortem analysis of a test run.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For CI runs: write to binary file
//	cfg.Logger, _ = log.NewFileLogger("run.llog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw line bytes (LineEvent)
//   - Wire: decoded requests and responses (MessageEvent)
//   - Device: handle lifecycle (StateChangeEvent)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .llog extension.
// The linectl-log tool views and filters them.
package log
