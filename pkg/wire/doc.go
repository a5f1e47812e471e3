// Package wire defines the line-delimited JSON wire format spoken by
// linectl devices.
//
// Every exchange is one request line followed by one response line. Lines
// are UTF-8 JSON objects terminated by a single '\n'.
//
// # Request
//
//	{"cmd_id": 5668304814, "args": [1], "kwargs": {}}
//
// Keys are always emitted in the order cmd_id, args, kwargs. Argument
// values are passed through untouched; the device is trusted to reject
// bad input.
//
// # Response
//
//	{"type": "ActiveBus", "data": 1}
//	{"type": "Version", "data": {"major": 1, "minor": 2, "patch": 0, "build": 7}}
//
// The type tag names the shape that data should be materialized into.
// Resolution of the tag is left to the caller (see package device).
//
// # Numbers and objects
//
// Decoded numbers are int64 when integral and float64 otherwise. Decoded
// objects are *Dict values, which keep the key order of the wire payload.
package wire
