// Package device turns request/response lines into typed calls.
//
// A Registry maps response type tags to constructors and materializes
// decoded responses into Go values. A Command describes one device
// command and performs exactly one round trip per call. A Handle owns the
// connection those calls travel over.
//
// Responses whose tag is unknown, or whose data does not fit the
// registered shape, are not errors: Materialize returns the raw
// *wire.Response envelope instead so callers can assert on it. Every
// other failure (transport, parse, primitive conversion) propagates.
package device
