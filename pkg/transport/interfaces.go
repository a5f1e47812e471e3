package transport

import (
	"context"
	"net"
)

// LineConn is a client-side line connection.
// Implemented by Conn.
type LineConn interface {
	// ID returns the connection identifier.
	ID() string

	// Send writes one line.
	Send(data []byte) error

	// ReceiveLine reads one line.
	ReceiveLine() (string, error)

	// RoundTrip sends one line and reads the reply.
	RoundTrip(data []byte) (string, error)

	// RoundTripContext is RoundTrip with the reply wait capped by the
	// deadline of ctx.
	RoundTripContext(ctx context.Context, data []byte) (string, error)

	// Close writes the farewell line and releases the connection.
	Close() error
}

// LineServer accepts line connections.
// Implemented by Server.
type LineServer interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
	ConnectionCount() int
}

var (
	_ LineConn   = (*Conn)(nil)
	_ LineServer = (*Server)(nil)
	_ stream     = netStream{}
	_ stream     = (*serialStream)(nil)
	_ stream     = (*wsStream)(nil)
)
