// Package transport carries newline-terminated lines between the harness
// and a device.
//
// One Conn owns one blocking byte stream. Every request is written as a
// single line and every reply is read back as a single line; there is no
// other framing and no multiplexing.
//
// # Endpoints
//
//	host:port              TCP (port defaults to 9090)
//	tcp://host:port        TCP
//	serial:///dev/ttyUSB0  serial port, ?baud=115200 (default 115200)
//	ws://host:port/path    websocket, one text frame per line
//	wss://host/path        websocket over TLS
//
// # Closing
//
// Close writes the literal farewell line "closing" before releasing the
// stream. Devices use it to tear down their session. Write failures during
// Close are ignored.
//
// # Server
//
// Server is the accepting side used by the simulator. It reads one line,
// passes it to a LineHandler and writes the reply line back. A session
// ends on the farewell line, on EOF, or when the server stops.
package transport
