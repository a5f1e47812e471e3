package transport

import (
	"errors"
	"time"

	"github.com/linectl/linectl-go/pkg/log"
)

// Transport defaults.
const (
	// DefaultPort is the device's TCP port.
	DefaultPort = 9090

	// DefaultReadTimeout bounds each chunk read.
	DefaultReadTimeout = 3 * time.Second

	// DefaultConnectTimeout bounds Dial when the context has no deadline.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultChunkSize is the size of one read from the stream.
	DefaultChunkSize = 2048

	// DefaultMaxLineSize caps the receive buffer.
	DefaultMaxLineSize = 1 << 20

	// DefaultBaudRate applies to serial:// endpoints without ?baud=.
	DefaultBaudRate = 115200

	// FarewellMessage is written by Close and ends a server session.
	FarewellMessage = "closing"
)

// Transport errors.
var (
	// ErrTimeout indicates no complete line arrived within the read timeout.
	ErrTimeout = errors.New("transport timeout")

	// ErrClosed indicates the peer closed the stream or Close was called.
	ErrClosed = errors.New("transport closed")

	// ErrLineTooLong indicates the buffered data exceeded MaxLineSize
	// without a newline.
	ErrLineTooLong = errors.New("line too long")

	// ErrBadEndpoint indicates an endpoint string that cannot be dialed.
	ErrBadEndpoint = errors.New("bad endpoint")
)

// Config configures a Conn.
type Config struct {
	// ReadTimeout bounds each chunk read (default: 3s). Negative disables.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write (0 = no timeout).
	WriteTimeout time.Duration

	// ConnectTimeout bounds Dial when ctx has no deadline (default: 5s).
	ConnectTimeout time.Duration

	// ChunkSize is the number of bytes requested per read (default: 2048).
	ChunkSize int

	// MaxLineSize caps one line (default: 1 MiB).
	MaxLineSize int

	// FarewellMessage overrides the line written by Close. Empty means
	// the package default.
	FarewellMessage string

	// Logger receives line and state events (optional).
	Logger log.Logger

	// DeviceID is stamped on captured events (optional).
	DeviceID string
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:     DefaultReadTimeout,
		ConnectTimeout:  DefaultConnectTimeout,
		ChunkSize:       DefaultChunkSize,
		MaxLineSize:     DefaultMaxLineSize,
		FarewellMessage: FarewellMessage,
	}
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = DefaultMaxLineSize
	}
	if c.FarewellMessage == "" {
		c.FarewellMessage = FarewellMessage
	}
	c.Logger = log.OrNoop(c.Logger)
	return c
}
