package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/linectl/linectl-go/pkg/log"
)

// ConnectionState is the lifecycle state of a Conn.
type ConnectionState int32

const (
	StateOpen ConnectionState = iota
	StateClosed
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Conn is one line-oriented connection to a device.
//
// Send and ReceiveLine are not meant to be interleaved by several
// goroutines; callers that share a Conn serialise request/response pairs
// themselves (see RoundTrip).
type Conn struct {
	cfg    Config
	s      stream
	reader *lineReader
	id     string
	remote string

	state     atomic.Int32
	closeOnce sync.Once
	mu        sync.Mutex
}

// Dial connects to endpoint. See the package documentation for the
// accepted endpoint forms.
func Dial(ctx context.Context, endpoint string, cfg Config) (*Conn, error) {
	cfg = cfg.withDefaults()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	s, err := dialStream(ctx, endpoint)
	if err != nil {
		cfg.Logger.Log(log.Event{
			Timestamp: time.Now(),
			Layer:     log.LayerTransport,
			Category:  log.CategoryError,
			DeviceID:  cfg.DeviceID,
			Error: &log.ErrorEventData{
				Layer:   log.LayerTransport,
				Message: err.Error(),
				Context: "dial " + endpoint,
			},
		})
		return nil, err
	}
	return newConn(s, cfg), nil
}

// NewConn wraps an established net.Conn, e.g. one end of net.Pipe.
func NewConn(nc net.Conn, cfg Config) *Conn {
	return newConn(netStream{nc}, cfg.withDefaults())
}

func newConn(s stream, cfg Config) *Conn {
	c := &Conn{
		cfg:    cfg,
		s:      s,
		reader: newLineReader(s, cfg.ChunkSize, cfg.MaxLineSize, cfg.ReadTimeout),
		id:     uuid.New().String(),
		remote: s.remoteAddr(),
	}
	c.logState("", StateOpen.String(), "")
	return c
}

func dialStream(ctx context.Context, endpoint string) (stream, error) {
	if !strings.Contains(endpoint, "://") {
		return dialTCP(ctx, endpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEndpoint, err)
	}
	switch u.Scheme {
	case "tcp":
		return dialTCP(ctx, u.Host)
	case "serial":
		return openSerial(u)
	case "ws", "wss":
		return dialWebSocket(ctx, endpoint)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadEndpoint, u.Scheme)
	}
}

func dialTCP(ctx context.Context, address string) (stream, error) {
	address, err := withDefaultPort(address)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return netStream{nc}, nil
}

// withDefaultPort adds DefaultPort to a bare host.
func withDefaultPort(address string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("%w: empty address", ErrBadEndpoint)
	}
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address, nil
	}
	host := strings.Trim(address, "[]")
	return net.JoinHostPort(host, strconv.Itoa(DefaultPort)), nil
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer endpoint as a string.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// State returns the current connection state.
func (c *Conn) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Send writes data as one line, appending '\n' when absent.
func (c *Conn) Send(data []byte) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	line := terminate(data)
	if err := c.s.setWriteTimeout(c.cfg.WriteTimeout); err != nil {
		return fmt.Errorf("send: %w", classify(err))
	}
	if _, err := c.s.Write(line); err != nil {
		err = classify(err)
		c.logError("send line", err)
		return fmt.Errorf("send: %w", err)
	}
	c.logLine(log.DirectionOut, line[:len(line)-1])
	return nil
}

// ReceiveLine blocks until a full line arrives and returns it without
// newline characters. It fails with ErrTimeout when a chunk read exceeds
// the read timeout and with ErrClosed when the peer goes away.
func (c *Conn) ReceiveLine() (string, error) {
	return c.receiveLine(time.Time{})
}

func (c *Conn) receiveLine(deadline time.Time) (string, error) {
	if c.State() == StateClosed {
		return "", ErrClosed
	}
	line, err := c.reader.readLine(deadline)
	if err != nil {
		c.logError("receive line", err)
		return "", fmt.Errorf("receive: %w", err)
	}
	c.logLine(log.DirectionIn, line)
	return string(line), nil
}

// RoundTrip sends one line and waits for the reply line. Concurrent
// callers are serialised.
func (c *Conn) RoundTrip(data []byte) (string, error) {
	return c.RoundTripContext(context.Background(), data)
}

// RoundTripContext is RoundTrip bounded by the earlier of the read timeout
// and the deadline of ctx. A context that is already done fails before
// anything is sent; cancellation does not interrupt a pending read.
func (c *Conn) RoundTripContext(ctx context.Context, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.Send(data); err != nil {
		return "", err
	}
	deadline, _ := ctx.Deadline()
	return c.receiveLine(deadline)
}

// Close writes the farewell line and releases the stream. It always
// returns nil; later calls do nothing.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		if c.reader.buffered() > 0 {
			c.logError("close", fmt.Errorf("%d unread bytes discarded", c.reader.buffered()))
		}
		_ = c.s.setWriteTimeout(time.Second)
		if _, err := c.s.Write(terminate([]byte(c.cfg.FarewellMessage))); err == nil {
			c.logFarewell()
		}
		c.state.Store(int32(StateClosed))
		_ = c.s.Close()
		c.logState(StateOpen.String(), StateClosed.String(), "local close")
	})
	return nil
}

func (c *Conn) event(dir log.Direction, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     cat,
		LocalRole:    log.RoleHarness,
		RemoteAddr:   c.remote,
		DeviceID:     c.cfg.DeviceID,
	}
}

func (c *Conn) logLine(dir log.Direction, line []byte) {
	ev := c.event(dir, log.CategoryMessage)
	ev.Line = log.NewLineEvent(line)
	c.cfg.Logger.Log(ev)
}

func (c *Conn) logFarewell() {
	ev := c.event(log.DirectionOut, log.CategoryControl)
	ev.Line = log.NewLineEvent([]byte(c.cfg.FarewellMessage))
	c.cfg.Logger.Log(ev)
}

func (c *Conn) logState(oldState, newState, reason string) {
	ev := c.event(log.DirectionOut, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{
		Entity:   log.StateEntityConnection,
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	c.cfg.Logger.Log(ev)
}

func (c *Conn) logError(op string, err error) {
	ev := c.event(log.DirectionIn, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:   log.LayerTransport,
		Message: err.Error(),
		Context: op,
	}
	c.cfg.Logger.Log(ev)
}
