package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/linectl/linectl-go/pkg/log"
	"github.com/linectl/linectl-go/pkg/transport"
	"github.com/linectl/linectl-go/pkg/wire"
)

// Handle is one device connection. At most one request is outstanding at
// a time; concurrent callers queue on an internal mutex.
type Handle struct {
	id       uint64
	conn     transport.LineConn
	registry *Registry
	logger   log.Logger

	mu     sync.Mutex
	closed bool
}

// Open dials endpoint and returns a handle for device id.
func Open(ctx context.Context, id uint64, endpoint string, cfg transport.Config, registry *Registry) (*Handle, error) {
	if cfg.DeviceID == "" {
		cfg.DeviceID = FormatID(id)
	}
	conn, err := transport.Dial(ctx, endpoint, cfg)
	if err != nil {
		return nil, fmt.Errorf("open device %s: %w", FormatID(id), err)
	}
	slog.Debug("device handle opened", "device_id", FormatID(id), "endpoint", endpoint, "conn_id", conn.ID())
	return NewHandle(id, conn, registry, cfg.Logger), nil
}

// NewHandle wraps an existing connection. A nil registry gets the
// built-in aliases only.
func NewHandle(id uint64, conn transport.LineConn, registry *Registry, logger log.Logger) *Handle {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Handle{
		id:       id,
		conn:     conn,
		registry: registry,
		logger:   log.OrNoop(logger),
	}
}

// FormatID renders a device id the way captures and logs show it.
func FormatID(id uint64) string {
	return fmt.Sprintf("0x%x", id)
}

// ID returns the device id.
func (h *Handle) ID() uint64 {
	return h.id
}

// Registry returns the handle's type registry.
func (h *Handle) Registry() *Registry {
	return h.registry
}

// Do encodes req, sends it, and decodes the single reply line. The reply
// wait ends at the read timeout or the deadline of ctx, whichever is
// earlier.
func (h *Handle) Do(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := wire.Encode(req)
	if err != nil {
		return nil, err
	}

	command := CommandFromContext(ctx)
	h.logRequest(command, req)

	start := time.Now()
	line, err := h.conn.RoundTripContext(ctx, data)
	if err != nil {
		return nil, err
	}
	rt := time.Since(start)

	resp, err := wire.DecodeResponse([]byte(line))
	if err != nil {
		h.logError(command, err)
		return nil, err
	}
	h.logResponse(command, resp, rt)
	return resp, nil
}

// Close sends the farewell notice and releases the connection. It is
// idempotent and never fails.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	_ = h.conn.Close()
	h.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: h.conn.ID(),
		Layer:        log.LayerDevice,
		Category:     log.CategoryState,
		DeviceID:     FormatID(h.id),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityHandle,
			OldState: "OPEN",
			NewState: "CLOSED",
		},
	})
	return nil
}

func (h *Handle) event(dir log.Direction, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: h.conn.ID(),
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     cat,
		DeviceID:     FormatID(h.id),
	}
}

func (h *Handle) logRequest(command string, req *wire.Request) {
	id := req.CmdID
	ev := h.event(log.DirectionOut, log.CategoryMessage)
	ev.Message = &log.MessageEvent{
		Type:    log.MessageTypeRequest,
		CmdID:   &id,
		Command: command,
		Payload: map[string]any{
			wire.KeyArgs:   wire.Plain(req.Args),
			wire.KeyKwargs: wire.Plain(req.Kwargs),
		},
	}
	h.logger.Log(ev)
}

func (h *Handle) logResponse(command string, resp *wire.Response, rt time.Duration) {
	ev := h.event(log.DirectionIn, log.CategoryMessage)
	ev.Message = &log.MessageEvent{
		Type:      log.MessageTypeResponse,
		Command:   command,
		TypeTag:   resp.Type,
		Payload:   wire.Plain(resp.Data),
		Degraded:  h.registry.Degrades(resp),
		RoundTrip: &rt,
	}
	h.logger.Log(ev)
}

func (h *Handle) logError(command string, err error) {
	ev := h.event(log.DirectionIn, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:   log.LayerWire,
		Message: err.Error(),
		Context: "decode response to " + command,
	}
	h.logger.Log(ev)
}

var _ Caller = (*Handle)(nil)
