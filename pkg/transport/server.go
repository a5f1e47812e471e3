package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/linectl/linectl-go/pkg/log"
)

// LineHandler produces the reply for one request line. An empty reply
// writes nothing.
type LineHandler func(ctx context.Context, line string) string

// ServerConfig configures a line server.
type ServerConfig struct {
	// Address to listen on (e.g., ":9090" or "127.0.0.1:0").
	Address string

	// IdleTimeout closes a session with no traffic (0 = never).
	IdleTimeout time.Duration

	// MaxLineSize is the largest accepted request line (default: 1 MiB).
	MaxLineSize int

	// Handler answers request lines. Required.
	Handler LineHandler

	// Logger for protocol capture (optional).
	Logger log.Logger

	// OnConnect is called when a session starts.
	OnConnect func(id, remote string)

	// OnDisconnect is called when a session ends.
	OnDisconnect func(id, remote string)
}

// Server accepts TCP connections and answers request lines.
type Server struct {
	config   ServerConfig
	listener net.Listener

	conns   map[*session]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a line server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxLineSize <= 0 {
		config.MaxLineSize = DefaultMaxLineSize
	}
	config.Logger = log.OrNoop(config.Logger)

	return &Server{
		config: config,
		conns:  make(map[*session]struct{}),
	}, nil
}

// Start listens and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and every session, then waits for them.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()
	s.listener.Close()

	s.connsMu.Lock()
	for sess := range s.conns {
		sess.stream.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Done returns a channel closed once the server stops, either through
// Stop or through cancellation of the context given to Start. It is nil
// before Start.
func (s *Server) Done() <-chan struct{} {
	if s.ctx == nil {
		return nil
	}
	return s.ctx.Done()
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of live sessions.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		nc, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.config.Logger.Log(log.Event{
					Timestamp: time.Now(),
					Layer:     log.LayerTransport,
					Category:  log.CategoryError,
					LocalRole: log.RoleSimulator,
					Error: &log.ErrorEventData{
						Layer:   log.LayerTransport,
						Message: err.Error(),
						Context: "accept",
					},
				})
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(nc)
	}
}

func (s *Server) handleConnection(nc net.Conn) {
	defer s.wg.Done()

	sess := &session{
		stream:      netStream{nc},
		id:          uuid.New().String(),
		handler:     s.config.Handler,
		logger:      s.config.Logger,
		idleTimeout: s.config.IdleTimeout,
		maxLine:     s.config.MaxLineSize,
	}
	remote := nc.RemoteAddr().String()

	s.connsMu.Lock()
	s.conns[sess] = struct{}{}
	s.connsMu.Unlock()

	if s.config.OnConnect != nil {
		s.config.OnConnect(sess.id, remote)
	}

	sess.serve(s.ctx)
	nc.Close()

	s.connsMu.Lock()
	delete(s.conns, sess)
	s.connsMu.Unlock()

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sess.id, remote)
	}
}

// session is the server side of one connection.
type session struct {
	stream      stream
	id          string
	handler     LineHandler
	logger      log.Logger
	idleTimeout time.Duration
	maxLine     int
}

func (s *session) serve(ctx context.Context) {
	if s.maxLine <= 0 {
		s.maxLine = DefaultMaxLineSize
	}
	remote := s.stream.remoteAddr()
	s.logState("", "CONNECTED", "")

	reader := newLineReader(s.stream, DefaultChunkSize, s.maxLine, s.idleTimeout)
	reason := "peer closed"
	for ctx.Err() == nil {
		line, err := reader.readLine(time.Time{})
		if err != nil {
			if !errors.Is(err, ErrClosed) {
				reason = err.Error()
			}
			break
		}

		text := string(line)
		if text == FarewellMessage {
			s.logLine(log.DirectionIn, log.CategoryControl, line)
			reason = "farewell"
			break
		}
		s.logLine(log.DirectionIn, log.CategoryMessage, line)

		reply := s.handler(ctx, text)
		if reply == "" {
			continue
		}
		out := terminate([]byte(reply))
		if _, err := s.stream.Write(out); err != nil {
			reason = classify(err).Error()
			break
		}
		s.logLine(log.DirectionOut, log.CategoryMessage, out[:len(out)-1])
	}
	if ctx.Err() != nil {
		reason = "server stopped"
	}

	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		LocalRole:    log.RoleSimulator,
		RemoteAddr:   remote,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "CONNECTED",
			NewState: "DISCONNECTED",
			Reason:   reason,
		},
	})
}

func (s *session) logState(oldState, newState, reason string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		LocalRole:    log.RoleSimulator,
		RemoteAddr:   s.stream.remoteAddr(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (s *session) logLine(dir log.Direction, cat log.Category, line []byte) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     cat,
		LocalRole:    log.RoleSimulator,
		RemoteAddr:   s.stream.remoteAddr(),
		Line:         log.NewLineEvent(line),
	})
}
