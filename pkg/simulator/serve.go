package simulator

import (
	"context"
	"net/http"

	"github.com/linectl/linectl-go/pkg/log"
	"github.com/linectl/linectl-go/pkg/transport"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	// Address to listen on (default ":9090").
	Address string

	// Logger receives protocol events (optional).
	Logger log.Logger

	// OnConnect and OnDisconnect observe sessions (optional).
	OnConnect    func(id, remote string)
	OnDisconnect func(id, remote string)
}

// Serve starts a TCP line server answering with s. Stop the returned
// server to shut it down; it also stops when ctx is cancelled.
func (s *Simulator) Serve(ctx context.Context, opts ServeOptions) (*transport.Server, error) {
	srv, err := transport.NewServer(transport.ServerConfig{
		Address:      opts.Address,
		Handler:      s.HandleLine,
		Logger:       opts.Logger,
		OnConnect:    s.onConnect(opts.OnConnect),
		OnDisconnect: s.onDisconnect(opts.OnDisconnect),
	})
	if err != nil {
		return nil, err
	}
	if err := srv.Start(ctx); err != nil {
		return nil, err
	}
	s.cfg.Logger.Info("simulator listening", "addr", srv.Addr().String())

	go func() {
		<-srv.Done()
		srv.Stop()
	}()
	return srv, nil
}

// WebSocketHandler serves s over websocket.
func (s *Simulator) WebSocketHandler(logger log.Logger) http.Handler {
	return transport.WebSocketHandler(s.HandleLine, logger)
}

func (s *Simulator) onConnect(next func(id, remote string)) func(id, remote string) {
	return func(id, remote string) {
		s.cfg.Logger.Info("simulator: client connected", "conn_id", id, "remote", remote)
		if next != nil {
			next(id, remote)
		}
	}
}

func (s *Simulator) onDisconnect(next func(id, remote string)) func(id, remote string) {
	return func(id, remote string) {
		s.cfg.Logger.Info("simulator: client disconnected", "conn_id", id, "remote", remote)
		if next != nil {
			next(id, remote)
		}
	}
}
