package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/linectl/linectl-go/pkg/log"
)

// wsStream carries lines as websocket text frames. Reads return frame
// payloads followed by a synthetic newline so the line reader sees the
// same byte stream as on TCP.
type wsStream struct {
	conn    *websocket.Conn
	pending []byte
}

func dialWebSocket(ctx context.Context, endpoint string) (*wsStream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultConnectTimeout,
		TLSClientConfig:  &tls.Config{MinVersion: tls.VersionTLS12},
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsStream{conn: conn}, nil
}

func (s *wsStream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, ErrClosed
			}
			return 0, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.pending = append(data, '\n')
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Write sends each complete line as one text frame.
func (s *wsStream) Write(p []byte) (int, error) {
	for _, line := range bytes.SplitAfter(p, []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *wsStream) setReadTimeout(d time.Duration) error {
	if d <= 0 {
		return s.conn.SetReadDeadline(time.Time{})
	}
	return s.conn.SetReadDeadline(time.Now().Add(d))
}

func (s *wsStream) setWriteTimeout(d time.Duration) error {
	if d <= 0 {
		return s.conn.SetWriteDeadline(time.Time{})
	}
	return s.conn.SetWriteDeadline(time.Now().Add(d))
}

func (s *wsStream) remoteAddr() string {
	return s.conn.RemoteAddr().String()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  DefaultChunkSize,
	WriteBufferSize: DefaultChunkSize,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WebSocketHandler serves handler over websocket, one text frame per line.
// A nil logger disables protocol capture.
func WebSocketHandler(handler LineHandler, logger log.Logger) http.Handler {
	logger = log.OrNoop(logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		sess := &session{
			stream:  &wsStream{conn: ws},
			id:      uuid.New().String(),
			handler: handler,
			logger:  logger,
		}
		sess.serve(r.Context())
		ws.Close()
	})
}
