package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

// stream is the byte pipe under a Conn.
type stream interface {
	io.ReadWriteCloser

	// setReadTimeout applies to the next Read. d <= 0 means block.
	setReadTimeout(d time.Duration) error

	// setWriteTimeout applies to the next Write. d <= 0 means block.
	setWriteTimeout(d time.Duration) error

	remoteAddr() string
}

// netStream adapts a net.Conn.
type netStream struct {
	net.Conn
}

func (s netStream) setReadTimeout(d time.Duration) error {
	if d <= 0 {
		return s.SetReadDeadline(time.Time{})
	}
	return s.SetReadDeadline(time.Now().Add(d))
}

func (s netStream) setWriteTimeout(d time.Duration) error {
	if d <= 0 {
		return s.SetWriteDeadline(time.Time{})
	}
	return s.SetWriteDeadline(time.Now().Add(d))
}

func (s netStream) remoteAddr() string {
	if a := s.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// classify maps stream errors onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return ErrTimeout
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, os.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, ErrClosed):
		return ErrClosed
	}
	return err
}
