package transport

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"go.bug.st/serial"
)

// serialStream adapts a serial port. go.bug.st/serial reports a read
// timeout as (0, nil); Read turns that into os.ErrDeadlineExceeded.
type serialStream struct {
	port serial.Port
	name string
}

func openSerial(u *url.URL) (*serialStream, error) {
	name := u.Path
	if name == "" {
		name = u.Opaque
	}
	if name == "" {
		return nil, fmt.Errorf("%w: serial endpoint needs a port path", ErrBadEndpoint)
	}

	baud := DefaultBaudRate
	if b := u.Query().Get("baud"); b != "" {
		n, err := strconv.Atoi(b)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: baud %q", ErrBadEndpoint, b)
		}
		baud = n
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return &serialStream{port: port, name: name}, nil
}

func (s *serialStream) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (s *serialStream) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialStream) Close() error {
	return s.port.Close()
}

func (s *serialStream) setReadTimeout(d time.Duration) error {
	if d <= 0 {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}
	return s.port.SetReadTimeout(d)
}

// Serial writes block until the driver accepts the bytes.
func (s *serialStream) setWriteTimeout(time.Duration) error {
	return nil
}

func (s *serialStream) remoteAddr() string {
	return "serial:" + s.name
}
