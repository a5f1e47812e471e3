package transport

import (
	"bytes"
	"fmt"
	"time"
)

// lineReader accumulates chunks from a stream until the buffer holds a
// newline. Bytes after the first newline stay buffered for the next call.
type lineReader struct {
	s         stream
	buf       []byte
	chunk     []byte
	maxLine   int
	chunkWait time.Duration
}

func newLineReader(s stream, chunkSize, maxLine int, chunkWait time.Duration) *lineReader {
	return &lineReader{
		s:         s,
		chunk:     make([]byte, chunkSize),
		maxLine:   maxLine,
		chunkWait: chunkWait,
	}
}

// readLine returns the next line without its terminator. Any '\r' or '\n'
// left inside the line is removed. A non-zero deadline caps every chunk
// wait.
func (r *lineReader) readLine(deadline time.Time) ([]byte, error) {
	for {
		if i := bytes.IndexByte(r.buf, '\n'); i >= 0 {
			line := stripNewlines(r.buf[:i])
			r.buf = r.buf[i+1:]
			return line, nil
		}
		if len(r.buf) > r.maxLine {
			r.buf = nil
			return nil, fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, r.maxLine)
		}

		wait, err := r.wait(deadline)
		if err != nil {
			return nil, err
		}
		if err := r.s.setReadTimeout(wait); err != nil {
			return nil, classify(err)
		}
		n, err := r.s.Read(r.chunk)
		if n > 0 {
			r.buf = append(r.buf, r.chunk[:n]...)
			continue
		}
		if err != nil {
			return nil, classify(err)
		}
	}
}

// wait returns the timeout for the next chunk read.
func (r *lineReader) wait(deadline time.Time) (time.Duration, error) {
	if deadline.IsZero() {
		return r.chunkWait, nil
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0, ErrTimeout
	}
	if r.chunkWait <= 0 || left < r.chunkWait {
		return left, nil
	}
	return r.chunkWait, nil
}

// buffered reports how many unread bytes are held.
func (r *lineReader) buffered() int {
	return len(r.buf)
}

func stripNewlines(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c != '\r' && c != '\n' {
			out = append(out, c)
		}
	}
	return out
}

// terminate appends '\n' when data does not already end with one.
func terminate(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\n' {
		return data
	}
	out := make([]byte, len(data)+1)
	copy(out, data)
	out[len(data)] = '\n'
	return out
}
