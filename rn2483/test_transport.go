package rn2483

import (
	"strings"
	"time"
)

// TestTransport is a scripted in-memory transport for driver tests. The
// driver is synchronous, so a flat FIFO of response lines is enough: every
// ReadLine pops the next queued line, and an empty queue behaves like a
// silent module (ErrReadTimeout). Writes are recorded for assertions.
// Exported for use in tests.
type TestTransport struct {
	writes []string
	lines  []string
	closed bool
}

// NewTestTransport creates a new test transport for testing.
func NewTestTransport() *TestTransport {
	return &TestTransport{}
}

// QueueLines appends response lines to be returned by subsequent ReadLine
// calls, in order. An empty string emulates a stray line terminator.
func (t *TestTransport) QueueLines(lines ...string) {
	t.lines = append(t.lines, lines...)
}

// Writes returns the commands written so far, with trailing CRLF trimmed.
func (t *TestTransport) Writes() []string {
	return t.writes
}

// Closed reports whether the driver has closed the transport.
func (t *TestTransport) Closed() bool {
	return t.closed
}

func (t *TestTransport) Write(p []byte) (int, error) {
	if t.closed {
		return 0, ErrAlreadyClosed
	}
	t.writes = append(t.writes, strings.TrimSuffix(string(p), "\r\n"))
	return len(p), nil
}

func (t *TestTransport) ReadLine(timeout time.Duration) (string, error) {
	if t.closed {
		return "", ErrAlreadyClosed
	}
	if len(t.lines) == 0 {
		return "", ErrReadTimeout
	}
	line := t.lines[0]
	t.lines = t.lines[1:]
	return line, nil
}

func (t *TestTransport) Close() error {
	t.closed = true
	return nil
}
