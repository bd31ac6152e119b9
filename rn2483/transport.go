package rn2483

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	"i4.energy/across/loragw/rn"
)

// Transport represents an established, bidirectional byte stream to the
// RN2483 module.
//
// A Transport is assumed to be already connected and ready for use. The
// module speaks a line-oriented protocol, so the read side is exposed as a
// bounded-time line read rather than a raw byte read. Typical implementations
// include serial ports or in-memory fakes used for testing.
type Transport interface {
	// Write sends raw bytes to the module.
	Write(p []byte) (n int, err error)
	// ReadLine returns the next CRLF-terminated line without its
	// terminator. It returns ErrReadTimeout if no complete line arrives
	// within the timeout.
	ReadLine(timeout time.Duration) (string, error)
	// Close releases the underlying connection.
	Close() error
}

// Dialer opens a Transport to the RN2483 module.
//
// Dialer abstracts how the connection is created (serial port, emulator,
// test double) and is intended to be used during driver construction only.
// Once a Transport is obtained, the Dialer is no longer needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may perform
	// blocking operations and should respect cancellation and deadlines
	// provided by the context.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens the module over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the path of the serial device (e.g. "/dev/ttyUSB0").
	PortName string
	// BaudRate defaults to 57600, the module's fixed rate after reset.
	BaudRate int
}

// Dial implements the Dialer interface.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("rn2483: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("rn2483: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baud := d.BaudRate
	if baud == 0 {
		baud = 57600
	}
	port, err := serial.Open(d.PortName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return &serialTransport{port: port}, nil
}

// serialTransport frames the raw serial byte stream into CRLF-terminated
// lines. go.bug.st/serial reports an expired read timeout as a zero-byte
// read, which is translated into ErrReadTimeout here.
type serialTransport struct {
	port serial.Port
	// pending holds bytes read past the last returned line
	pending []byte
}

func (t *serialTransport) Write(p []byte) (int, error) {
	return t.port.Write(p)
}

func (t *serialTransport) Close() error {
	return t.port.Close()
}

func (t *serialTransport) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 64)

	for {
		if line, ok := t.takeLine(); ok {
			return line, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", ErrReadTimeout
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("set read timeout: %w", err)
		}
		n, err := t.port.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", ErrReadTimeout
		}
		t.pending = append(t.pending, buf[:n]...)
	}
}

func (t *serialTransport) takeLine() (string, bool) {
	i := bytes.Index(t.pending, []byte(rn.CRLF))
	if i < 0 {
		return "", false
	}
	line := string(t.pending[:i])
	t.pending = t.pending[i+len(rn.CRLF):]
	return line, true
}
