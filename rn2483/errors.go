package rn2483

import (
	"errors"
	"fmt"

	"i4.energy/across/loragw/rn"
)

var (
	// ErrNoDialer is returned when a Driver is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order
	// to establish a connection to the module.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a
	// Driver that has not been successfully initialized.
	ErrNotInitialized = errors.New("driver not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Driver that
	// has already been closed.
	ErrAlreadyClosed = errors.New("driver already closed")

	// ErrReadTimeout is returned by Transport.ReadLine when no complete
	// line arrived within the allotted time.
	ErrReadTimeout = errors.New("read timed out")

	// ErrNotResponding is returned when the module never answers the
	// readiness poll after a hardware reset.
	ErrNotResponding = errors.New("module not responding")

	// ErrInvalidAppEUI is returned when the application EUI is not exactly
	// 8 bytes of hexadecimal text.
	ErrInvalidAppEUI = errors.New("invalid application EUI")

	// ErrInvalidAppKey is returned when the application key is not exactly
	// 16 bytes of hexadecimal text.
	ErrInvalidAppKey = errors.New("invalid application key")

	// ErrInvalidSleepLength is returned when the requested sleep duration
	// is outside the range the module accepts.
	ErrInvalidSleepLength = errors.New("sleep length out of range")
)

// ProtocolError reports a response line outside the module's known token set
// for the command in flight. Unknown tokens are always surfaced, never
// treated as success.
type ProtocolError struct {
	Cmd  string
	Text string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("command %q: unrecognized response %q", e.Cmd, e.Text)
}

// IOError reports a transport-level fault during a command. The failed
// operation is over; the driver does not reopen the channel itself.
type IOError struct {
	Cmd string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Cmd, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// outcomeErr converts an unrecognized outcome into its typed error.
func outcomeErr(cmd string, o rn.Outcome) error {
	if o.Err != nil {
		return &IOError{Cmd: cmd, Err: o.Err}
	}
	return &ProtocolError{Cmd: cmd, Text: o.Text}
}

// describeOutcome renders an outcome for error messages.
func describeOutcome(o rn.Outcome) string {
	switch o.Kind {
	case rn.OutcomeKnownError:
		return "module answered " + o.Code
	case rn.OutcomeTimeout:
		if o.Err != nil {
			return fmt.Sprintf("timed out (%v)", o.Err)
		}
		return "timed out"
	case rn.OutcomeUnrecognized:
		if o.Err != nil {
			return o.Err.Error()
		}
		return fmt.Sprintf("unrecognized response %q", o.Text)
	}
	return "ok"
}
