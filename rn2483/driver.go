package rn2483

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"i4.energy/across/loragw/rn"
)

// State tracks where the driver is in the module's lifecycle. The physical
// module's join state is mirrored here explicitly so that usage errors
// (transmitting before joining) are caught without any I/O.
type State int

const (
	StateUninitialized State = iota
	StateConfigured
	StateJoining
	StateJoined
	StateTransmitting
	StateJoinFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateTransmitting:
		return "transmitting"
	case StateJoinFailed:
		return "join failed"
	}
	return "unknown"
}

// Driver turns the serial link to an RN2483 LoRaWAN module into a reliable
// command/response protocol and exposes the two operations an application
// needs: joining the network (InitializeOTAA) and transmitting payloads
// (Send).
//
// The model is single-threaded, synchronous and blocking: each operation
// runs to completion on the calling goroutine, and only one command is ever
// in flight (the protocol is half-duplex). The driver provides no internal
// locking; callers needing concurrent access must serialize externally, for
// example through a single owning goroutine. The Transport and Credentials
// are exclusively owned by the driver for its lifetime.
type Driver struct {
	// transport is the byte stream to the module
	transport Transport
	// config holds collaborators and tuning values
	config Config
	// log receives debug-level command traces
	log *slog.Logger
	// state mirrors the module's lifecycle; atomic because observers may
	// read it from outside the goroutine that owns the driver
	state atomic.Int32
	// hwEUI is the module's hardware EUI, read during init
	hwEUI string
	// closed indicates the driver has been shut down
	closed bool
}

// New connects to the module, pulses the reset line if one was supplied and
// polls until the module answers, leaving the driver in the Configured
// state. It returns an error if the transport cannot be established or the
// module never becomes ready within InitTimeout.
func New(ctx context.Context, config Config) (*Driver, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	d := &Driver{
		transport: transport,
		config:    config,
		log:       config.Logger,
	}

	initCtx, cancel := context.WithTimeout(ctx, config.InitTimeout)
	defer cancel()

	if err := d.init(initCtx); err != nil {
		transport.Close()
		return nil, fmt.Errorf("initialize module: %w", err)
	}

	return d, nil
}

// init resets the module and polls until it answers its hardware EUI.
// Right after a reset the firmware reports invalid_param until it is up.
func (d *Driver) init(ctx context.Context) error {
	if d.config.Reset != nil {
		d.log.Debug("pulsing reset line")
		if err := d.config.Reset.Pulse(); err != nil {
			return fmt.Errorf("reset module: %w", err)
		}
	}
	d.refreshWatchdog()

	for {
		out := d.execute(ctx, rn.KindQuery, rn.CmdSysGetHWEUI, d.config.CmdTimeout)
		d.refreshWatchdog()

		switch out.Kind {
		case rn.OutcomeOk:
			d.hwEUI = strings.ToLower(out.Payload)
			d.setState(StateConfigured)
			d.log.Debug("module ready", "hweui", d.hwEUI)
			return nil
		case rn.OutcomeUnrecognized:
			if out.Err != nil {
				return fmt.Errorf("%w: %v", ErrNotResponding, out.Err)
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotResponding, ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// HardwareEUI returns the module's hardware EUI as read during init.
func (d *Driver) HardwareEUI() string {
	return d.hwEUI
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
}

// Version queries the module's firmware version string.
func (d *Driver) Version(ctx context.Context) (string, error) {
	if d.closed {
		return "", ErrAlreadyClosed
	}
	cmd := rn.CmdSysGetVer
	out := d.execute(ctx, rn.KindQuery, cmd, d.config.CmdTimeout)
	d.refreshWatchdog()
	switch out.Kind {
	case rn.OutcomeOk:
		return out.Payload, nil
	case rn.OutcomeTimeout:
		return "", fmt.Errorf("command %q: %w", cmd, ErrReadTimeout)
	case rn.OutcomeKnownError:
		return "", fmt.Errorf("command %q: module answered %s", cmd, out.Code)
	}
	return "", outcomeErr(cmd, out)
}

// Sleep puts the module to sleep for the given duration. The module accepts
// 100 ms up to 2^32 ms and sends no immediate response; it answers "ok" only
// when it wakes up again.
func (d *Driver) Sleep(length time.Duration) error {
	if d.closed {
		return ErrAlreadyClosed
	}
	ms := length.Milliseconds()
	if ms < 100 || ms > 1<<32 {
		return fmt.Errorf("%w: %v", ErrInvalidSleepLength, length)
	}
	cmd := fmt.Sprintf("%s %d", rn.CmdSysSleep, ms)
	d.log.Debug("command", "cmd", cmd)
	if _, err := d.transport.Write([]byte(cmd + rn.CRLF)); err != nil {
		return &IOError{Cmd: cmd, Err: err}
	}
	d.refreshWatchdog()
	return nil
}

// Close shuts down the driver and releases the transport. After Close the
// driver cannot be reused.
func (d *Driver) Close() error {
	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true
	if d.transport != nil {
		return d.transport.Close()
	}
	return nil
}

// execute writes one command and reads response lines until the classifier
// produces a terminal outcome or the timeout budget is spent. It never
// retries; retry policy belongs to the join and transmit sequences.
func (d *Driver) execute(ctx context.Context, kind rn.Kind, text string, timeout time.Duration) rn.Outcome {
	d.log.Debug("command", "cmd", text)
	if _, err := d.transport.Write([]byte(text + rn.CRLF)); err != nil {
		return rn.Outcome{Kind: rn.OutcomeUnrecognized, Err: fmt.Errorf("write command %q: %w", text, err)}
	}
	return d.awaitLine(ctx, kind, timeout)
}

// awaitLine reads lines within a single timeout budget, discarding stray
// empty lines, until one classifies as a terminal outcome. It is also used
// on its own to wait for the asynchronous second line of join and transmit.
func (d *Driver) awaitLine(ctx context.Context, kind rn.Kind, timeout time.Duration) rn.Outcome {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return rn.Outcome{Kind: rn.OutcomeTimeout, Err: err}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return rn.Outcome{Kind: rn.OutcomeTimeout}
		}

		line, err := d.transport.ReadLine(remaining)
		if errors.Is(err, ErrReadTimeout) {
			return rn.Outcome{Kind: rn.OutcomeTimeout}
		}
		if err != nil {
			return rn.Outcome{Kind: rn.OutcomeUnrecognized, Err: fmt.Errorf("read response: %w", err)}
		}
		if strings.TrimSpace(line) == "" {
			// Stray terminator before the real response.
			continue
		}

		out := rn.Classify(kind, line)
		d.log.Debug("response", "line", line)
		return out
	}
}

// refreshWatchdog is invoked after each command round trip, the only safe
// points during the multi-second join and transmit sequences.
func (d *Driver) refreshWatchdog() {
	if d.config.Watchdog != nil {
		d.config.Watchdog.Refresh()
	}
}
