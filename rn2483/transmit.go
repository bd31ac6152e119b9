package rn2483

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"i4.energy/across/loragw/rn"
)

// TxErrorKind tells why a transmission failed.
type TxErrorKind int

const (
	// NotJoined means the driver is not in the Joined state, or the
	// module reported the session is gone. No I/O happens in the former
	// case.
	NotJoined TxErrorKind = iota
	// PayloadTooLarge means the payload exceeds MaxPayload. Checked
	// before any I/O.
	PayloadTooLarge
	// ChannelBusy means the duty-cycle limiter was still busy after the
	// configured number of retries.
	ChannelBusy
	// TxFailed means the module reported a terminal transmit error.
	TxFailed
	// TxTimeout means a transmit result never arrived in time. The
	// driver remains Joined; a failed transmit does not imply loss of
	// the network join.
	TxTimeout
)

func (k TxErrorKind) String() string {
	switch k {
	case NotJoined:
		return "not joined"
	case PayloadTooLarge:
		return "payload too large"
	case ChannelBusy:
		return "channel busy"
	case TxFailed:
		return "transmit failed"
	case TxTimeout:
		return "transmit timeout"
	}
	return "unknown"
}

// TxError reports a failed transmission.
type TxError struct {
	Kind    TxErrorKind
	Outcome rn.Outcome
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transmit failed (%s): %s", e.Kind, describeOutcome(e.Outcome))
}

func (e *TxError) Unwrap() error { return e.Outcome.Err }

// TxOutcome reports a completed uplink. Downlink carries the raw trailing
// data of the result line when the network sent any; it is surfaced as-is,
// not parsed further.
type TxOutcome struct {
	Downlink string
}

// Send transmits one application payload and blocks until the module
// reports the transmit result or the attempt times out. It is only valid in
// the Joined state; during the call the driver is Transmitting and it
// returns to Joined on completion, success or failure.
//
// The payload is hex-encoded on the wire. A busy or no_free_ch answer from
// the duty-cycle limiter is retried with a fixed short delay up to
// TxRetries attempts; the limiter clears on a known schedule, so the
// backoff is flat, not exponential. Other module errors are terminal.
func (d *Driver) Send(ctx context.Context, payload []byte) (TxOutcome, error) {
	if d.closed {
		return TxOutcome{}, ErrAlreadyClosed
	}
	if d.State() != StateJoined {
		return TxOutcome{}, &TxError{Kind: NotJoined}
	}
	if len(payload) > d.config.MaxPayload {
		return TxOutcome{}, &TxError{Kind: PayloadTooLarge}
	}

	d.setState(StateTransmitting)
	defer func() { d.setState(StateJoined) }()

	verb := rn.TxUnconfirmed
	if d.config.Confirmed {
		verb = rn.TxConfirmed
	}
	cmd := fmt.Sprintf("%s %s %d %s", rn.CmdMacTx, verb, d.config.Port, hex.EncodeToString(payload))

	var out rn.Outcome
	for attempt := 1; ; attempt++ {
		out = d.execute(ctx, rn.KindTx, cmd, d.config.CmdTimeout)
		d.refreshWatchdog()

		if out.Kind != rn.OutcomeKnownError || (out.Code != rn.Busy && out.Code != rn.NoFreeCh) {
			break
		}
		if attempt >= d.config.TxRetries {
			return TxOutcome{}, &TxError{Kind: ChannelBusy, Outcome: out}
		}
		d.log.Debug("radio busy, retrying", "attempt", attempt, "code", out.Code)
		select {
		case <-ctx.Done():
			return TxOutcome{}, &TxError{Kind: ChannelBusy, Outcome: out}
		case <-time.After(d.config.TxRetryDelay):
		}
	}

	switch out.Kind {
	case rn.OutcomeOk:
		// Accepted into the queue; the radio exchange is still running.
	case rn.OutcomeTimeout:
		return TxOutcome{}, &TxError{Kind: TxTimeout, Outcome: out}
	case rn.OutcomeUnrecognized:
		return TxOutcome{}, outcomeErr(cmd, out)
	default:
		if out.Code == rn.NotJoined {
			return TxOutcome{}, &TxError{Kind: NotJoined, Outcome: out}
		}
		return TxOutcome{}, &TxError{Kind: TxFailed, Outcome: out}
	}

	out = d.awaitLine(ctx, rn.KindTxResult, d.config.TxTimeout)
	d.refreshWatchdog()
	switch out.Kind {
	case rn.OutcomeOk:
		return TxOutcome{Downlink: out.Payload}, nil
	case rn.OutcomeTimeout:
		return TxOutcome{}, &TxError{Kind: TxTimeout, Outcome: out}
	case rn.OutcomeUnrecognized:
		return TxOutcome{}, outcomeErr(cmd, out)
	default:
		return TxOutcome{}, &TxError{Kind: TxFailed, Outcome: out}
	}
}
