package rn2483

import (
	"context"
	"fmt"

	"i4.energy/across/loragw/rn"
)

// JoinErrorKind tells which phase of the OTAA sequence failed.
type JoinErrorKind int

const (
	// ConfigurationRejected means a radio or class configuration command
	// was not accepted, including the join command itself being refused
	// by the module before any radio exchange.
	ConfigurationRejected JoinErrorKind = iota
	// CredentialsRejected means the module refused one of the identity
	// commands (device EUI, application EUI, application key).
	CredentialsRejected
	// JoinDenied means the network answered the join request with denied.
	JoinDenied
	// JoinTimeout means the join result never arrived within JoinTimeout.
	JoinTimeout
)

func (k JoinErrorKind) String() string {
	switch k {
	case ConfigurationRejected:
		return "configuration rejected"
	case CredentialsRejected:
		return "credentials rejected"
	case JoinDenied:
		return "join denied"
	case JoinTimeout:
		return "join timeout"
	}
	return "unknown"
}

// JoinError reports a failed OTAA join attempt. The driver stays in a
// well-defined state; InitializeOTAA may simply be called again.
type JoinError struct {
	Kind    JoinErrorKind
	Cmd     string
	Outcome rn.Outcome
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join failed (%s): command %q: %s", e.Kind, e.Cmd, describeOutcome(e.Outcome))
}

func (e *JoinError) Unwrap() error { return e.Outcome.Err }

// joinSteps is the configuration sequence preceding the join command:
// reset the EU868 band defaults, load the identity, then the fixed radio
// parameters (power index 1, data rate 5, adaptive data rate and automatic
// reply off) and persist them.
func (d *Driver) joinSteps() []struct {
	cmd  string
	kind JoinErrorKind
} {
	return []struct {
		cmd  string
		kind JoinErrorKind
	}{
		{rn.CmdMacReset + " 868", ConfigurationRejected},
		{rn.CmdSetDevEUI + " " + d.hwEUI, CredentialsRejected},
		{rn.CmdSetAppEUI + " " + d.config.creds.AppEUI(), CredentialsRejected},
		{rn.CmdSetAppKey + " " + d.config.creds.AppKey(), CredentialsRejected},
		{rn.CmdSetPwrIdx + " 1", ConfigurationRejected},
		{rn.CmdSetDataRate + " 5", ConfigurationRejected},
		{rn.CmdSetADR + " " + rn.Off, ConfigurationRejected},
		{rn.CmdSetAutoReply + " " + rn.Off, ConfigurationRejected},
		{rn.CmdMacSave, ConfigurationRejected},
	}
}

// InitializeOTAA runs the full over-the-air activation sequence and blocks
// until the network accepts or denies the join, or the attempt times out.
//
// The join command itself is answered in two parts: an immediate
// acknowledgement that the attempt started, then an asynchronous result
// line ("accepted" or "denied") once the radio handshake completes, which
// can take many seconds. The watchdog is refreshed after every round trip.
//
// Every call restarts from the first configuration command, so a denied or
// timed-out attempt can be retried by calling InitializeOTAA again. A
// denied join is never retried automatically; that is an application
// decision.
func (d *Driver) InitializeOTAA(ctx context.Context) error {
	if d.closed {
		return ErrAlreadyClosed
	}
	if d.transport == nil {
		return ErrNotInitialized
	}

	d.setState(StateJoining)

	for _, step := range d.joinSteps() {
		out := d.execute(ctx, rn.KindConfig, step.cmd, d.config.CmdTimeout)
		d.refreshWatchdog()
		switch out.Kind {
		case rn.OutcomeOk:
		case rn.OutcomeUnrecognized:
			d.setState(StateJoinFailed)
			return outcomeErr(step.cmd, out)
		default:
			d.setState(StateJoinFailed)
			return &JoinError{Kind: step.kind, Cmd: step.cmd, Outcome: out}
		}
	}

	joinCmd := rn.CmdMacJoin + " " + rn.JoinOTAA
	out := d.execute(ctx, rn.KindJoin, joinCmd, d.config.CmdTimeout)
	d.refreshWatchdog()
	switch out.Kind {
	case rn.OutcomeOk:
	case rn.OutcomeTimeout:
		d.setState(StateJoinFailed)
		return &JoinError{Kind: JoinTimeout, Cmd: joinCmd, Outcome: out}
	case rn.OutcomeUnrecognized:
		d.setState(StateJoinFailed)
		return outcomeErr(joinCmd, out)
	default:
		d.setState(StateJoinFailed)
		return &JoinError{Kind: ConfigurationRejected, Cmd: joinCmd, Outcome: out}
	}

	// Radio handshake in progress; wait for the delayed result line.
	out = d.awaitLine(ctx, rn.KindJoinResult, d.config.JoinTimeout)
	d.refreshWatchdog()
	switch out.Kind {
	case rn.OutcomeOk:
		d.setState(StateJoined)
		d.log.Info("joined network", "hweui", d.hwEUI)
		return nil
	case rn.OutcomeTimeout:
		d.setState(StateJoinFailed)
		return &JoinError{Kind: JoinTimeout, Cmd: joinCmd, Outcome: out}
	case rn.OutcomeUnrecognized:
		d.setState(StateJoinFailed)
		return outcomeErr(joinCmd, out)
	default:
		d.setState(StateJoinFailed)
		return &JoinError{Kind: JoinDenied, Cmd: joinCmd, Outcome: out}
	}
}
