package rn2483

// Watchdog is an external watchdog timer the driver cooperates with. Join
// and multi-retry transmit sequences block for many seconds; the driver
// refreshes the watchdog after each command round trip so it does not fire
// mid-protocol. The driver never configures the watchdog itself.
type Watchdog interface {
	Refresh()
}

// WatchdogFunc adapts a plain function to the Watchdog interface.
type WatchdogFunc func()

func (f WatchdogFunc) Refresh() { f() }

// ResetLine pulses the module's hardware reset input. It is invoked once
// during driver construction, before the readiness poll.
type ResetLine interface {
	Pulse() error
}

// ResetFunc adapts a plain function to the ResetLine interface.
type ResetFunc func() error

func (f ResetFunc) Pulse() error { return f() }
