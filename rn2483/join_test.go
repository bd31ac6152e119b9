package rn2483_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"i4.energy/across/loragw/rn2483"
)

// joinSequence is the exact wire order of a full OTAA attempt.
var joinSequence = []string{
	"mac reset 868",
	"mac set deveui " + testHWEUI,
	"mac set appeui " + testAppEUI,
	"mac set appkey " + testAppKey,
	"mac set pwridx 1",
	"mac set dr 5",
	"mac set adr off",
	"mac set ar off",
	"mac save",
	"mac join otaa",
}

// okLines produces the module's answers for n accepted commands.
func okLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "ok"
	}
	return lines
}

func TestInitializeOTAA(t *testing.T) {
	t.Run("Success leaves the driver joined", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines(okLines(10)...)
		transport.QueueLines("accepted")

		if err := d.InitializeOTAA(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.State() != rn2483.StateJoined {
			t.Errorf("expected state %v, got %v", rn2483.StateJoined, d.State())
		}

		got := transport.Writes()[1:] // skip the readiness poll
		if !slices.Equal(got, joinSequence) {
			t.Errorf("unexpected command sequence:\n got %v\nwant %v", got, joinSequence)
		}
	})

	t.Run("Denied join fails without retrying", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines(okLines(10)...)
		transport.QueueLines("denied")

		err := d.InitializeOTAA(context.Background())
		var joinErr *rn2483.JoinError
		if !errors.As(err, &joinErr) || joinErr.Kind != rn2483.JoinDenied {
			t.Fatalf("expected JoinDenied, got: %v", err)
		}
		if d.State() != rn2483.StateJoinFailed {
			t.Errorf("expected state %v, got %v", rn2483.StateJoinFailed, d.State())
		}
		if len(transport.Writes()) != 1+len(joinSequence) {
			t.Errorf("a denied join must not be retried, saw writes: %v", transport.Writes())
		}
	})

	t.Run("Retry after denial restarts the full sequence", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines(okLines(10)...)
		transport.QueueLines("denied")
		if err := d.InitializeOTAA(context.Background()); err == nil {
			t.Fatal("expected denied join to fail")
		}

		transport.QueueLines(okLines(10)...)
		transport.QueueLines("accepted")
		if err := d.InitializeOTAA(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The configuration commands must be re-sent, not skipped.
		got := transport.Writes()[1:]
		want := slices.Concat(joinSequence, joinSequence)
		if !slices.Equal(got, want) {
			t.Errorf("unexpected command sequence:\n got %v\nwant %v", got, want)
		}
		if d.State() != rn2483.StateJoined {
			t.Errorf("expected state %v, got %v", rn2483.StateJoined, d.State())
		}
	})

	t.Run("ConfigurationRejected on a refused radio command", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines("invalid_param")

		err := d.InitializeOTAA(context.Background())
		var joinErr *rn2483.JoinError
		if !errors.As(err, &joinErr) || joinErr.Kind != rn2483.ConfigurationRejected {
			t.Fatalf("expected ConfigurationRejected, got: %v", err)
		}
		if joinErr.Cmd != "mac reset 868" {
			t.Errorf("unexpected failing command: %q", joinErr.Cmd)
		}
	})

	t.Run("CredentialsRejected on a refused key command", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines(okLines(3)...)
		transport.QueueLines("invalid_param") // mac set appkey

		err := d.InitializeOTAA(context.Background())
		var joinErr *rn2483.JoinError
		if !errors.As(err, &joinErr) || joinErr.Kind != rn2483.CredentialsRejected {
			t.Fatalf("expected CredentialsRejected, got: %v", err)
		}
		if joinErr.Cmd != "mac set appkey "+testAppKey {
			t.Errorf("unexpected failing command: %q", joinErr.Cmd)
		}
	})

	t.Run("ConfigurationRejected when the module refuses to start the join", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines(okLines(9)...)
		transport.QueueLines("keys_not_init")

		err := d.InitializeOTAA(context.Background())
		var joinErr *rn2483.JoinError
		if !errors.As(err, &joinErr) || joinErr.Kind != rn2483.ConfigurationRejected {
			t.Fatalf("expected ConfigurationRejected, got: %v", err)
		}
		if joinErr.Cmd != "mac join otaa" {
			t.Errorf("unexpected failing command: %q", joinErr.Cmd)
		}
	})

	t.Run("JoinTimeout when the result line never arrives", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		// Join acknowledged, then silence instead of accepted/denied.
		transport.QueueLines(okLines(10)...)

		err := d.InitializeOTAA(context.Background())
		var joinErr *rn2483.JoinError
		if !errors.As(err, &joinErr) || joinErr.Kind != rn2483.JoinTimeout {
			t.Fatalf("expected JoinTimeout, got: %v", err)
		}
		if d.State() != rn2483.StateJoinFailed {
			t.Errorf("expected state %v, got %v", rn2483.StateJoinFailed, d.State())
		}
	})

	t.Run("ConfigurationRejected on a silent configuration command", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines(okLines(4)...) // silence at mac set pwridx

		err := d.InitializeOTAA(context.Background())
		var joinErr *rn2483.JoinError
		if !errors.As(err, &joinErr) || joinErr.Kind != rn2483.ConfigurationRejected {
			t.Fatalf("expected ConfigurationRejected, got: %v", err)
		}
		if joinErr.Cmd != "mac set pwridx 1" {
			t.Errorf("unexpected failing command: %q", joinErr.Cmd)
		}
	})

	t.Run("Unrecognized response is surfaced, never swallowed", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		transport.QueueLines("ok", "how did this get here")

		err := d.InitializeOTAA(context.Background())
		var protoErr *rn2483.ProtocolError
		if !errors.As(err, &protoErr) {
			t.Fatalf("expected ProtocolError, got: %v", err)
		}
		if protoErr.Text != "how did this get here" {
			t.Errorf("raw text not preserved: %q", protoErr.Text)
		}
	})

	t.Run("Watchdog refreshed after every round trip", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		transport.QueueLines(testHWEUI)

		refreshes := 0
		config := newTestConfig(t, transport, func(b *rn2483.ConfigBuilder) {
			b.WithWatchdog(rn2483.WatchdogFunc(func() { refreshes++ }))
		})
		d, err := rn2483.New(context.Background(), config)
		if err != nil {
			t.Fatalf("failed to create driver: %v", err)
		}

		before := refreshes
		transport.QueueLines(okLines(10)...)
		transport.QueueLines("accepted")
		if err := d.InitializeOTAA(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// 9 configuration commands, the join command and the result line.
		if got := refreshes - before; got != 11 {
			t.Errorf("expected 11 watchdog refreshes during join, got %d", got)
		}
	})

	t.Run("ErrAlreadyClosed after Close", func(t *testing.T) {
		transport := rn2483.NewTestTransport()
		d := newTestDriver(t, transport)

		if err := d.Close(); err != nil {
			t.Fatalf("unexpected error from Close(): %v", err)
		}
		if err := d.InitializeOTAA(context.Background()); !errors.Is(err, rn2483.ErrAlreadyClosed) {
			t.Errorf("expected ErrAlreadyClosed, got: %v", err)
		}
	})
}
