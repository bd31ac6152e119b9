package rn2483_test

import (
	"errors"
	"testing"
	"time"

	"i4.energy/across/loragw/rn2483"
)

func TestConfigBuilder(t *testing.T) {
	t.Run("Defaults are applied", func(t *testing.T) {
		config, err := rn2483.NewConfigBuilder().
			WithDialer(scriptDialer{rn2483.NewTestTransport()}).
			WithCredentials(testAppEUI, testAppKey).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Port != 1 {
			t.Errorf("expected default port 1, got %d", config.Port)
		}
		if config.CmdTimeout != 5*time.Second {
			t.Errorf("unexpected default CmdTimeout: %v", config.CmdTimeout)
		}
		if config.JoinTimeout != 30*time.Second {
			t.Errorf("unexpected default JoinTimeout: %v", config.JoinTimeout)
		}
		if config.TxTimeout != 30*time.Second {
			t.Errorf("unexpected default TxTimeout: %v", config.TxTimeout)
		}
		if config.TxRetries != 3 {
			t.Errorf("unexpected default TxRetries: %d", config.TxRetries)
		}
		if config.TxRetryDelay != 200*time.Millisecond {
			t.Errorf("unexpected default TxRetryDelay: %v", config.TxRetryDelay)
		}
		if config.MaxPayload != 51 {
			t.Errorf("unexpected default MaxPayload: %d", config.MaxPayload)
		}
		if config.InitTimeout != 30*time.Second {
			t.Errorf("unexpected default InitTimeout: %v", config.InitTimeout)
		}
		if config.Logger == nil {
			t.Error("expected a default logger")
		}
	})

	t.Run("Explicit values are kept", func(t *testing.T) {
		config, err := rn2483.NewConfigBuilder().
			WithDialer(scriptDialer{rn2483.NewTestTransport()}).
			WithCredentials(testAppEUI, testAppKey).
			WithPort(42).
			WithTxRetries(8).
			WithMaxPayload(222).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Port != 42 || config.TxRetries != 8 || config.MaxPayload != 222 {
			t.Errorf("explicit values overwritten: port=%d retries=%d max=%d",
				config.Port, config.TxRetries, config.MaxPayload)
		}
	})

	t.Run("ErrNoDialer without a dialer", func(t *testing.T) {
		_, err := rn2483.NewConfigBuilder().
			WithCredentials(testAppEUI, testAppKey).
			Build()
		if !errors.Is(err, rn2483.ErrNoDialer) {
			t.Errorf("expected ErrNoDialer, got: %v", err)
		}
	})

	t.Run("Malformed credentials fail the build", func(t *testing.T) {
		_, err := rn2483.NewConfigBuilder().
			WithDialer(scriptDialer{rn2483.NewTestTransport()}).
			WithCredentials("nonsense", testAppKey).
			Build()
		if !errors.Is(err, rn2483.ErrInvalidAppEUI) {
			t.Errorf("expected ErrInvalidAppEUI, got: %v", err)
		}

		_, err = rn2483.NewConfigBuilder().
			WithDialer(scriptDialer{rn2483.NewTestTransport()}).
			WithCredentials(testAppEUI, "tooshort").
			Build()
		if !errors.Is(err, rn2483.ErrInvalidAppKey) {
			t.Errorf("expected ErrInvalidAppKey, got: %v", err)
		}
	})
}
