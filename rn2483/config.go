package rn2483

import (
	"log/slog"
	"time"
)

// Config carries the collaborators and tuning knobs for a Driver. Zero
// values are filled in by setDefaults; the retry and timeout values are
// tunables, not hardware constants.
type Config struct {
	// Dialer opens the transport to the module. Required.
	Dialer Dialer
	// Reset pulses the module's hardware reset line. Optional; when nil
	// the driver assumes the module is already out of reset.
	Reset ResetLine
	// Watchdog is refreshed during long-running operations. Optional.
	Watchdog Watchdog
	// AppEUI is the hex-encoded 8-byte application EUI. Required.
	AppEUI string
	// AppKey is the hex-encoded 16-byte application key. Required.
	AppKey string
	// Confirmed requests network acknowledgement for uplinks.
	Confirmed bool
	// Port is the LoRaWAN port number for uplinks (1..223).
	Port int
	// CmdTimeout bounds the immediate response of a single command.
	CmdTimeout time.Duration
	// JoinTimeout bounds the wait for the asynchronous join result.
	JoinTimeout time.Duration
	// TxTimeout bounds the wait for the asynchronous transmit result.
	TxTimeout time.Duration
	// TxRetries is the attempt ceiling when the duty-cycle limiter
	// reports busy.
	TxRetries int
	// TxRetryDelay is the fixed delay between busy retries.
	TxRetryDelay time.Duration
	// MaxPayload is the conservative uplink size bound in bytes. The real
	// limit depends on the current data rate; the default is the smallest
	// EU868 limit so a payload that passes the gate fits at any rate.
	MaxPayload int
	// InitTimeout bounds the reset-and-poll sequence during New.
	InitTimeout time.Duration
	// Logger receives debug-level command traces. Optional.
	Logger *slog.Logger

	// creds is populated by validate
	creds Credentials
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 1
	}
	if c.CmdTimeout == 0 {
		c.CmdTimeout = 5 * time.Second
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = 30 * time.Second
	}
	if c.TxTimeout == 0 {
		c.TxTimeout = 30 * time.Second
	}
	if c.TxRetries == 0 {
		c.TxRetries = 3
	}
	if c.TxRetryDelay == 0 {
		c.TxRetryDelay = 200 * time.Millisecond
	}
	if c.MaxPayload == 0 {
		c.MaxPayload = 51
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	creds, err := ParseCredentials(c.AppEUI, c.AppKey)
	if err != nil {
		return err
	}
	c.creds = creds
	return nil
}

// ConfigBuilder assembles a Config fluently. Build applies defaults and
// validates the result, including the credentials (fail fast: malformed
// credentials are rejected here, not at first use).
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithReset(r ResetLine) *ConfigBuilder {
	b.config.Reset = r
	return b
}

func (b *ConfigBuilder) WithWatchdog(w Watchdog) *ConfigBuilder {
	b.config.Watchdog = w
	return b
}

func (b *ConfigBuilder) WithCredentials(appEUI, appKey string) *ConfigBuilder {
	b.config.AppEUI = appEUI
	b.config.AppKey = appKey
	return b
}

func (b *ConfigBuilder) WithConfirmed(confirmed bool) *ConfigBuilder {
	b.config.Confirmed = confirmed
	return b
}

func (b *ConfigBuilder) WithPort(port int) *ConfigBuilder {
	b.config.Port = port
	return b
}

func (b *ConfigBuilder) WithCmdTimeout(d time.Duration) *ConfigBuilder {
	b.config.CmdTimeout = d
	return b
}

func (b *ConfigBuilder) WithJoinTimeout(d time.Duration) *ConfigBuilder {
	b.config.JoinTimeout = d
	return b
}

func (b *ConfigBuilder) WithTxTimeout(d time.Duration) *ConfigBuilder {
	b.config.TxTimeout = d
	return b
}

func (b *ConfigBuilder) WithTxRetries(n int) *ConfigBuilder {
	b.config.TxRetries = n
	return b
}

func (b *ConfigBuilder) WithTxRetryDelay(d time.Duration) *ConfigBuilder {
	b.config.TxRetryDelay = d
	return b
}

func (b *ConfigBuilder) WithMaxPayload(n int) *ConfigBuilder {
	b.config.MaxPayload = n
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	config.setDefaults()
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
