package rn2483

import (
	"encoding/hex"
	"fmt"
)

const (
	appEUILen = 8
	appKeyLen = 16
)

// Credentials hold the OTAA application identity: the 8-byte application EUI
// and the 16-byte application key. They are validated once at construction
// and immutable afterwards; malformed input is a configuration error, not a
// protocol error.
type Credentials struct {
	appEUI [appEUILen]byte
	appKey [appKeyLen]byte
}

// ParseCredentials decodes and validates hex-encoded OTAA credentials.
func ParseCredentials(appEUI, appKey string) (Credentials, error) {
	var c Credentials

	eui, err := hex.DecodeString(appEUI)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidAppEUI, err)
	}
	if len(eui) != appEUILen {
		return Credentials{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAppEUI, len(eui), appEUILen)
	}
	key, err := hex.DecodeString(appKey)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidAppKey, err)
	}
	if len(key) != appKeyLen {
		return Credentials{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAppKey, len(key), appKeyLen)
	}

	copy(c.appEUI[:], eui)
	copy(c.appKey[:], key)
	return c, nil
}

// AppEUI returns the application EUI in the module's wire format,
// lowercase hex.
func (c Credentials) AppEUI() string {
	return hex.EncodeToString(c.appEUI[:])
}

// AppKey returns the application key in the module's wire format,
// lowercase hex.
func (c Credentials) AppKey() string {
	return hex.EncodeToString(c.appKey[:])
}
