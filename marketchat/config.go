package marketchat

import (
	"math"
	"time"
)

// Config controls how the SDK connects.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 0 keeps an idle socket open indefinitely
	WriteTimeout     time.Duration

	AutoReconnect        bool
	ReconnectBaseDelay   time.Duration // delay before the first retry, doubled per attempt
	MaxReconnectAttempts int

	TypingTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         10 * time.Second,
		AutoReconnect:        true,
		ReconnectBaseDelay:   3 * time.Second,
		MaxReconnectAttempts: 5,
		TypingTimeout:        3 * time.Second,
	}
}

// Validate checks the configuration before dialing.
func (c Config) Validate() error {
	switch {
	case c.URL == "":
		return NewError(ErrorInvalidConfig, "empty URL")
	case c.HandshakeTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0:
		return NewError(ErrorInvalidConfig, "timeouts must not be negative")
	case c.TypingTimeout <= 0:
		return NewError(ErrorInvalidConfig, "typing timeout must be positive")
	case c.AutoReconnect && c.ReconnectBaseDelay <= 0:
		return NewError(ErrorInvalidConfig, "reconnect base delay must be positive")
	case c.AutoReconnect && c.MaxReconnectAttempts <= 0:
		return NewError(ErrorInvalidConfig, "max reconnect attempts must be positive")
	case c.AutoReconnect && c.MaxReconnectAttempts > maxReconnectAttempts:
		return NewError(ErrorInvalidConfig, "max reconnect attempts must not exceed 100")
	}
	return nil
}

const (
	// maxBackoffShift caps the doubling: attempt 11 and later wait base<<10.
	maxBackoffShift = 10
	// maxReconnectAttempts bounds MaxReconnectAttempts.
	maxReconnectAttempts = 100
)

// ReconnectDelay returns the wait before reconnect attempt n (1-based):
// base, 2*base, 4*base and so on, capped at base<<10.
func ReconnectDelay(base time.Duration, attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	if base > math.MaxInt64>>shift {
		return math.MaxInt64
	}
	return base << shift
}
