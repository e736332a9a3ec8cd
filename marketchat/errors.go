package marketchat

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Reported by the server in an ERROR frame
	ErrorServer

	// Client-side Errors
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorInvalidConfig
	ErrorNotConnected
	ErrorNotAuthenticated
	ErrorInvalidMessage
	ErrorSerialization
	ErrorUnknownFrame
	ErrorReconnectExhausted
	ErrorHistoryUnavailable
)

var (
	// ErrNotConnected is returned by outbound operations while the socket is not open.
	ErrNotConnected = NewError(ErrorNotConnected, "not connected to chat server")

	// ErrReconnectExhausted is reported once all reconnect attempts failed.
	ErrReconnectExhausted = NewError(ErrorReconnectExhausted, "connection lost, please reload")

	// ErrUnknownFrame matches errors from DecodeFrame for unrecognized frame types.
	ErrUnknownFrame = NewError(ErrorUnknownFrame, "unknown frame type")
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorServer:
		return "server_error"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorNotAuthenticated:
		return "not_authenticated"
	case ErrorInvalidMessage:
		return "invalid_message"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorUnknownFrame:
		return "unknown_frame"
	case ErrorReconnectExhausted:
		return "reconnect_exhausted"
	case ErrorHistoryUnavailable:
		return "history_unavailable"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ChatError is a structured error with code and context.
type ChatError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *ChatError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface for error comparison.
func (e *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new ChatError with the given code and message.
func NewError(code ErrorCode, message string) *ChatError {
	return &ChatError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a ChatError.
func WrapError(code ErrorCode, message string, err error) *ChatError {
	return &ChatError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// FromServerError converts an ERROR frame into a ChatError.
func FromServerError(e *Error) *ChatError {
	if e == nil {
		return nil
	}
	return &ChatError{
		Code:    ErrorServer,
		Message: e.Message,
	}
}

// IsServerError checks if an error was reported by the server.
func IsServerError(err error) bool {
	var ce *ChatError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == ErrorServer
}

// IsConnectionError checks if an error is a connection-related error.
func IsConnectionError(err error) bool {
	var ce *ChatError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Code {
	case ErrorConnection, ErrorDisconnected, ErrorTimeout, ErrorNotConnected, ErrorReconnectExhausted:
		return true
	default:
		return false
	}
}
