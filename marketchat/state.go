package marketchat

// ConnectionState represents the current state of the WebSocket connection.
type ConnectionState int

const (
	// StateDisconnected means the client is not connected. A reconnect may be pending.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the client is dialing and authenticating.
	StateConnecting

	// StateConnected means the socket is open and the AUTH frame was written.
	StateConnected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change event.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Attempt  int   // reconnect attempts made since the last successful connection
	Error    error // Optional error that caused the state change
}
