package marketchat

// Fields carries structured key/value context for a log line.
type Fields map[string]any

// Logger is a minimal logging interface accepted by the SDK.
// The logging package adapts logrus and zap to it.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
}

// noopLogger discards all logs.
type noopLogger struct{}

func (noopLogger) Debug(string, Fields) {}
func (noopLogger) Info(string, Fields)  {}
func (noopLogger) Warn(string, Fields)  {}
func (noopLogger) Error(string, Fields) {}
