package marketchat

import "time"

// Metrics receives connection and frame counters. See the promstats package
// for a Prometheus implementation.
type Metrics interface {
	FrameReceived(frameType string)
	FrameSent(frameType string)
	FrameDropped(reason string)
	ReconnectScheduled(attempt int, delay time.Duration)
	StateChanged(state ConnectionState)
}

type noopMetrics struct{}

func (noopMetrics) FrameReceived(string)                  {}
func (noopMetrics) FrameSent(string)                      {}
func (noopMetrics) FrameDropped(string)                   {}
func (noopMetrics) ReconnectScheduled(int, time.Duration) {}
func (noopMetrics) StateChanged(ConnectionState)          {}
