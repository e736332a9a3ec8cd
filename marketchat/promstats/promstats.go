// Package promstats exports marketchat client metrics to Prometheus.
package promstats

import (
	"time"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements marketchat.Metrics with Prometheus collectors.
type Collector struct {
	framesReceived *prometheus.CounterVec
	framesSent     *prometheus.CounterVec
	framesDropped  *prometheus.CounterVec
	reconnects     prometheus.Counter
	reconnectDelay prometheus.Histogram
	attempt        prometheus.Gauge
	state          prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchat_frames_received_total",
			Help: "Inbound frames decoded, by frame type.",
		}, []string{"type"}),
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchat_frames_sent_total",
			Help: "Outbound frames written to the socket, by frame type.",
		}, []string{"type"}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchat_frames_dropped_total",
			Help: "Inbound frames discarded, by reason.",
		}, []string{"reason"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketchat_reconnects_total",
			Help: "Reconnect attempts scheduled.",
		}),
		reconnectDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketchat_reconnect_delay_seconds",
			Help:    "Backoff delay before each reconnect attempt.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		attempt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketchat_reconnect_attempt",
			Help: "Number of the last scheduled reconnect attempt.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketchat_connection_state",
			Help: "Connection state: 0 disconnected, 1 connecting, 2 connected.",
		}),
	}
	for _, col := range []prometheus.Collector{
		c.framesReceived, c.framesSent, c.framesDropped, c.reconnects, c.reconnectDelay, c.attempt, c.state,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) FrameReceived(frameType string) { c.framesReceived.WithLabelValues(frameType).Inc() }
func (c *Collector) FrameSent(frameType string)     { c.framesSent.WithLabelValues(frameType).Inc() }
func (c *Collector) FrameDropped(reason string)     { c.framesDropped.WithLabelValues(reason).Inc() }

func (c *Collector) ReconnectScheduled(attempt int, delay time.Duration) {
	c.reconnects.Inc()
	c.reconnectDelay.Observe(delay.Seconds())
	c.attempt.Set(float64(attempt))
}

func (c *Collector) StateChanged(s marketchat.ConnectionState) { c.state.Set(float64(s)) }

var _ marketchat.Metrics = (*Collector)(nil)
