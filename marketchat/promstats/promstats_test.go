package promstats

import (
	"testing"
	"time"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.FrameReceived("NEW_MESSAGE")
	c.FrameReceived("NEW_MESSAGE")
	c.FrameSent("AUTH")
	c.FrameDropped("malformed")
	c.ReconnectScheduled(1, 3*time.Second)
	c.ReconnectScheduled(2, 6*time.Second)
	c.StateChanged(marketchat.StateConnected)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.framesReceived.WithLabelValues("NEW_MESSAGE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.framesSent.WithLabelValues("AUTH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.framesDropped.WithLabelValues("malformed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.reconnects))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.attempt))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.state))

	n, err := testutil.GatherAndCount(reg, "marketchat_reconnect_delay_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
