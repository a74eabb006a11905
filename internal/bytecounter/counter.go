// Package bytecounter contains code to track the number of
// bytes sent and received over the raw socket of a stream.
package bytecounter

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter counts bytes sent and received.
type Counter struct {
	// Received contains the bytes received.
	Received atomic.Int64

	// Sent contains the bytes sent.
	Sent atomic.Int64

	// received and sent OPTIONALLY mirror the counts on prometheus.
	received prometheus.Counter
	sent     prometheus.Counter
}

// New creates a new Counter.
func New() *Counter {
	return &Counter{}
}

// NewWithMetrics creates a new Counter that also adds the bytes it
// counts to the given prometheus counters.
func NewWithMetrics(sent, received prometheus.Counter) *Counter {
	return &Counter{received: received, sent: sent}
}

// CountBytesSent adds count to the bytes sent.
func (c *Counter) CountBytesSent(count int) {
	if count <= 0 {
		return
	}
	c.Sent.Add(int64(count))
	if c.sent != nil {
		c.sent.Add(float64(count))
	}
}

// CountBytesReceived adds count to the bytes received.
func (c *Counter) CountBytesReceived(count int) {
	if count <= 0 {
		return
	}
	c.Received.Add(int64(count))
	if c.received != nil {
		c.received.Add(float64(count))
	}
}

// BytesSent returns the bytes sent so far.
func (c *Counter) BytesSent() int64 {
	return c.Sent.Load()
}

// BytesReceived returns the bytes received so far.
func (c *Counter) BytesReceived() int64 {
	return c.Received.Load()
}

// KibiBytesSent returns the KiB sent so far.
func (c *Counter) KibiBytesSent() float64 {
	return float64(c.BytesSent()) / 1024
}

// KibiBytesReceived returns the KiB received so far.
func (c *Counter) KibiBytesReceived() float64 {
	return float64(c.BytesReceived()) / 1024
}
