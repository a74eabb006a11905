package bytecounter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounter(t *testing.T) {
	counter := New()
	counter.CountBytesReceived(16384)
	counter.CountBytesReceived(-1)
	counter.CountBytesSent(2048)
	counter.CountBytesSent(0)
	if v := counter.BytesReceived(); v != 16384 {
		t.Fatal("unexpected bytes received", v)
	}
	if v := counter.BytesSent(); v != 2048 {
		t.Fatal("unexpected bytes sent", v)
	}
	if v := counter.KibiBytesReceived(); v != 16 {
		t.Fatal("unexpected KiB received", v)
	}
	if v := counter.KibiBytesSent(); v != 2 {
		t.Fatal("unexpected KiB sent", v)
	}
}

func TestCounterWithMetrics(t *testing.T) {
	sent := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_bytes_sent_total"})
	received := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_bytes_received_total"})
	counter := NewWithMetrics(sent, received)
	counter.CountBytesSent(100)
	counter.CountBytesReceived(250)
	counter.CountBytesReceived(50)
	if v := testutil.ToFloat64(sent); v != 100 {
		t.Fatal("unexpected sent metric", v)
	}
	if v := testutil.ToFloat64(received); v != 300 {
		t.Fatal("unexpected received metric", v)
	}
	if counter.BytesReceived() != 300 {
		t.Fatal("unexpected bytes received")
	}
}
