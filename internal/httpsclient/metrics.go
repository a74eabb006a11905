package httpsclient

//
// Metrics definitions
//

import (
	"time"

	"github.com/ooni/minihttps/internal/httpwire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsSummaryObjectives returns the summary objectives for promauto.NewSummary.
func metricsSummaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.25: 0.010,
		0.5:  0.010,
		0.75: 0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

var (
	// metricRequestsCount counts the requests by method and outcome.
	metricRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minihttps_requests_count",
		Help: "Total number of requests by method and outcome",
	}, []string{"method", "outcome"})

	// metricRequestDurationSeconds summarizes the request duration.
	metricRequestDurationSeconds = promauto.NewSummary(prometheus.SummaryOpts{
		Name:       "minihttps_request_duration_seconds",
		Help:       "Summarizes the time to complete a request (in seconds)",
		Objectives: metricsSummaryObjectives(),
	})

	// metricBytesSent counts the raw bytes sent.
	metricBytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minihttps_bytes_sent_total",
		Help: "Total number of bytes sent over the raw sockets",
	})

	// metricBytesReceived counts the raw bytes received.
	metricBytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minihttps_bytes_received_total",
		Help: "Total number of bytes received over the raw sockets",
	})
)

func observeRequest(method httpwire.Method, t0 time.Time, err error) {
	metricRequestsCount.WithLabelValues(method.String(), Classify(err).String()).Inc()
	metricRequestDurationSeconds.Observe(time.Since(t0).Seconds())
}
