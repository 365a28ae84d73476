// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the control-plane runtime.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revolution_dispatch_latency_seconds",
			Help:    "Time from message receipt to handler completion",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"endpoint", "header", "status"}, // status: ok, panic, unknown_header
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "revolution_queue_depth",
			Help: "Number of messages currently queued for an endpoint",
		},
		[]string{"endpoint"},
	)

	heartMissedBeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revolution_heart_missed_beats_total",
			Help: "Total number of heart ticks that observed a zero beat counter",
		},
		[]string{"endpoint"},
	)

	fanOutDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revolution_fan_out_duration_seconds",
			Help:    "Time for the marshal to fan out a write to the soldiers and the replica",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"header"},
	)
)

// RecordDispatch records handler dispatch latency and outcome.
func RecordDispatch(endpoint, header, status string, seconds float64) {
	dispatchLatencySeconds.WithLabelValues(endpoint, header, status).Observe(seconds)
}

// SetQueueDepth records the current number of messages pending for an
// endpoint's own queue.
func SetQueueDepth(endpoint string, depth int) {
	queueDepth.WithLabelValues(endpoint).Set(float64(depth))
}

// RecordHeartMissedBeat increments the missed-beat counter for an
// endpoint.
func RecordHeartMissedBeat(endpoint string) {
	heartMissedBeatsTotal.WithLabelValues(endpoint).Inc()
}

// RecordFanOut records the duration of one marshal fan-out round for a
// given write header.
func RecordFanOut(header string, seconds float64) {
	fanOutDurationSeconds.WithLabelValues(header).Observe(seconds)
}
