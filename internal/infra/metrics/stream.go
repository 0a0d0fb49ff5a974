package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(sseActive, sseStreams)
}

var (
	sseActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_sse_streams_active",
			Help: "Notification streams currently proxied to browsers.",
		},
	)

	// outcome: client_closed|backend_closed|backend_error|upstream_refused
	sseStreams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sse_streams_total",
			Help: "Finished notification streams by how they ended.",
		},
		[]string{"outcome"},
	)
)

func StreamOpened() { sseActive.Inc() }

func StreamClosed(outcome string) {
	sseActive.Dec()
	sseStreams.WithLabelValues(norm(outcome)).Inc()
}

func StreamRefused() {
	sseStreams.WithLabelValues("upstream_refused").Inc()
}
