package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpDuration) }

var httpDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "checkout_http_request_duration_seconds",
		Help:    "HTTP handler latency by route pattern and status code.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"route", "status"},
)

func ObserveHTTP(route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
