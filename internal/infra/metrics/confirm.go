package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		confirmAttempts,
		confirmDuration,
		provisioningTotal,
		checkoutsTotal,
	)
}

var (
	// result: succeeded|replayed|rejected|network|invalid|in_progress
	confirmAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_confirm_attempts_total",
			Help: "Payment confirmation attempts by outcome.",
		},
		[]string{"result"},
	)

	confirmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_confirm_backend_duration_seconds",
			Help:    "Latency of the backend confirm call in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"success"},
	)

	// result: ok|skipped|failed|unauthenticated
	provisioningTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_provisioning_total",
			Help: "Subscription provisioning after payment, by outcome.",
		},
		[]string{"result"},
	)

	// kind: subscription|one_off
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_started_total",
			Help: "Checkouts handed to the payment widget, by purchase kind.",
		},
		[]string{"kind"},
	)
)

func IncConfirm(result string) {
	confirmAttempts.WithLabelValues(norm(result)).Inc()
}

func ObserveConfirmCall(d time.Duration, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	confirmDuration.WithLabelValues(label).Observe(d.Seconds())
}

func IncProvisioning(result string) {
	provisioningTotal.WithLabelValues(norm(result)).Inc()
}

func IncCheckout(kind string) {
	checkoutsTotal.WithLabelValues(norm(kind)).Inc()
}
