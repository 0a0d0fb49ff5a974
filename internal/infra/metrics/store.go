package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storeDegraded) }

var storeDegraded = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_store_degraded_total",
		Help: "Client-state reads that fell back to 'absent' because the store failed or held a corrupt value.",
	},
	[]string{"store", "op"}, // e.g., store="dedup_ledger", op="read"
)

func IncStoreDegraded(store, op string) {
	storeDegraded.WithLabelValues(norm(store), norm(op)).Inc()
}
