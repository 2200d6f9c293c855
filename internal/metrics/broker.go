package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderPublishTotal counts order event publish attempts by outcome
// ("published" / "unavailable" / "failed").
var OrderPublishTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fleetdex",
		Name:      "order_publish_total",
		Help:      "Order event publish attempts by outcome",
	},
	[]string{"outcome"},
)

var brokerMetricsRegistered bool

// RegisterBrokerMetrics registers Prometheus broker metrics. Must be called once from main.
func RegisterBrokerMetrics() {
	if brokerMetricsRegistered {
		return
	}
	prometheus.MustRegister(OrderPublishTotal)
	brokerMetricsRegistered = true
}
