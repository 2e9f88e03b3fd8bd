package endpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus collectors an Endpoint updates on every
// send and receive. A nil *metrics (the zero Endpoint) disables
// instrumentation entirely rather than panicking, so a caller that has no
// use for metrics can skip NewMetrics.
type metrics struct {
	sends       *prometheus.CounterVec
	retransmits prometheus.Counter
	failures    prometheus.Counter
	fragments   *prometheus.CounterVec
	neighbors   prometheus.Gauge
	rtt         prometheus.Histogram
}

// NewMetrics registers this endpoint's collectors with reg and returns a
// value suitable for [Endpoint.WithMetrics]. Pass nil to use the default
// global registry.
func NewMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &metrics{
		sends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ctp",
			Name:      "sends_total",
			Help:      "Completed SendPayload calls by outcome.",
		}, []string{"outcome"}),
		retransmits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ctp",
			Name:      "retransmits_total",
			Help:      "Fragment retransmission attempts.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ctp",
			Name:      "send_failures_total",
			Help:      "Sends that exhausted retries on some fragment.",
		}),
		fragments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ctp",
			Name:      "fragments_total",
			Help:      "Fragment transmissions (tx) and completed receives (rx), by direction; rx counts one per received payload, not per fragment.",
		}, []string{"direction"}),
		neighbors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ctp",
			Name:      "discovered_neighbors",
			Help:      "Current size of the discovery registry.",
		}),
		rtt: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ctp",
			Name:      "rtt_seconds",
			Help:      "Measured round-trip time of acknowledged fragments.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
}
