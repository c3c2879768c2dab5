package embed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEmbedMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "embed_request_ms",
		Help:    "Latency of remote embedding requests (ms)",
		Buckets: prometheus.ExponentialBuckets(5, 1.8, 10),
	})

	metricEmbedErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embed_errors_total",
		Help: "Remote embedding requests that failed",
	})
)
