package arbiter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricBuzzes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_buzzes_total",
		Help: "Buzz signals by decision (granted, floor_held, already_buzzed, ...)",
	}, []string{"result"})

	metricFloorHeldMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arbiter_floor_held_ms",
		Help:    "Time a contestant held the floor (ms)",
		Buckets: prometheus.ExponentialBuckets(250, 1.6, 10),
	})
)
