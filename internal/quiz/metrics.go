package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_state_transitions_total",
		Help: "Round state transitions",
	}, []string{"from", "to"})

	metricFlags = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_flags_total",
		Help: "Contestants flagged, by violation",
	}, []string{"violation"})

	metricPenalties = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_penalties_total",
		Help: "Penalty commands by result (sent, failed)",
	}, []string{"result"})

	metricRoundSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quiz_round_seconds",
		Help:    "Wall time from question announcement to round completion",
		Buckets: prometheus.ExponentialBuckets(5, 1.6, 10),
	})
)
