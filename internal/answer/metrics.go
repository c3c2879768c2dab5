package answer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "answer_outcomes_total",
		Help: "Answer outcomes by kind (accepted, off_topic, empty)",
	}, []string{"kind"})

	metricCaptureFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "answer_capture_failures_total",
		Help: "Captures downgraded to an empty answer, by cause",
	}, []string{"cause"})
)
