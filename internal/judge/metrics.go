package judge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSimilarity = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "judge_similarity",
		Help:    "Similarity scores by stage (relevance, duplicate)",
		Buckets: prometheus.LinearBuckets(-1, 0.1, 21),
	}, []string{"stage"})

	metricFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "judge_failures_total",
		Help: "Embedding or scoring failures by stage",
	}, []string{"stage"})
)
