package stt

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCaptureMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stt_capture_ms",
		Help:    "Time from capture start to transcript or give-up (ms)",
		Buckets: prometheus.ExponentialBuckets(100, 1.6, 10),
	})

	metricCaptures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stt_captures_total",
		Help: "Captures by result (text, no_speech, error)",
	}, []string{"result"})
)

func observeCapture(start time.Time, err error) {
	metricCaptureMS.Observe(float64(time.Since(start).Milliseconds()))
	switch {
	case err == nil:
		metricCaptures.WithLabelValues("text").Inc()
	case errors.Is(err, ErrNoSpeech):
		metricCaptures.WithLabelValues("no_speech").Inc()
	default:
		metricCaptures.WithLabelValues("error").Inc()
	}
}
