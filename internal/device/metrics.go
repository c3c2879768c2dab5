package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricBuzzSignals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "device_buzz_signals_total",
		Help: "Well-formed buzz signals read from the controller",
	})

	metricMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "device_malformed_lines_total",
		Help: "Incoming lines ignored because they were not buzz signals",
	})

	metricCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_commands_total",
		Help: "Commands written to the controller",
	}, []string{"op"})

	metricWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "device_write_errors_total",
		Help: "Command writes that failed",
	})
)
