package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ttsd",
			Subsystem: "session",
			Name:      "loads_total",
			Help:      "Model loads by result",
		},
		[]string{"result"},
	)

	loadSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ttsd",
			Subsystem: "session",
			Name:      "load_duration_seconds",
			Help:      "Duration of successful model loads",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	generationGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ttsd",
			Subsystem: "session",
			Name:      "generation",
			Help:      "Generation of the loaded engine",
		},
	)

	gateWaiting = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ttsd",
			Subsystem: "session",
			Name:      "gate_waiting",
			Help:      "Callers queued for the exclusive gate",
		},
	)

	gateHoldSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ttsd",
			Subsystem: "session",
			Name:      "gate_hold_seconds",
			Help:      "Time the exclusive gate was held per operation",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)
