package synth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ttsd",
			Subsystem: "synth",
			Name:      "requests_total",
			Help:      "Synthesis requests by outcome kind",
		},
		[]string{"outcome"},
	)
	inferenceSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ttsd",
			Subsystem: "synth",
			Name:      "inference_seconds",
			Help:      "Engine time per synthesis, gate wait excluded",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
	audioSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ttsd",
			Subsystem: "synth",
			Name:      "audio_seconds",
			Help:      "Duration of synthesized audio",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80},
		},
	)
)
