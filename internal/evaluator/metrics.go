package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assessment",
		Subsystem: "evaluator",
		Name:      "duration_seconds",
		Help:      "Time spent evaluating a submission.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2, 3},
	}, []string{"question_type"})

	evaluationTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Subsystem: "evaluator",
		Name:      "timeouts_total",
		Help:      "Submissions failed because evaluation exceeded its deadline.",
	}, []string{"question_type"})
)
