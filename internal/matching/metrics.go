package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filterRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assessment",
		Subsystem: "matching",
		Name:      "filter_runs_total",
		Help:      "Eligibility filter runs.",
	})

	filterResultSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assessment",
		Subsystem: "matching",
		Name:      "eligible_candidates",
		Help:      "Eligible candidates returned per filter run.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	deniedReads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assessment",
		Subsystem: "matching",
		Name:      "denied_report_reads_total",
		Help:      "Employer report reads rejected for missing consent.",
	})
)
