package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Subsystem: "audit",
		Name:      "events_total",
		Help:      "Audit events accepted by type.",
	}, []string{"event_type"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assessment",
		Subsystem: "audit",
		Name:      "events_dropped_total",
		Help:      "Audit events dropped because the buffer was full.",
	})

	sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Subsystem: "audit",
		Name:      "sink_errors_total",
		Help:      "Failed sink writes by sink.",
	}, []string{"sink"})
)
