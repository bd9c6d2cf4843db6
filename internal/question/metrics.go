package question

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "assessment",
	Subsystem: "itembank",
	Name:      "pool_cache_lookups_total",
	Help:      "Question pool cache lookups by result.",
}, []string{"result"})
