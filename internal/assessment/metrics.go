package assessment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Name:      "sessions_started_total",
		Help:      "Test sessions created by track.",
	}, []string{"track"})

	sessionsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Name:      "sessions_expired_total",
		Help:      "Sessions found past their deadline on access.",
	}, []string{"track"})

	questionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Name:      "questions_served_total",
		Help:      "New questions assigned to sessions by track and band.",
	}, []string{"track", "band"})

	responsesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Name:      "responses_recorded_total",
		Help:      "Responses recorded by question type and correctness.",
	}, []string{"question_type", "correct"})

	finalizeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assessment",
		Name:      "finalize_total",
		Help:      "Finalize attempts by result.",
	}, []string{"result"})

	skippedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assessment",
		Name:      "scoring_skipped_responses_total",
		Help:      "Responses left out of scoring because their question is missing.",
	})

	overallScores = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "assessment",
		Name:      "overall_score",
		Help:      "Distribution of overall report scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	}, []string{"track"})
)
