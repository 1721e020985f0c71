// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GradingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_gradings_total",
			Help: "Total number of grading requests by outcome",
		},
		[]string{"exam_type", "outcome"},
	)

	QuestionGradeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "question_grade_errors_total",
			Help: "Questions that could not be graded and were scored zero",
		},
		[]string{"question_type"},
	)

	ExamScoreHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exam_score_percentage",
			Help:    "Distribution of exam scores as a percentage of total mark",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"exam_type"},
	)

	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grade_ledger_entries_total",
			Help: "Total number of grade ledger entries appended",
		},
		[]string{"type"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
