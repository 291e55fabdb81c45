package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	marksAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_marks_total",
		Help: "Accepted attendance marks by source and status.",
	}, []string{"source", "status"})

	marksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_rejections_total",
		Help: "Rejected marking attempts by source and reason.",
	}, []string{"source", "reason"})

	reportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_reports_generated_total",
		Help: "Daily reports generated.",
	})
)

// MarkAccepted counts a successful ledger append.
func MarkAccepted(source, status string) {
	marksAccepted.WithLabelValues(source, status).Inc()
}

// MarkRejected counts a rejected marking attempt.
func MarkRejected(source, reason string) {
	marksRejected.WithLabelValues(source, reason).Inc()
}

// ReportGenerated counts a daily report run.
func ReportGenerated() {
	reportsGenerated.Inc()
}
