package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts generator runs by outcome (success, failed)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agency_report_runs_total",
			Help: "Total number of report runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration observes end-to-end run duration
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agency_report_run_duration_seconds",
			Help:    "Report run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// PagesTotal counts page outcomes (ok, failed, skipped)
	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agency_report_pages_total",
			Help: "Total number of listing pages processed by status",
		},
		[]string{"status"},
	)

	// RecordsTotal counts classified records
	RecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agency_report_records_total",
			Help: "Total number of agency records classified",
		},
	)
)
