package checker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitestatus_runs_total", Help: "Batch runs started",
	})
	mChecked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitestatus_domains_checked_total", Help: "Domains evaluated by classification",
	}, []string{"classification"})
	mStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitestatus_store_errors_total", Help: "Failed result reconciliations",
	})
	mNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitestatus_notifications_total", Help: "Summary notifications by outcome",
	}, []string{"outcome"})
	mEvalDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sitestatus_domain_check_seconds",
		Help:    "Probe plus inspection time per domain",
		Buckets: prometheus.DefBuckets,
	})
	mRunDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sitestatus_run_duration_seconds",
		Help:    "Whole batch duration",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
)
