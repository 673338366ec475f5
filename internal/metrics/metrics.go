package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersDispatched counts due reminders published for notification.
	RemindersDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_reminders_dispatched_total",
		Help: "Number of due reminders dispatched to the notification queue.",
	})

	// ReminderConflicts counts reminder advances skipped because another
	// process advanced the row first.
	ReminderConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_reminder_version_conflicts_total",
		Help: "Number of reminder advances skipped due to version conflicts.",
	})

	// LedgerExports counts expenses exported to the ledger spreadsheet,
	// partitioned by outcome.
	LedgerExports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_ledger_exports_total",
		Help: "Number of expense exports to the ledger, by outcome.",
	}, []string{"outcome"})

	// HTTPRequests counts API requests by handler and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_http_requests_total",
		Help: "Number of HTTP requests, by handler and status class.",
	}, []string{"handler", "status"})

	// ReportCacheHits counts revenue report cache lookups by result.
	ReportCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_report_cache_lookups_total",
		Help: "Number of report cache lookups, by result.",
	}, []string{"result"})
)
