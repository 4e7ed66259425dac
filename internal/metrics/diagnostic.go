// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus instrumentation for the
// diagnostic core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsStarted counts diagnostic sessions that reached ACTIVE.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecuscope_sessions_started_total",
		Help: "Diagnostic sessions successfully started",
	})

	// SessionsFailed counts start attempts that failed atomically.
	SessionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecuscope_sessions_failed_total",
		Help: "Diagnostic session start failures by reason",
	}, []string{"reason"})

	// SessionsEnded counts completed sessions.
	SessionsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecuscope_sessions_ended_total",
		Help: "Diagnostic sessions ended",
	})

	// TabsUnlocked counts gate transitions LOCKED -> UNLOCKED per tab.
	TabsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecuscope_tabs_unlocked_total",
		Help: "Tab gates newly unlocked by progress reports",
	}, []string{"tab"})

	// ProgressReports counts accepted progress reports per module.
	ProgressReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecuscope_progress_reports_total",
		Help: "Progress reports merged into module state",
	}, []string{"module"})

	// CacheHits / CacheMisses track the trouble-code result cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecuscope_result_cache_hits_total",
		Help: "Result cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecuscope_result_cache_misses_total",
		Help: "Result cache misses",
	})

	// LoaderFailures counts diagnostic data source errors (never cached).
	LoaderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecuscope_loader_failures_total",
		Help: "Trouble-code loader failures",
	})

	// ActionLogEvictions counts FIFO evictions from the session action log.
	ActionLogEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecuscope_action_log_evictions_total",
		Help: "Session action log entries evicted at the 50-entry bound",
	})
)
