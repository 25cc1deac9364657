// Prometheus instrumentation for bot traffic. Label sets stay small and
// bounded: update kind, command name from a fixed table, and coarse
// outcome buckets.
package bot

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// updatesTotal counts inbound updates by kind (message, membership, other).
	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of inbound chat updates.",
		},
		[]string{"kind"},
	)

	// commandsTotal counts dispatched commands. Command names come from the
	// fixed command table, so cardinality is bounded.
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of dispatched commands.",
		},
		[]string{"command"},
	)

	// lookupsTotal counts metadata lookups by kind and outcome.
	lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_lookups_total",
			Help: "Total number of metadata lookups by outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// deletionsTotal counts scheduled message deletions by outcome.
	deletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_message_deletions_total",
			Help: "Total number of scheduled message deletions.",
		},
		[]string{"outcome"},
	)

	// filterHitsTotal counts messages removed by the moderation filter.
	filterHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_filter_hits_total",
			Help: "Total number of messages removed by the moderation filter.",
		},
	)

	// dialogsActive gauges in-flight guided-dialog sessions.
	dialogsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_dialogs_active",
			Help: "Current number of active guided-dialog sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		updatesTotal,
		commandsTotal,
		lookupsTotal,
		deletionsTotal,
		filterHitsTotal,
		dialogsActive,
	)
}

const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeQuota    = "quota_exceeded"
	outcomeError    = "error"
)
