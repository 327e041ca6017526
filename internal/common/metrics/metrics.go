// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_resolved_total",
			Help: "Total number of chat inputs resolved, by classified intent",
		},
		[]string{"intent"},
	)

	CommandsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_executed_total",
			Help: "Total number of actions executed, by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	CommandsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_failed_total",
			Help: "Total number of commands that produced a negative result, by error code",
		},
		[]string{"error_code"},
	)

	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "chat_resolve_duration_seconds",
			Help: "Duration of the resolve pipeline (tokenize through build)",
		},
	)

	ExecuteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_execute_duration_seconds",
			Help: "Duration of action execution including store calls",
		},
		[]string{"intent"},
	)

	StoreCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_calls_total",
			Help: "Total ledger store operations, by operation and collection",
		},
		[]string{"operation", "collection"},
	)
)
