// Package metrics registers the process-wide prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedMessages counts inbound feed messages by channel (inverter, total,
	// battery, other).
	FeedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvmon_feed_messages_total",
		Help: "Inbound device feed messages processed, by channel.",
	}, []string{"channel"})

	// FeedCoercions counts payloads that failed numeric parsing and were
	// coerced to zero.
	FeedCoercions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pvmon_feed_coercions_total",
		Help: "Non-numeric feed payloads coerced to zero.",
	})

	// ForecastFetches counts forecast HTTP attempts by outcome (ok,
	// rate_limited, error).
	ForecastFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvmon_forecast_fetch_attempts_total",
		Help: "Forecast endpoint fetch attempts, by outcome.",
	}, []string{"outcome"})

	// ForecastTicks counts scheduler ticks by type (full_window,
	// partial_window) and outcome (ok, skipped).
	ForecastTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvmon_forecast_ticks_total",
		Help: "Forecast scheduler ticks, by window type and outcome.",
	}, []string{"type", "outcome"})

	// HistoryResets counts times the history store was found corrupted and
	// reset to empty.
	HistoryResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pvmon_history_resets_total",
		Help: "Forecast history files reset after corruption.",
	})
)
