// Package metrics provides Prometheus metrics for the Stride engine:
// counters, gauges, and histograms for completions, XP, and the daily
// forgiveness pass.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Completions ────────────────────────────────────────────────────────────

// CompletionsRecorded tracks committed completions by cadence.
var CompletionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "completions_recorded_total",
	Help:      "Total completions committed.",
}, []string{"cadence"})

// CompletionsRejected tracks eligibility rejections by reason class.
var CompletionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "completions_rejected_total",
	Help:      "Total completion attempts rejected.",
}, []string{"reason"})

// CommitDuration tracks the full commit pipeline duration in seconds.
var CommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "stride",
	Name:      "commit_duration_seconds",
	Help:      "Completion commit transaction duration.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Gamification ───────────────────────────────────────────────────────────

// XPAwarded tracks total XP granted by ledger source.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "xp_awarded_total",
	Help:      "Total XP granted.",
}, []string{"source"})

// LevelUps tracks level boundary crossings.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "level_ups_total",
	Help:      "Total level-ups across all users.",
})

// ─── Forgiveness ────────────────────────────────────────────────────────────

// ForgivenessTokensSpent tracks tokens consumed by the daily pass.
var ForgivenessTokensSpent = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "forgiveness_tokens_spent_total",
	Help:      "Forgiveness tokens spent by the daily pass.",
})

// ForgivenessPassFailures tracks per-user failures during the daily pass.
var ForgivenessPassFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "forgiveness_pass_failures_total",
	Help:      "Per-user failures during the daily forgiveness pass.",
})

// ─── Repair ─────────────────────────────────────────────────────────────────

// StatsRecomputes tracks full habit stats recomputes (repair/migration).
var StatsRecomputes = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "stats_recomputes_total",
	Help:      "Full habit stats recomputes.",
})

// InvariantViolations tracks detected derived-stats invariant violations.
var InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stride",
	Name:      "invariant_violations_total",
	Help:      "Detected derived-stats invariant violations.",
})
