package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesTotal tracks detected opportunities by strategy.
	OpportunitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybot_opportunities_total",
			Help: "Total number of opportunities detected",
		},
		[]string{"strategy"},
	)

	// AnalyzeDuration tracks strategy analysis latency.
	AnalyzeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polybot_strategy_analyze_duration_seconds",
			Help:    "Duration of strategy analysis per scan cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)
)
