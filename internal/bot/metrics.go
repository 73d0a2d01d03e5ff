package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanCyclesTotal tracks completed scan cycles.
	ScanCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybot_scan_cycles_total",
		Help: "Total number of completed scan cycles",
	})

	// ScanErrorsTotal tracks failed scan cycles.
	ScanErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybot_scan_errors_total",
		Help: "Total number of failed scan cycles",
	})

	// ScanDuration tracks scan cycle latency.
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polybot_scan_duration_seconds",
		Help:    "Duration of full scan cycles",
		Buckets: prometheus.DefBuckets,
	})

	// PushUpdatesTotal tracks price updates applied from the stream.
	PushUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybot_push_updates_total",
		Help: "Total number of stream price updates applied to the book",
	})
)
