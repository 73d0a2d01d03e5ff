package gamma

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks REST request latency by endpoint.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polybot_gamma_request_duration_seconds",
			Help:    "Duration of Gamma/CLOB REST requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// RequestErrorsTotal tracks failed REST requests by endpoint.
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybot_gamma_request_errors_total",
			Help: "Total number of failed Gamma/CLOB REST requests",
		},
		[]string{"endpoint"},
	)
)
