package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equinox_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "equinox_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	MessagesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "equinox_messages_created_total",
			Help: "Total messages admitted and persisted",
		},
	)

	MessagesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "equinox_messages_deleted_total",
			Help: "Total messages deleted",
		},
	)

	TypingSignals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "equinox_typing_signals_total",
			Help: "Total typing signals relayed",
		},
	)

	AdmissionRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "equinox_admission_rejections_total",
			Help: "Total message-creation attempts rejected by the admission limiter",
		},
	)

	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equinox_event_publish_failures_total",
			Help: "Total best-effort event publications that failed",
		},
		[]string{"event"},
	)
)
