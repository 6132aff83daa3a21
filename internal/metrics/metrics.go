// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LprFramesTotal counts complete frames extracted per camera.
	LprFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_lpr_frames_total",
			Help: "Total number of complete LPR frames extracted",
		},
		[]string{"camera"},
	)

	// LprDiscardedBytesTotal counts bytes dropped ahead of a start marker.
	LprDiscardedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_lpr_discarded_bytes_total",
			Help: "Total number of bytes discarded with no matching start marker",
		},
		[]string{"camera"},
	)

	// LprParseErrorsTotal counts frames that could not be parsed into records.
	LprParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_lpr_parse_errors_total",
			Help: "Total number of frames rejected by the record parser",
		},
		[]string{"camera"},
	)

	// ReconnectAttemptsTotal counts supervisor-issued connect attempts.
	ReconnectAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_reconnect_attempts_total",
			Help: "Total number of reconnect attempts issued by link supervisors",
		},
		[]string{"camera"},
	)

	// EventsDispatchedTotal counts events delivered to a registered handler.
	EventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_events_dispatched_total",
			Help: "Total number of events delivered to a handler",
		},
		[]string{"event"},
	)

	// EventsUnhandledTotal counts dispatches with no registered handler.
	EventsUnhandledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parkgate_events_unhandled_total",
			Help: "Total number of events dispatched with no registered handler",
		},
	)

	// EventHandlerFaultsTotal counts handler errors and contained panics.
	EventHandlerFaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_event_handler_faults_total",
			Help: "Total number of handler errors and contained panics",
		},
		[]string{"event", "kind"},
	)

	// HTTPClientRequestsTotal counts outbound requests by terminal stage.
	HTTPClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_http_client_requests_total",
			Help: "Total number of outbound HTTP requests by outcome stage",
		},
		[]string{"target", "outcome"},
	)

	// HTTPServerRequestsTotal counts inbound requests by path and status.
	HTTPServerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkgate_http_server_requests_total",
			Help: "Total number of inbound HTTP requests by path and status",
		},
		[]string{"path", "status"},
	)
)
