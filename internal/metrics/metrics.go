// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	ReportsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_reports_ingested_total",
			Help: "Position reports processed, by outcome",
		},
		[]string{"outcome"}, // applied, stale, invalid
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tidewatch_ingest_duration_seconds",
			Help:    "Time from report receipt to correlation completion",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	TrackedVessels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_tracked_vessels",
			Help: "Number of vessels held in the track store",
		},
	)

	// Detection
	CandidatesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_candidate_alerts_total",
			Help: "Candidate alerts emitted by hazard detectors",
		},
		[]string{"kind"},
	)

	DetectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tidewatch_detector_duration_seconds",
			Help:    "Time spent evaluating one detector",
			Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"detector"},
	)

	// Correlation
	AlertsCorrelated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_alerts_correlated_total",
			Help: "Candidate alerts folded into canonical alerts, by action",
		},
		[]string{"kind", "action"}, // created, refreshed, escalated
	)

	AlertTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_alert_transitions_total",
			Help: "Alert status transitions",
		},
		[]string{"status"},
	)

	OpenAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_open_alerts",
			Help: "Alerts currently active or acknowledged",
		},
	)

	// Dispatch
	NotificationsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_notifications_enqueued_total",
			Help: "Notification events accepted for delivery",
		},
		[]string{"transition", "severity"},
	)

	NotificationsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidewatch_notifications_deduplicated_total",
			Help: "Notification requests dropped because the transition was already announced",
		},
	)

	DeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_delivery_attempts_total",
			Help: "Delivery attempts per sink, by result",
		},
		[]string{"sink", "result"}, // success, failure, circuit_open
	)

	NotificationsUndelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_notifications_undelivered_total",
			Help: "Notifications abandoned after exhausting retries",
		},
		[]string{"sink"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tidewatch_delivery_duration_seconds",
			Help:    "Duration of a delivery to one sink including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_dispatch_queue_depth",
			Help: "Notification events waiting for delivery",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tidewatch_circuit_breaker_state",
			Help: "Sink circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"sink"},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tidewatch_websocket_connections",
			Help: "Connected websocket clients",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidewatch_websocket_messages_dropped_total",
			Help: "Broadcast messages dropped because the hub buffer was full",
		},
	)

	// Feed
	FeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_feed_messages_total",
			Help: "Messages read from inbound report feeds",
		},
		[]string{"source", "result"}, // ok, decode_error, rejected
	)

	AlertsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_alerts_published_total",
			Help: "Alert changes published to the message bus",
		},
		[]string{"result"},
	)

	// Archive
	ArchiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_archive_writes_total",
			Help: "Alert records written to the archive",
		},
		[]string{"result"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tidewatch_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordIngest records the outcome and latency of one report.
func RecordIngest(outcome string, duration time.Duration) {
	ReportsIngested.WithLabelValues(outcome).Inc()
	if outcome == "applied" {
		IngestDuration.Observe(duration.Seconds())
	}
}

// RecordDetector records one detector evaluation.
func RecordDetector(detector string, duration time.Duration, candidates int, kind string) {
	DetectorDuration.WithLabelValues(detector).Observe(duration.Seconds())
	if candidates > 0 {
		CandidatesEmitted.WithLabelValues(kind).Add(float64(candidates))
	}
}

// RecordCorrelation records what the correlator did with a candidate.
func RecordCorrelation(kind, action string) {
	AlertsCorrelated.WithLabelValues(kind, action).Inc()
}

// RecordDelivery records one delivery attempt result for a sink.
func RecordDelivery(sink string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	DeliveryAttempts.WithLabelValues(sink, result).Inc()
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetCircuitBreakerState records a breaker state as a numeric gauge.
func SetCircuitBreakerState(sink, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(sink).Set(v)
}
