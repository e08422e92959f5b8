// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/geo"
)

var (
	// ErrDeliveryFailed wraps the last error of an exhausted delivery.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrQueueFull is recorded when an event cannot be queued.
	ErrQueueFull = errors.New("dispatch queue full")
)

// Transition is the alert change a notification announces.
type Transition string

const (
	TransitionCreated   Transition = "created"
	TransitionEscalated Transition = "escalated"
)

// NotificationEvent is one announcement of an alert transition.
type NotificationEvent struct {
	ID             string          `json:"id"`
	AlertID        string          `json:"alertId"`
	TransitionKind Transition      `json:"transitionKind"`
	Severity       alerts.Severity `json:"severity"`
	Kind           detection.Kind  `json:"kind"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	VesselID       string          `json:"vesselId,omitempty"`
	Position       *geo.Point      `json:"position,omitempty"`
	AlertCreatedAt time.Time       `json:"alertCreatedAt"`
	EmittedAt      time.Time       `json:"emittedAt"`
}

// Sink delivers notification events to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev NotificationEvent) error
}

// Undelivered records an event a sink never accepted.
type Undelivered struct {
	Event    NotificationEvent `json:"event"`
	Sink     string            `json:"sink"`
	Error    string            `json:"error"`
	Attempts int               `json:"attempts"`
	At       time.Time         `json:"at"`
}

// Config configures the dispatcher.
type Config struct {
	// QueueSize bounds pending events.
	QueueSize int

	// MaxAttempts is the total number of tries per sink and event.
	MaxAttempts int

	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	DeliveryTimeout time.Duration

	// BreakerThreshold consecutive failures open a sink's circuit for
	// BreakerTimeout.
	BreakerThreshold uint32
	BreakerTimeout   time.Duration

	// HistoryLimit bounds the recent and undelivered lists.
	HistoryLimit int
}

// DefaultConfig returns the default dispatcher settings.
func DefaultConfig() Config {
	return Config{
		QueueSize:        1024,
		MaxAttempts:      3,
		InitialBackoff:   500 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
		DeliveryTimeout:  10 * time.Second,
		BreakerThreshold: 5,
		BreakerTimeout:   60 * time.Second,
		HistoryLimit:     500,
	}
}
