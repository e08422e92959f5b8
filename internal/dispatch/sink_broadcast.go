// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

import "context"

// MessageTypeNotification is the websocket message type for events.
const MessageTypeNotification = "notification"

// Broadcaster fans a message out to connected UI clients.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// BroadcastSink publishes events to the UI notification feed. Slow
// clients are the hub's concern; delivery here never fails.
type BroadcastSink struct {
	b Broadcaster
}

// NewBroadcastSink creates a sink over b.
func NewBroadcastSink(b Broadcaster) *BroadcastSink {
	return &BroadcastSink{b: b}
}

// Name returns the sink name.
func (s *BroadcastSink) Name() string { return "ui" }

// Deliver broadcasts ev.
func (s *BroadcastSink) Deliver(_ context.Context, ev NotificationEvent) error {
	s.b.BroadcastJSON(MessageTypeNotification, ev)
	return nil
}
