// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package websocket

import (
	"context"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/logging"
)

// AlertSource is the correlator's change stream.
type AlertSource interface {
	Subscribe(buffer int) (<-chan alerts.Event, func())
}

// AlertStream forwards every alert change to the hub.
type AlertStream struct {
	hub    *Hub
	source AlertSource
	buffer int
}

// NewAlertStream creates a bridge from source to hub. buffer sizes the
// subscription channel; the correlator drops events for a full
// subscriber, so it should cover bursts.
func NewAlertStream(hub *Hub, source AlertSource, buffer int) *AlertStream {
	if buffer <= 0 {
		buffer = broadcastBuffer
	}
	return &AlertStream{hub: hub, source: source, buffer: buffer}
}

// RunWithContext subscribes and forwards until ctx is canceled.
func (s *AlertStream) RunWithContext(ctx context.Context) error {
	events, cancel := s.source.Subscribe(s.buffer)
	defer cancel()

	logging.Info().Msg("alert stream to websocket started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("alert stream to websocket stopped")
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.hub.BroadcastAlertChange(ev)
		}
	}
}
