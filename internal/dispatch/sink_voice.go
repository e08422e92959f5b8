// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

import (
	"context"
	"strings"
	"sync"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/logging"
)

// Announcement is one utterance for a text-to-speech engine.
type Announcement struct {
	Text     string          `json:"text"`
	Rate     float64         `json:"rate"`
	Pitch    float64         `json:"pitch"`
	Volume   float64         `json:"volume"`
	Severity alerts.Severity `json:"severity"`
	AlertID  string          `json:"alertId"`
}

// Speaker plays announcements. Implementations may block until the
// utterance finishes.
type Speaker interface {
	Speak(ctx context.Context, a Announcement) error
}

// LogSpeaker writes announcements to the log instead of speaking them.
type LogSpeaker struct{}

// Speak logs the announcement.
func (LogSpeaker) Speak(_ context.Context, a Announcement) error {
	logging.Info().
		Str("alert_id", a.AlertID).
		Str("severity", string(a.Severity)).
		Float64("rate", a.Rate).
		Float64("pitch", a.Pitch).
		Msg(a.Text)
	return nil
}

// VoiceSink turns events into announcements, one at a time.
type VoiceSink struct {
	speaker Speaker
	mu      sync.Mutex
}

// NewVoiceSink creates a voice sink. A nil speaker logs announcements.
func NewVoiceSink(speaker Speaker) *VoiceSink {
	if speaker == nil {
		speaker = LogSpeaker{}
	}
	return &VoiceSink{speaker: speaker}
}

// Name returns the sink name.
func (s *VoiceSink) Name() string { return "voice" }

// Deliver speaks ev. Concurrent calls are serialized so announcements
// never overlap.
func (s *VoiceSink) Deliver(ctx context.Context, ev NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaker.Speak(ctx, Announce(ev))
}

// Announce builds the spoken form of an event.
func Announce(ev NotificationEvent) Announcement {
	a := Announcement{
		Rate:     1.0,
		Pitch:    1.0,
		Volume:   0.9,
		Severity: ev.Severity,
		AlertID:  ev.AlertID,
	}

	var prefix string
	switch ev.Severity {
	case alerts.SeverityCritical:
		prefix = "CRITICAL ALERT: "
		a.Rate, a.Pitch = 0.85, 1.2
	case alerts.SeverityHigh:
		prefix = "HIGH PRIORITY ALERT: "
		a.Rate, a.Pitch = 0.9, 1.1
	default:
		prefix = "ALERT: "
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(strings.TrimSuffix(ev.Title, "."))
	b.WriteString(".")
	if ev.Description != "" {
		b.WriteString(" ")
		b.WriteString(ev.Description)
	}
	if ev.VesselID != "" {
		b.WriteString(" Ship MMSI: ")
		b.WriteString(ev.VesselID)
	}
	a.Text = b.String()
	return a
}
