// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/geo"
)

func sampleEvent(severity alerts.Severity) NotificationEvent {
	return NotificationEvent{
		ID:             "evt-1",
		AlertID:        "alert-1",
		TransitionKind: TransitionCreated,
		Severity:       severity,
		Kind:           detection.KindGrounding,
		Title:          "Possible grounding: 366998877",
		Description:    "Vessel 366998877 dropped from 12.0 kn to 0.1 kn inside Reef Shoal",
		VesselID:       "366998877",
		Position:       &geo.Point{Lat: 10, Lon: 70},
		EmittedAt:      t0,
	}
}

func TestWebhookSinkDeliver(t *testing.T) {
	t.Parallel()

	var got WebhookPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewWebhookSink(WebhookConfig{
		URL:       server.URL,
		Headers:   map[string]string{"Authorization": "Bearer token"},
		RateLimit: time.Millisecond,
	})
	if err := sink.Deliver(context.Background(), sampleEvent(alerts.SeverityCritical)); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if auth != "Bearer token" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Source != "tidewatch" || got.EventType != "tidewatch.notification" || got.Event.AlertID != "alert-1" {
		t.Errorf("payload = %+v", got)
	}
}

func TestWebhookSinkErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewWebhookSink(WebhookConfig{URL: server.URL, RateLimit: time.Millisecond})
	if err := sink.Deliver(context.Background(), sampleEvent(alerts.SeverityHigh)); err == nil {
		t.Error("Deliver() succeeded on 502")
	}
}

func TestWebhookSinkThroughDispatcher(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(testConfig(), []Sink{NewWebhookSink(WebhookConfig{URL: server.URL, RateLimit: time.Millisecond})})
	run(t, d)

	d.OnAlertChanged(alert("A", alerts.SeverityCritical, 1, t0), true)
	waitFor(t, "retry to succeed", func() bool { return hits.Load() == 2 && d.Pending() == 0 })
	if u := d.Undelivered(); len(u) != 0 {
		t.Errorf("Undelivered() = %+v", u)
	}
}

func TestDiscordSinkDeliver(t *testing.T) {
	t.Parallel()

	var got discordWebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewDiscordSink(DiscordConfig{WebhookURL: server.URL, RateLimit: time.Millisecond})
	if err := sink.Deliver(context.Background(), sampleEvent(alerts.SeverityCritical)); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if len(got.Embeds) != 1 {
		t.Fatalf("embeds = %d", len(got.Embeds))
	}
	e := got.Embeds[0]
	if e.Color != 0xFF0000 || e.Title != "Possible grounding: 366998877" {
		t.Errorf("embed = %+v", e)
	}
	var hasVessel bool
	for _, f := range e.Fields {
		if f.Name == "Vessel" && f.Value == "366998877" {
			hasVessel = true
		}
	}
	if !hasVessel {
		t.Errorf("fields = %+v, want Vessel", e.Fields)
	}
}

func TestSeverityColor(t *testing.T) {
	t.Parallel()

	tests := map[alerts.Severity]int{
		alerts.SeverityCritical: 0xFF0000,
		alerts.SeverityHigh:     0xFFA500,
		alerts.SeverityMedium:   0xF1C40F,
		alerts.SeverityLow:      0x3498DB,
	}
	for s, want := range tests {
		if got := severityColor(s); got != want {
			t.Errorf("severityColor(%s) = %#x, want %#x", s, got, want)
		}
	}
}

func TestAnnounce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		severity alerts.Severity
		text     string
		rate     float64
		pitch    float64
	}{
		{
			name:     "critical",
			severity: alerts.SeverityCritical,
			text:     "CRITICAL ALERT: Possible grounding: 366998877. Vessel 366998877 dropped from 12.0 kn to 0.1 kn inside Reef Shoal Ship MMSI: 366998877",
			rate:     0.85,
			pitch:    1.2,
		},
		{
			name:     "high",
			severity: alerts.SeverityHigh,
			text:     "HIGH PRIORITY ALERT: Possible grounding: 366998877. Vessel 366998877 dropped from 12.0 kn to 0.1 kn inside Reef Shoal Ship MMSI: 366998877",
			rate:     0.9,
			pitch:    1.1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := Announce(sampleEvent(tt.severity))
			if a.Text != tt.text {
				t.Errorf("Text = %q\nwant   %q", a.Text, tt.text)
			}
			if a.Rate != tt.rate || a.Pitch != tt.pitch || a.Volume != 0.9 {
				t.Errorf("rate/pitch/volume = %v/%v/%v", a.Rate, a.Pitch, a.Volume)
			}
		})
	}
}

// serialSpeaker fails the test if two announcements overlap.
type serialSpeaker struct {
	mu      sync.Mutex
	active  int32
	overlap atomic.Bool
	spoken  []string
}

func (s *serialSpeaker) Speak(_ context.Context, a Announcement) error {
	if atomic.AddInt32(&s.active, 1) > 1 {
		s.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	s.spoken = append(s.spoken, a.Text)
	s.mu.Unlock()
	atomic.AddInt32(&s.active, -1)
	return nil
}

func TestVoiceSinkSerializes(t *testing.T) {
	t.Parallel()

	speaker := &serialSpeaker{}
	sink := NewVoiceSink(speaker)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Deliver(context.Background(), sampleEvent(alerts.SeverityHigh))
		}()
	}
	wg.Wait()

	if speaker.overlap.Load() {
		t.Error("announcements overlapped")
	}
	if len(speaker.spoken) != 8 {
		t.Errorf("spoken = %d, want 8", len(speaker.spoken))
	}
}

func TestVoiceSinkDefaultSpeaker(t *testing.T) {
	t.Parallel()

	if err := NewVoiceSink(nil).Deliver(context.Background(), sampleEvent(alerts.SeverityCritical)); err != nil {
		t.Errorf("Deliver() error = %v", err)
	}
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeBroadcaster) BroadcastJSON(messageType string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, messageType)
}

func TestBroadcastSink(t *testing.T) {
	t.Parallel()

	b := &fakeBroadcaster{}
	sink := NewBroadcastSink(b)
	if err := sink.Deliver(context.Background(), sampleEvent(alerts.SeverityHigh)); err != nil {
		t.Fatal(err)
	}
	if len(b.messages) != 1 || b.messages[0] != MessageTypeNotification {
		t.Errorf("messages = %v", b.messages)
	}
}
