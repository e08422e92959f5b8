// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tidewatch/internal/alerts"
)

// DiscordConfig configures the Discord sink.
type DiscordConfig struct {
	WebhookURL string
	RateLimit  time.Duration
}

// DiscordSink posts notification events as Discord embeds.
type DiscordSink struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter
}

// NewDiscordSink creates a Discord sink.
func NewDiscordSink(config DiscordConfig) *DiscordSink {
	return &DiscordSink{
		webhookURL: config.WebhookURL,
		limiter:    newLimiter(config.RateLimit),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the sink name.
func (s *DiscordSink) Name() string { return "discord" }

// Deliver posts ev to the Discord webhook.
func (s *DiscordSink) Deliver(ctx context.Context, ev NotificationEvent) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(discordWebhookPayload{Embeds: []discordEmbed{buildEmbed(ev)}})
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return doPost(s.client, req, "discord webhook")
}

func buildEmbed(ev NotificationEvent) discordEmbed {
	fields := []discordEmbedField{
		{Name: "Severity", Value: string(ev.Severity), Inline: true},
		{Name: "Kind", Value: string(ev.Kind), Inline: true},
		{Name: "Transition", Value: string(ev.TransitionKind), Inline: true},
	}
	if ev.VesselID != "" {
		fields = append(fields, discordEmbedField{Name: "Vessel", Value: ev.VesselID, Inline: true})
	}
	if ev.Position != nil {
		fields = append(fields, discordEmbedField{
			Name:   "Position",
			Value:  fmt.Sprintf("%.4f, %.4f", ev.Position.Lat, ev.Position.Lon),
			Inline: true,
		})
	}

	return discordEmbed{
		Title:       ev.Title,
		Description: ev.Description,
		Color:       severityColor(ev.Severity),
		Timestamp:   ev.EmittedAt.Format(time.RFC3339),
		Fields:      fields,
		Footer:      discordEmbedFooter{Text: "Tidewatch"},
	}
}

func severityColor(s alerts.Severity) int {
	switch s {
	case alerts.SeverityCritical:
		return 0xFF0000
	case alerts.SeverityHigh:
		return 0xFFA500
	case alerts.SeverityMedium:
		return 0xF1C40F
	default:
		return 0x3498DB
	}
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}
