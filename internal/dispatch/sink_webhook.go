// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// WebhookConfig configures the generic webhook sink.
type WebhookConfig struct {
	URL     string
	Headers map[string]string

	// RateLimit is the minimum spacing between requests.
	RateLimit time.Duration
}

// WebhookPayload is the JSON body posted to the webhook endpoint.
type WebhookPayload struct {
	Event     NotificationEvent `json:"event"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source"`
}

// WebhookSink posts notification events as JSON.
type WebhookSink struct {
	url     string
	headers map[string]string
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(config WebhookConfig) *WebhookSink {
	return &WebhookSink{
		url:     config.URL,
		headers: config.Headers,
		limiter: newLimiter(config.RateLimit),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// newLimiter allows one request per interval; one second when unset.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		interval = time.Second
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Name returns the sink name.
func (s *WebhookSink) Name() string { return "webhook" }

// Deliver posts ev to the configured URL.
func (s *WebhookSink) Deliver(ctx context.Context, ev NotificationEvent) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(WebhookPayload{
		Event:     ev,
		EventType: "tidewatch.notification",
		Timestamp: time.Now().UTC(),
		Source:    "tidewatch",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Tidewatch/1.0")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	return doPost(s.client, req, "webhook")
}

func doPost(client *http.Client, req *http.Request, what string) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", what, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned status %d", what, resp.StatusCode)
	}
	return nil
}
