// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Feed source names.
const (
	FeedSourceNone      = "none"
	FeedSourceSimulator = "simulator"
	FeedSourceNATS      = "nats"
)

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateTracking()...)
	errs = append(errs, c.validateDetection()...)
	errs = append(errs, c.validateDispatch()...)
	errs = append(errs, c.validateNotifiers()...)
	errs = append(errs, c.validateFeed()...)
	if c.Archive.Enabled && c.Archive.Path == "" {
		errs = append(errs, errors.New("ARCHIVE_PATH is required when ARCHIVE_ENABLED=true"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func (c *Config) validateServer() []error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.IngestRateLimit < 0 {
		errs = append(errs, errors.New("INGEST_RATE_LIMIT must not be negative"))
	}
	return errs
}

func (c *Config) validateTracking() []error {
	var errs []error
	if c.Tracking.HistoryCapacity < 2 {
		errs = append(errs, fmt.Errorf("HISTORY_CAPACITY must be at least 2, got %d", c.Tracking.HistoryCapacity))
	}
	if c.Tracking.SilencePeriod <= 0 {
		errs = append(errs, errors.New("SILENCE_PERIOD must be positive"))
	}
	if c.Tracking.GridCellKm <= 0 {
		errs = append(errs, errors.New("GRID_CELL_KM must be positive"))
	}
	return errs
}

func (c *Config) validateDetection() []error {
	var errs []error
	col := c.Detection.Collision
	if col.Enabled {
		if col.SearchRadiusKm <= 0 || col.CPAThresholdKm <= 0 || col.Horizon <= 0 {
			errs = append(errs, errors.New("collision detector radius, CPA threshold and horizon must be positive"))
		}
		if col.CPAThresholdKm > col.SearchRadiusKm {
			errs = append(errs, fmt.Errorf("COLLISION_CPA_THRESHOLD_KM (%.2f) exceeds COLLISION_SEARCH_RADIUS_KM (%.2f)",
				col.CPAThresholdKm, col.SearchRadiusKm))
		}
	}
	loi := c.Detection.Loitering
	if loi.Enabled {
		if loi.Window <= 0 || loi.RadiusMeters <= 0 {
			errs = append(errs, errors.New("loitering window and radius must be positive"))
		}
		if loi.MinSamples < 2 {
			errs = append(errs, fmt.Errorf("LOITERING_MIN_SAMPLES must be at least 2, got %d", loi.MinSamples))
		}
		if loi.MinSpan < 0 || loi.MinSpan > loi.Window {
			errs = append(errs, fmt.Errorf("LOITERING_MIN_SPAN (%s) must be within LOITERING_WINDOW (%s)", loi.MinSpan, loi.Window))
		}
		if loi.MinSamples > c.Tracking.HistoryCapacity {
			errs = append(errs, fmt.Errorf("LOITERING_MIN_SAMPLES (%d) exceeds HISTORY_CAPACITY (%d)",
				loi.MinSamples, c.Tracking.HistoryCapacity))
		}
	}
	gr := c.Detection.Grounding
	if gr.Enabled && gr.StopSpeedKn >= gr.FromSpeedKn {
		errs = append(errs, errors.New("GROUNDING_STOP_SPEED_KN must be below GROUNDING_FROM_SPEED_KN"))
	}
	an := c.Detection.Anomaly
	if an.Enabled && (an.MaxImpliedSpeedKn <= 0 || an.MinJumpKm < 0) {
		errs = append(errs, errors.New("ANOMALY_MAX_SPEED_KN must be positive and ANOMALY_MIN_JUMP_KM non-negative"))
	}
	if d := c.Detection.Discharge.MinConfidence; d < 0 || d > 1 {
		errs = append(errs, errors.New("DISCHARGE_MIN_CONFIDENCE must be within [0,1]"))
	}
	return errs
}

func (c *Config) validateDispatch() []error {
	var errs []error
	d := c.Dispatch
	if d.QueueSize < 1 {
		errs = append(errs, errors.New("DISPATCH_QUEUE_SIZE must be positive"))
	}
	if d.MaxAttempts < 1 {
		errs = append(errs, errors.New("DISPATCH_MAX_ATTEMPTS must be at least 1"))
	}
	if d.InitialBackoff <= 0 || d.MaxBackoff < d.InitialBackoff {
		errs = append(errs, errors.New("dispatch backoff must satisfy 0 < initial <= max"))
	}
	if d.BreakerThreshold == 0 {
		errs = append(errs, errors.New("DISPATCH_BREAKER_THRESHOLD must be positive"))
	}
	return errs
}

func (c *Config) validateNotifiers() []error {
	var errs []error
	if c.Notifiers.Webhook.Enabled {
		if err := validateHTTPURL(c.Notifiers.Webhook.URL); err != nil {
			errs = append(errs, fmt.Errorf("WEBHOOK_URL: %w", err))
		}
	}
	if c.Notifiers.Discord.Enabled {
		if err := validateHTTPURL(c.Notifiers.Discord.WebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("DISCORD_WEBHOOK_URL: %w", err))
		}
	}
	return errs
}

func (c *Config) validateFeed() []error {
	var errs []error
	switch c.Feed.Source {
	case FeedSourceNone, "":
	case FeedSourceSimulator:
		if c.Feed.Simulator.Vessels < 1 || c.Feed.Simulator.Interval <= 0 {
			errs = append(errs, errors.New("simulator needs at least one vessel and a positive interval"))
		}
	case FeedSourceNATS:
		if c.Feed.NATS.ReportsTopic == "" {
			errs = append(errs, errors.New("NATS_REPORTS_TOPIC is required when FEED_SOURCE=nats"))
		}
		if !c.Feed.NATS.EmbeddedServer && c.Feed.NATS.URL == "" {
			errs = append(errs, errors.New("NATS_URL is required without an embedded server"))
		}
	default:
		errs = append(errs, fmt.Errorf("FEED_SOURCE must be none, simulator or nats, got %q", c.Feed.Source))
	}
	return errs
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
