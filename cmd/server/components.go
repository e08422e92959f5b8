// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package main

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/archive"
	"github.com/tomtom215/tidewatch/internal/config"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/dispatch"
	"github.com/tomtom215/tidewatch/internal/geo"
	"github.com/tomtom215/tidewatch/internal/logging"
	ws "github.com/tomtom215/tidewatch/internal/websocket"
)

// loadZones returns the restricted-zone lookup, or a nil interface when no
// GeoJSON file is configured. A typed nil *geo.ZoneSet would make the
// grounding detector believe zones are loaded.
func loadZones(cfg config.ZonesConfig) (detection.ZoneLookup, error) {
	if cfg.GeoJSONPath == "" {
		logging.Info().Msg("No restricted zones configured; grounding is reported everywhere")
		return nil, nil
	}
	zones, err := geo.LoadZonesFile(cfg.GeoJSONPath)
	if err != nil {
		return nil, fmt.Errorf("load restricted zones: %w", err)
	}
	logging.Info().Str("path", cfg.GeoJSONPath).Int("zones", zones.Len()).Msg("Restricted zones loaded")
	return zones, nil
}

// correlatorOptions names zones in the correlator's reports when the
// loaded lookup can name them.
func correlatorOptions(zones detection.ZoneLookup) []alerts.Option {
	if namer, ok := zones.(alerts.ZoneNamer); ok {
		return []alerts.Option{alerts.WithZoneNamer(namer)}
	}
	return nil
}

type detectorSettings struct {
	name    string
	enabled bool
	config  interface{}
}

// detectorSettingsFrom maps the detection config section onto each
// detector's JSON threshold document. Fields the config file does not
// expose keep the detector defaults.
func detectorSettingsFrom(cfg config.DetectionConfig) []detectorSettings {
	collision := detection.DefaultCollisionConfig()
	collision.SearchRadiusKm = cfg.Collision.SearchRadiusKm
	collision.CPAThresholdKm = cfg.Collision.CPAThresholdKm
	collision.HorizonMinutes = cfg.Collision.Horizon.Minutes()

	loitering := detection.DefaultLoiteringConfig()
	loitering.WindowMinutes = cfg.Loitering.Window.Minutes()
	loitering.RadiusMeters = cfg.Loitering.RadiusMeters
	loitering.MaxAvgSpeedKnots = cfg.Loitering.MaxAvgSpeedKn
	loitering.MinSamples = cfg.Loitering.MinSamples
	loitering.MinSpanMinutes = cfg.Loitering.MinSpan.Minutes()

	grounding := detection.DefaultGroundingConfig()
	grounding.FromSpeedKnots = cfg.Grounding.FromSpeedKn
	grounding.StopSpeedKnots = cfg.Grounding.StopSpeedKn

	discharge := detection.DefaultDischargeConfig()
	discharge.MinConfidence = cfg.Discharge.MinConfidence

	anomaly := detection.DefaultAnomalyConfig()
	anomaly.MaxImpliedSpeedKnots = cfg.Anomaly.MaxImpliedSpeedKn
	anomaly.MinJumpKm = cfg.Anomaly.MinJumpKm

	return []detectorSettings{
		{"collision", cfg.Collision.Enabled, collision},
		{"loitering", cfg.Loitering.Enabled, loitering},
		{"grounding", cfg.Grounding.Enabled, grounding},
		{"discharge", cfg.Discharge.Enabled, discharge},
		{"anomaly", cfg.Anomaly.Enabled, anomaly},
	}
}

// configureDetectors applies configured thresholds through the same
// validating path as PUT /api/v1/detectors/{name}.
func configureDetectors(engine *detection.Engine, cfg config.DetectionConfig) error {
	for _, s := range detectorSettingsFrom(cfg) {
		raw, err := json.Marshal(s.config)
		if err != nil {
			return fmt.Errorf("encode %s thresholds: %w", s.name, err)
		}
		if err := engine.ConfigureDetector(s.name, raw); err != nil {
			return err
		}
		if err := engine.SetDetectorEnabled(s.name, s.enabled); err != nil {
			return err
		}
	}
	return nil
}

// buildSinks creates the notification sinks in delivery order. The UI feed
// comes first so operators see an alert before slower external channels
// are attempted.
func buildSinks(cfg *config.Config, hub *ws.Hub) []dispatch.Sink {
	var sinks []dispatch.Sink

	if cfg.WebSocket.Enabled && hub != nil {
		sinks = append(sinks, dispatch.NewBroadcastSink(hub))
	}
	if cfg.Notifiers.Voice.Enabled {
		sinks = append(sinks, dispatch.NewVoiceSink(dispatch.LogSpeaker{}))
	}
	if n := cfg.Notifiers.Webhook; n.Enabled && n.URL != "" {
		sinks = append(sinks, dispatch.NewWebhookSink(dispatch.WebhookConfig{
			URL:       n.URL,
			Headers:   n.Headers,
			RateLimit: n.RateLimit,
		}))
		logging.Info().Str("url", n.URL).Dur("rate_limit", n.RateLimit).Msg("Webhook sink registered")
	}
	if n := cfg.Notifiers.Discord; n.Enabled && n.WebhookURL != "" {
		sinks = append(sinks, dispatch.NewDiscordSink(dispatch.DiscordConfig{
			WebhookURL: n.WebhookURL,
			RateLimit:  n.RateLimit,
		}))
		logging.Info().Dur("rate_limit", n.RateLimit).Msg("Discord sink registered")
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logging.Info().Strs("sinks", names).Msg("Notification sinks configured")
	return sinks
}

func dispatchConfigFrom(cfg config.DispatchConfig) dispatch.Config {
	d := dispatch.DefaultConfig()
	d.QueueSize = cfg.QueueSize
	d.MaxAttempts = cfg.MaxAttempts
	d.InitialBackoff = cfg.InitialBackoff
	d.MaxBackoff = cfg.MaxBackoff
	d.DeliveryTimeout = cfg.DeliveryTimeout
	d.BreakerThreshold = cfg.BreakerThreshold
	d.BreakerTimeout = cfg.BreakerTimeout
	return d
}

// openArchive opens the BadgerDB alert archive, or returns nil when it is
// disabled.
func openArchive(cfg config.ArchiveConfig) (*archive.Archive, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Alert archive disabled (ARCHIVE_ENABLED=false)")
		return nil, nil
	}
	a, err := archive.Open(archive.Config{Path: cfg.Path, SyncWrites: true})
	if err != nil {
		return nil, fmt.Errorf("open alert archive: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Msg("Alert archive opened")
	return a, nil
}
