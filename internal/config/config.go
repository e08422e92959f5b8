// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package config

import "time"

// Config is the complete process configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Tracking   TrackingConfig   `koanf:"tracking"`
	Detection  DetectionConfig  `koanf:"detection"`
	Zones      ZonesConfig      `koanf:"zones"`
	Dispatch   DispatchConfig   `koanf:"dispatch"`
	Notifiers  NotifiersConfig  `koanf:"notifiers"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	Feed       FeedConfig       `koanf:"feed"`
	Archive    ArchiveConfig    `koanf:"archive"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`

	// IngestRateLimit is the per-IP request budget for POST /reports per minute. 0 disables it.
	IngestRateLimit int `koanf:"ingest_rate_limit"`
}

// TrackingConfig configures the VesselTrack store.
type TrackingConfig struct {
	HistoryCapacity int           `koanf:"history_capacity"`
	SilencePeriod   time.Duration `koanf:"silence_period"`
	GridCellKm      float64       `koanf:"grid_cell_km"`
}

// DetectionConfig groups per-detector thresholds.
type DetectionConfig struct {
	Collision CollisionConfig `koanf:"collision"`
	Loitering LoiteringConfig `koanf:"loitering"`
	Grounding GroundingConfig `koanf:"grounding"`
	Discharge DischargeConfig `koanf:"discharge"`
	Anomaly   AnomalyConfig   `koanf:"anomaly"`
}

// CollisionConfig configures the collision-risk detector.
type CollisionConfig struct {
	Enabled        bool          `koanf:"enabled"`
	SearchRadiusKm float64       `koanf:"search_radius_km"`
	CPAThresholdKm float64       `koanf:"cpa_threshold_km"`
	Horizon        time.Duration `koanf:"horizon"`
}

// LoiteringConfig configures the loitering detector.
type LoiteringConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Window        time.Duration `koanf:"window"`
	RadiusMeters  float64       `koanf:"radius_meters"`
	MaxAvgSpeedKn float64       `koanf:"max_avg_speed_kn"`
	MinSamples    int           `koanf:"min_samples"`
	MinSpan       time.Duration `koanf:"min_span"`
}

// GroundingConfig configures the grounding detector.
type GroundingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	FromSpeedKn float64 `koanf:"from_speed_kn"`
	StopSpeedKn float64 `koanf:"stop_speed_kn"`
}

// DischargeConfig configures the discharge-anomaly interface.
type DischargeConfig struct {
	Enabled       bool    `koanf:"enabled"`
	MinConfidence float64 `koanf:"min_confidence"`
}

// AnomalyConfig configures the position-jump detector.
type AnomalyConfig struct {
	Enabled           bool    `koanf:"enabled"`
	MaxImpliedSpeedKn float64 `koanf:"max_implied_speed_kn"`
	MinJumpKm         float64 `koanf:"min_jump_km"`
}

// ZonesConfig points at the restricted-zone GeoJSON reference data.
type ZonesConfig struct {
	GeoJSONPath string `koanf:"geojson_path"`
}

// DispatchConfig configures the notification dispatcher.
type DispatchConfig struct {
	QueueSize       int           `koanf:"queue_size"`
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialBackoff  time.Duration `koanf:"initial_backoff"`
	MaxBackoff      time.Duration `koanf:"max_backoff"`
	DeliveryTimeout time.Duration `koanf:"delivery_timeout"`

	// BreakerThreshold is the number of consecutive failures that opens a sink's circuit.
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// NotifiersConfig configures the outbound notification sinks.
type NotifiersConfig struct {
	Webhook WebhookConfig `koanf:"webhook"`
	Discord DiscordConfig `koanf:"discord"`
	Voice   VoiceConfig   `koanf:"voice"`
}

// WebhookConfig configures the generic webhook sink.
type WebhookConfig struct {
	Enabled   bool              `koanf:"enabled"`
	URL       string            `koanf:"url"`
	Headers   map[string]string `koanf:"headers"`
	RateLimit time.Duration     `koanf:"rate_limit"`
}

// DiscordConfig configures the Discord webhook sink.
type DiscordConfig struct {
	Enabled    bool          `koanf:"enabled"`
	WebhookURL string        `koanf:"webhook_url"`
	RateLimit  time.Duration `koanf:"rate_limit"`
}

// VoiceConfig configures the voice announcement sink.
type VoiceConfig struct {
	Enabled bool `koanf:"enabled"`
}

// WebSocketConfig configures the UI notification feed.
type WebSocketConfig struct {
	Enabled        bool     `koanf:"enabled"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// FeedConfig selects and configures the inbound position report source.
type FeedConfig struct {
	// Source is one of: none, simulator, nats.
	Source    string          `koanf:"source"`
	Simulator SimulatorConfig `koanf:"simulator"`
	NATS      NATSConfig      `koanf:"nats"`

	// PublishAlerts forwards every alert change to the alerts topic.
	PublishAlerts bool `koanf:"publish_alerts"`
}

// SimulatorConfig configures the built-in vessel simulator.
type SimulatorConfig struct {
	Vessels  int           `koanf:"vessels"`
	Interval time.Duration `koanf:"interval"`
	Seed     int64         `koanf:"seed"`
}

// NATSConfig configures the NATS JetStream transport (nats build tag).
type NATSConfig struct {
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	ReportsTopic   string `koanf:"reports_topic"`
	AlertsTopic    string `koanf:"alerts_topic"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`
}

// ArchiveConfig configures the optional BadgerDB alert archive.
type ArchiveConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig configures the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// ListenAddr returns host:port for the HTTP server.
func (s ServerConfig) ListenAddr() string {
	return joinHostPort(s.Host, s.Port)
}
