// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tidewatch/config.yaml",
	"/etc/tidewatch/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in defaults without reading any source.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			IngestRateLimit: 6000,
		},
		Tracking: TrackingConfig{
			HistoryCapacity: 50,
			SilencePeriod:   30 * time.Minute,
			GridCellKm:      25,
		},
		Detection: DetectionConfig{
			Collision: CollisionConfig{
				Enabled:        true,
				SearchRadiusKm: 25,
				CPAThresholdKm: 1,
				Horizon:        30 * time.Minute,
			},
			Loitering: LoiteringConfig{
				Enabled:       true,
				Window:        30 * time.Minute,
				RadiusMeters:  500,
				MaxAvgSpeedKn: 1,
				MinSamples:    5,
				MinSpan:       25 * time.Minute,
			},
			Grounding: GroundingConfig{
				Enabled:     true,
				FromSpeedKn: 5,
				StopSpeedKn: 0.5,
			},
			Discharge: DischargeConfig{
				Enabled:       true,
				MinConfidence: 0.2,
			},
			Anomaly: AnomalyConfig{
				Enabled:           true,
				MaxImpliedSpeedKn: 60,
				MinJumpKm:         1,
			},
		},
		Dispatch: DispatchConfig{
			QueueSize:        1024,
			MaxAttempts:      3,
			InitialBackoff:   500 * time.Millisecond,
			MaxBackoff:       5 * time.Second,
			DeliveryTimeout:  10 * time.Second,
			BreakerThreshold: 5,
			BreakerTimeout:   60 * time.Second,
		},
		Notifiers: NotifiersConfig{
			Webhook: WebhookConfig{RateLimit: time.Second},
			Discord: DiscordConfig{RateLimit: 2 * time.Second},
			Voice:   VoiceConfig{Enabled: true},
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
		},
		Feed: FeedConfig{
			Source: "none",
			Simulator: SimulatorConfig{
				Vessels:  25,
				Interval: 5 * time.Second,
			},
			NATS: NATSConfig{
				URL:            "nats://127.0.0.1:4222",
				EmbeddedServer: true,
				StoreDir:       "/data/nats/jetstream",
				MaxMemory:      256 << 20,
				MaxStore:       1 << 30,
				ReportsTopic:   "tidewatch.reports",
				AlertsTopic:    "tidewatch.alerts",
				DurableName:    "tidewatch-ingest",
				QueueGroup:     "ingestors",
			},
		},
		Archive: ArchiveConfig{
			Path: "/data/archive",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file
// and environment variables (in increasing priority), then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when supplied as a single string.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"websocket.allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			continue
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"ingest_rate_limit":     "server.ingest_rate_limit",

	"history_capacity": "tracking.history_capacity",
	"silence_period":   "tracking.silence_period",
	"grid_cell_km":     "tracking.grid_cell_km",

	"collision_enabled":          "detection.collision.enabled",
	"collision_search_radius_km": "detection.collision.search_radius_km",
	"collision_cpa_threshold_km": "detection.collision.cpa_threshold_km",
	"collision_horizon":          "detection.collision.horizon",
	"loitering_enabled":          "detection.loitering.enabled",
	"loitering_window":           "detection.loitering.window",
	"loitering_radius_meters":    "detection.loitering.radius_meters",
	"loitering_max_avg_speed_kn": "detection.loitering.max_avg_speed_kn",
	"loitering_min_samples":      "detection.loitering.min_samples",
	"loitering_min_span":         "detection.loitering.min_span",
	"grounding_enabled":          "detection.grounding.enabled",
	"grounding_from_speed_kn":    "detection.grounding.from_speed_kn",
	"grounding_stop_speed_kn":    "detection.grounding.stop_speed_kn",
	"discharge_enabled":          "detection.discharge.enabled",
	"discharge_min_confidence":   "detection.discharge.min_confidence",
	"anomaly_enabled":            "detection.anomaly.enabled",
	"anomaly_max_speed_kn":       "detection.anomaly.max_implied_speed_kn",
	"anomaly_min_jump_km":        "detection.anomaly.min_jump_km",

	"zones_geojson_path": "zones.geojson_path",

	"dispatch_queue_size":        "dispatch.queue_size",
	"dispatch_max_attempts":      "dispatch.max_attempts",
	"dispatch_initial_backoff":   "dispatch.initial_backoff",
	"dispatch_max_backoff":       "dispatch.max_backoff",
	"dispatch_delivery_timeout":  "dispatch.delivery_timeout",
	"dispatch_breaker_threshold": "dispatch.breaker_threshold",
	"dispatch_breaker_timeout":   "dispatch.breaker_timeout",

	"webhook_enabled":     "notifiers.webhook.enabled",
	"webhook_url":         "notifiers.webhook.url",
	"webhook_rate_limit":  "notifiers.webhook.rate_limit",
	"discord_enabled":     "notifiers.discord.enabled",
	"discord_webhook_url": "notifiers.discord.webhook_url",
	"discord_rate_limit":  "notifiers.discord.rate_limit",
	"voice_enabled":       "notifiers.voice.enabled",

	"websocket_enabled":         "websocket.enabled",
	"websocket_allowed_origins": "websocket.allowed_origins",

	"feed_source":         "feed.source",
	"feed_publish_alerts": "feed.publish_alerts",
	"simulator_vessels":   "feed.simulator.vessels",
	"simulator_interval":  "feed.simulator.interval",
	"simulator_seed":      "feed.simulator.seed",
	"nats_url":            "feed.nats.url",
	"nats_embedded":       "feed.nats.embedded_server",
	"nats_store_dir":      "feed.nats.store_dir",
	"nats_max_memory":     "feed.nats.max_memory",
	"nats_max_store":      "feed.nats.max_store",
	"nats_reports_topic":  "feed.nats.reports_topic",
	"nats_alerts_topic":   "feed.nats.alerts_topic",
	"nats_durable_name":   "feed.nats.durable_name",
	"nats_queue_group":    "feed.nats.queue_group",

	"archive_enabled": "archive.enabled",
	"archive_path":    "archive.path",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps HTTP_PORT to server.port and so on. Unknown
// variables map to "" and are dropped by the provider.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
