// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/metrics"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// Default topics.
const (
	DefaultReportsTopic = "tidewatch.reports"
	DefaultAlertsTopic  = "tidewatch.alerts"
)

// Metadata keys set on published alert messages.
const (
	MetadataChange   = "change"
	MetadataKind     = "kind"
	MetadataSeverity = "severity"
	MetadataVesselID = "vessel_id"
)

// NewWatermillLogger routes watermill's logs through the global logger.
func NewWatermillLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// MessageSource reads JSON-encoded reports from a watermill topic.
// Every message is acked once decoded; undecodable messages are acked
// and dropped so they are not redelivered forever.
type MessageSource struct {
	subscriber message.Subscriber
	topic      string
	name       string

	mu       sync.Mutex
	messages <-chan *message.Message
}

// NewMessageSource creates a source on topic. name labels metrics and logs.
func NewMessageSource(subscriber message.Subscriber, topic, name string) *MessageSource {
	if topic == "" {
		topic = DefaultReportsTopic
	}
	if name == "" {
		name = "watermill"
	}
	return &MessageSource{subscriber: subscriber, topic: topic, name: name}
}

func (s *MessageSource) Name() string { return s.name }

// Next blocks until a decodable report arrives. The subscription is
// opened on first use and lives as long as that call's ctx; after a
// cancellation the next call subscribes again.
func (s *MessageSource) Next(ctx context.Context) (tracking.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.messages == nil {
		messages, err := s.subscriber.Subscribe(ctx, s.topic)
		if err != nil {
			return tracking.Report{}, fmt.Errorf("subscribe to %s: %w", s.topic, err)
		}
		s.messages = messages
	}

	for {
		select {
		case <-ctx.Done():
			s.messages = nil
			return tracking.Report{}, ctx.Err()
		case msg, ok := <-s.messages:
			if !ok {
				s.messages = nil
				return tracking.Report{}, ErrExhausted
			}
			var report tracking.Report
			err := json.Unmarshal(msg.Payload, &report)
			msg.Ack()
			if err != nil {
				metrics.FeedMessages.WithLabelValues(s.name, "decode_error").Inc()
				logging.Warn().Err(err).Str("message_uuid", msg.UUID).Str("topic", s.topic).Msg("dropping undecodable report")
				continue
			}
			return report, nil
		}
	}
}

// EncodeReport builds a watermill message carrying report.
func EncodeReport(report tracking.Report) (*message.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataVesselID, report.VesselID)
	return msg, nil
}

// AlertSource is the correlator's change stream.
type AlertSource interface {
	Subscribe(buffer int) (<-chan alerts.Event, func())
}

// AlertPublisher publishes every alert change to a watermill topic.
type AlertPublisher struct {
	publisher message.Publisher
	source    AlertSource
	topic     string
	breaker   *gobreaker.CircuitBreaker[interface{}]
}

// NewAlertPublisher creates a publisher. Publishing goes through a
// circuit breaker so a dead broker costs one failed call per event
// instead of a timeout.
func NewAlertPublisher(publisher message.Publisher, source AlertSource, topic string) *AlertPublisher {
	if topic == "" {
		topic = DefaultAlertsTopic
	}
	settings := gobreaker.Settings{
		Name:        "alert-publisher",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &AlertPublisher{
		publisher: publisher,
		source:    source,
		topic:     topic,
		breaker:   gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

// String names the publisher for the supervisor.
func (p *AlertPublisher) String() string {
	return "alert-publisher"
}

// EncodeAlertEvent builds the message for one alert change.
func EncodeAlertEvent(ev alerts.Event) (*message.Message, error) {
	data, err := json.Marshal(ev.Alert)
	if err != nil {
		return nil, fmt.Errorf("marshal alert %s: %w", ev.Alert.ID, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataChange, string(ev.Change))
	msg.Metadata.Set(MetadataKind, string(ev.Alert.Kind))
	msg.Metadata.Set(MetadataSeverity, string(ev.Alert.Severity))
	msg.Metadata.Set(MetadataVesselID, ev.Alert.VesselID)
	return msg, nil
}

// Publish sends one alert change.
func (p *AlertPublisher) Publish(ev alerts.Event) error {
	msg, err := EncodeAlertEvent(ev)
	if err != nil {
		metrics.AlertsPublished.WithLabelValues("encode_error").Inc()
		return err
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(p.topic, msg)
	})
	if err != nil {
		metrics.AlertsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish alert %s: %w", ev.Alert.ID, err)
	}
	metrics.AlertsPublished.WithLabelValues("success").Inc()
	return nil
}

// RunWithContext publishes alert changes until ctx is canceled. Publish
// failures are logged; the event is not retried.
func (p *AlertPublisher) RunWithContext(ctx context.Context) error {
	events, cancel := p.source.Subscribe(256)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := p.Publish(ev); err != nil {
				logging.Warn().Err(err).Str("alert_id", ev.Alert.ID).Str("topic", p.topic).Msg("alert change not published")
			}
		}
	}
}
