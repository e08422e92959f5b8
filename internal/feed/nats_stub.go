// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

//go:build !nats

package feed

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ErrNATSDisabled is returned when the binary was built without NATS.
var ErrNATSDisabled = errors.New("feed: NATS support not enabled (build with -tags nats)")

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	URL            string
	EmbeddedServer bool
	StoreDir       string
	MaxMemory      int64
	MaxStore       int64
	ReportsTopic   string
	AlertsTopic    string
	DurableName    string
	QueueGroup     string
}

// NATSTransport is a stub for non-NATS builds.
type NATSTransport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewNATSTransport always fails in non-NATS builds.
func NewNATSTransport(_ context.Context, _ NATSConfig, _ watermill.LoggerAdapter) (*NATSTransport, error) {
	return nil, ErrNATSDisabled
}

// ErrNATSDisconnected is returned by Ping while the connection is down.
var ErrNATSDisconnected = errors.New("feed: NATS connection is down")

// Ping always fails in non-NATS builds.
func (t *NATSTransport) Ping(_ context.Context) error { return ErrNATSDisabled }

// Close is a no-op stub.
func (t *NATSTransport) Close() {}
