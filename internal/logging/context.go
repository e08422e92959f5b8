// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	vesselIDKey      contextKey = "vessel_id"
)

// GenerateCorrelationID returns a short (8 char) random identifier.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID stores id in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID stores a fresh correlation ID in ctx.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithVesselID tags ctx with the vessel whose report is in flight.
func ContextWithVesselID(ctx context.Context, vesselID string) context.Context {
	return context.WithValue(ctx, vesselIDKey, vesselID)
}

// VesselIDFromContext returns the vessel ID or "".
func VesselIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(vesselIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with the correlation and vessel
// IDs carried by ctx.
//
//	logging.Ctx(ctx).Debug().Msg("Detectors finished")
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		lc = lc.Str("correlation_id", id)
	}
	if id := VesselIDFromContext(ctx); id != "" {
		lc = lc.Str("vessel_id", id)
	}
	l := lc.Logger()
	return &l
}
