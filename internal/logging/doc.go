// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

// Package logging provides the process-wide zerolog logger for Tidewatch.
//
// Every component logs through the package-level helpers so that level,
// format and output are controlled in one place:
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("vessel_id", id).Msg("Track created")
//
// Correlation IDs travel in context.Context and are attached by Ctx:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Warn().Err(err).Msg("Report rejected")
//
// SlogHandler bridges log/slog consumers (sutureslog) onto the same logger.
//
// Always terminate an event chain with Msg or Send; an unterminated
// event is never written.
package logging
