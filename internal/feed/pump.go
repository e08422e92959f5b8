// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/tidewatch/internal/ingest"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/metrics"
	"github.com/tomtom215/tidewatch/internal/tracking"
)

// Ingester is the part of the ingestor the pump drives.
type Ingester interface {
	Ingest(ctx context.Context, report tracking.Report) (ingest.Ack, error)
}

// Pump moves reports from a Source into an Ingester.
type Pump struct {
	source   Source
	ingester Ingester
}

// NewPump creates a pump.
func NewPump(source Source, ingester Ingester) *Pump {
	return &Pump{source: source, ingester: ingester}
}

// String names the pump for the supervisor.
func (p *Pump) String() string {
	return "feed-pump:" + p.source.Name()
}

// RunWithContext pumps until ctx is canceled or the source is exhausted.
// Rejected reports are logged and skipped; a source error ends the run
// so the supervisor can restart it.
func (p *Pump) RunWithContext(ctx context.Context) error {
	name := p.source.Name()
	logging.Info().Str("source", name).Msg("feed pump started")

	for {
		report, err := p.source.Next(ctx)
		switch {
		case errors.Is(err, ErrExhausted):
			logging.Info().Str("source", name).Msg("feed source exhausted")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			return fmt.Errorf("read from %s: %w", name, err)
		}

		ctx := logging.ContextWithNewCorrelationID(ctx)
		if _, err := p.ingester.Ingest(ctx, report); err != nil {
			metrics.FeedMessages.WithLabelValues(name, "rejected").Inc()
			logging.Ctx(ctx).Debug().Err(err).Str("source", name).Msg("feed report rejected")
			continue
		}
		metrics.FeedMessages.WithLabelValues(name, "ok").Inc()
	}
}
