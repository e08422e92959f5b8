// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/tidewatch/internal/tracking"
)

// ErrExhausted is returned by a Source that has no more reports.
var ErrExhausted = errors.New("feed: source exhausted")

// Source yields position reports. Next blocks until a report is
// available, ctx is canceled, or the source is exhausted.
type Source interface {
	Name() string
	Next(ctx context.Context) (tracking.Report, error)
}

// SliceSource replays a fixed list of reports in order.
type SliceSource struct {
	mu      sync.Mutex
	reports []tracking.Report
	pos     int
}

// NewSliceSource copies reports into a new source.
func NewSliceSource(reports []tracking.Report) *SliceSource {
	return &SliceSource{reports: append([]tracking.Report(nil), reports...)}
}

func (s *SliceSource) Name() string { return "slice" }

// Next returns the next report or ErrExhausted.
func (s *SliceSource) Next(ctx context.Context) (tracking.Report, error) {
	if err := ctx.Err(); err != nil {
		return tracking.Report{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.reports) {
		return tracking.Report{}, ErrExhausted
	}
	r := s.reports[s.pos]
	s.pos++
	return r, nil
}
