// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/archive"
	"github.com/tomtom215/tidewatch/internal/config"
	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/dispatch"
	"github.com/tomtom215/tidewatch/internal/ingest"
	"github.com/tomtom215/tidewatch/internal/tracking"
	ws "github.com/tomtom215/tidewatch/internal/websocket"
)

// maxBodyBytes bounds request bodies. A full batch of reports fits well
// inside it.
const maxBodyBytes = 4 << 20

// ReadinessCheck probes one component for /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the components the handlers serve. Archive and Hub are
// optional; their endpoints answer 503/404 when nil.
type Deps struct {
	Store      *tracking.Store
	Ingestor   *ingest.Ingestor
	Correlator *alerts.Correlator
	Engine     *detection.Engine
	Dispatcher *dispatch.Dispatcher
	Archive    *archive.Archive
	Hub        *ws.Hub
	Config     *config.Config

	// Checks are extra readiness probes, e.g. the NATS connection.
	Checks []ReadinessCheck
}

// Handler serves the HTTP API.
type Handler struct {
	store      *tracking.Store
	ingestor   *ingest.Ingestor
	correlator *alerts.Correlator
	engine     *detection.Engine
	dispatcher *dispatch.Dispatcher
	archive    *archive.Archive
	wsHub      *ws.Hub
	config     *config.Config
	checks     []ReadinessCheck

	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a Handler. Config defaults are used when deps.Config is nil.
func NewHandler(deps Deps) *Handler {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{
		store:      deps.Store,
		ingestor:   deps.Ingestor,
		correlator: deps.Correlator,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		archive:    deps.Archive,
		wsHub:      deps.Hub,
		config:     cfg,
		checks:     deps.Checks,
		startTime:  time.Now(),
		now:        time.Now,
	}
}

// SetClock overrides the clock used for silence and 24h statistics.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are
// rejected so typos in report payloads surface as 400s.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}
