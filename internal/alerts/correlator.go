// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package alerts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tidewatch/internal/detection"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/metrics"
)

// DefaultSubscriberBuffer is the channel size used by Subscribe when
// the caller passes zero.
const DefaultSubscriberBuffer = 256

type openKey struct {
	vesselID string
	kind     detection.Kind
}

// Result is the outcome of correlating one candidate.
type Result struct {
	Alert  Alert
	Change Change

	// Previous is the severity before a refresh; empty for new alerts.
	Previous Severity
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithClock overrides the wall clock used for lifecycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// Correlator deduplicates candidates into alerts.
type Correlator struct {
	mu     sync.RWMutex
	alerts map[string]*Alert
	open   map[openKey]string
	order  []string
	now    func() time.Time
	zones  ZoneNamer

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewCorrelator creates an empty correlator.
func NewCorrelator(opts ...Option) *Correlator {
	c := &Correlator{
		alerts: make(map[string]*Alert),
		open:   make(map[openKey]string),
		now:    time.Now,
		subs:   make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correlate folds a candidate into the alert set. It panics on a
// candidate without vessel id or with an unknown kind.
func (c *Correlator) Correlate(candidate detection.Candidate) Result {
	if candidate.VesselID == "" {
		panic("alerts: candidate without vessel id")
	}
	if !candidate.Kind.Valid() {
		panic(fmt.Sprintf("alerts: candidate with unknown kind %q", candidate.Kind))
	}

	now := c.now()
	key := openKey{vesselID: candidate.VesselID, kind: candidate.Kind}
	severity := SeverityFromConfidence(candidate.Confidence)

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.open[key]; ok {
		a := c.alerts[id]
		prev := a.Severity
		a.Severity = severity
		a.Confidence = candidate.Confidence
		a.Title = candidate.Title
		a.Description = candidate.Description
		a.Evidence = candidate.Evidence
		a.Counterpart = candidate.Counterpart
		a.Counterparts = addCounterpart(a.Counterparts, candidate.Counterpart)
		if candidate.Position != nil {
			p := *candidate.Position
			a.Position = &p
		}
		if candidate.DetectedAt.After(a.DetectedAt) {
			a.DetectedAt = candidate.DetectedAt
		}
		a.UpdatedAt = now
		a.Detections++

		change := ChangeRefreshed
		if severity.Rank() > prev.Rank() {
			change = ChangeEscalated
		}
		metrics.RecordCorrelation(string(a.Kind), string(change))
		snapshot := a.clone()
		c.publish(Event{Change: change, Alert: snapshot, At: now})

		if change == ChangeEscalated {
			logging.Info().
				Str("alert_id", a.ID).
				Str("vessel_id", a.VesselID).
				Str("from", string(prev)).
				Str("to", string(severity)).
				Msg("alert escalated")
		}
		return Result{Alert: snapshot, Change: change, Previous: prev}
	}

	a := &Alert{
		ID:          uuid.New().String(),
		Kind:        candidate.Kind,
		Severity:    severity,
		Title:       candidate.Title,
		Description: candidate.Description,
		VesselID:    candidate.VesselID,
		Counterpart: candidate.Counterpart,
		Confidence:  candidate.Confidence,
		Evidence:    candidate.Evidence,
		Status:      StatusActive,
		Detections:  1,
		CreatedAt:   now,
		UpdatedAt:   now,
		DetectedAt:  candidate.DetectedAt,
	}
	if candidate.Position != nil {
		p := *candidate.Position
		a.Position = &p
	}
	if a.Title == "" {
		a.Title = defaultTitle(a.Kind, a.VesselID)
	}
	a.Counterparts = addCounterpart(nil, candidate.Counterpart)

	c.alerts[a.ID] = a
	c.open[key] = a.ID
	c.order = append(c.order, a.ID)

	metrics.RecordCorrelation(string(a.Kind), string(ChangeCreated))
	metrics.AlertTransitions.WithLabelValues(string(StatusActive)).Inc()
	metrics.OpenAlerts.Set(float64(len(c.open)))

	snapshot := a.clone()
	c.publish(Event{Change: ChangeCreated, Alert: snapshot, At: now})

	logging.Info().
		Str("alert_id", a.ID).
		Str("vessel_id", a.VesselID).
		Str("kind", string(a.Kind)).
		Str("severity", string(a.Severity)).
		Msg("alert created")

	return Result{Alert: snapshot, Change: ChangeCreated}
}

// Acknowledge moves an active alert to acknowledged. Acknowledging an
// acknowledged alert is a no-op; acknowledging a resolved one fails
// with ErrInvalidTransition.
func (c *Correlator) Acknowledge(id string) (Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.alerts[id]
	if !ok {
		return Alert{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	switch a.Status {
	case StatusAcknowledged:
		return a.clone(), nil
	case StatusResolved:
		return a.clone(), fmt.Errorf("%w: %s is resolved", ErrInvalidTransition, id)
	}

	now := c.now()
	a.Status = StatusAcknowledged
	a.AcknowledgedAt = &now
	a.UpdatedAt = now

	metrics.AlertTransitions.WithLabelValues(string(StatusAcknowledged)).Inc()
	snapshot := a.clone()
	c.publish(Event{Change: ChangeAcknowledged, Alert: snapshot, At: now})

	logging.Info().Str("alert_id", id).Msg("alert acknowledged")
	return snapshot, nil
}

// Resolve closes an open alert. Resolving a resolved alert is a no-op.
func (c *Correlator) Resolve(id string) (Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.alerts[id]
	if !ok {
		return Alert{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if a.Status == StatusResolved {
		return a.clone(), nil
	}

	now := c.now()
	a.Status = StatusResolved
	a.ResolvedAt = &now
	a.UpdatedAt = now
	delete(c.open, openKey{vesselID: a.VesselID, kind: a.Kind})

	metrics.AlertTransitions.WithLabelValues(string(StatusResolved)).Inc()
	metrics.OpenAlerts.Set(float64(len(c.open)))
	snapshot := a.clone()
	c.publish(Event{Change: ChangeResolved, Alert: snapshot, At: now})

	logging.Info().Str("alert_id", id).Msg("alert resolved")
	return snapshot, nil
}

// Get returns a copy of one alert.
func (c *Correlator) Get(id string) (Alert, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.alerts[id]
	if !ok {
		return Alert{}, false
	}
	return a.clone(), true
}

// Open returns the open alert for a vessel and kind, if any.
func (c *Correlator) Open(vesselID string, kind detection.Kind) (Alert, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.open[openKey{vesselID: vesselID, kind: kind}]
	if !ok {
		return Alert{}, false
	}
	return c.alerts[id].clone(), true
}

// Snapshot returns every alert in creation order.
func (c *Correlator) Snapshot() []Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Alert, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.alerts[id].clone())
	}
	return out
}

// List returns the alerts matching f, newest first.
func (c *Correlator) List(f Filter) []Alert {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	c.mu.RLock()
	var out []Alert
	for i := len(c.order) - 1; i >= 0; i-- {
		a := c.alerts[c.order[i]]
		if !matches(a, f, q) {
			continue
		}
		out = append(out, a.clone())
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func matches(a *Alert, f Filter, q string) bool {
	if f.Kind != "" && a.Kind != f.Kind {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.OpenOnly && !a.Status.Open() {
		return false
	}
	if f.VesselID != "" && a.VesselID != f.VesselID && a.Counterpart != f.VesselID {
		return false
	}
	if q != "" &&
		!strings.Contains(strings.ToLower(a.Title), q) &&
		!strings.Contains(strings.ToLower(a.Description), q) &&
		!strings.Contains(strings.ToLower(a.VesselID), q) {
		return false
	}
	return true
}

// Statistics summarises the alert set at now.
func (c *Correlator) Statistics(now time.Time) Statistics {
	cutoff := now.Add(-24 * time.Hour)
	st := Statistics{
		BySeverity: make(map[Severity]int),
		ByKind:     make(map[detection.Kind]int),
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	st.TotalAlerts = len(c.alerts)
	for _, a := range c.alerts {
		if !a.CreatedAt.Before(cutoff) {
			st.Last24hIncidents++
		}
		if !a.Status.Open() {
			continue
		}
		st.ActiveAlerts++
		st.BySeverity[a.Severity]++
		st.ByKind[a.Kind]++
		if a.Kind == detection.KindIllegalDischarge {
			st.OilSpillRisks++
		}
	}
	return st
}

// VesselStatuses derives the display status of every vessel with an
// open alert. Vessels missing from the map are normal.
func (c *Correlator) VesselStatuses() map[string]VesselStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]VesselStatus)
	for key, id := range c.open {
		a := c.alerts[id]
		status := VesselWarning
		if a.Severity.Rank() >= SeverityHigh.Rank() {
			status = VesselDanger
		}
		if out[key.vesselID] != VesselDanger {
			out[key.vesselID] = status
		}
	}
	return out
}

// VesselStatus derives the display status of one vessel.
func (c *Correlator) VesselStatus(vesselID string) VesselStatus {
	if s, ok := c.VesselStatuses()[vesselID]; ok {
		return s
	}
	return VesselNormal
}

// Subscribe returns a stream of alert changes. Events are delivered in
// the order they happened; a subscriber that falls behind by more than
// buffer events loses the overflow. cancel closes the channel.
func (c *Correlator) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish is called with c.mu held so subscribers see changes in order.
func (c *Correlator) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			logging.Warn().Int("subscriber", id).Str("alert_id", ev.Alert.ID).Msg("alert subscriber full, dropping event")
		}
	}
}

func defaultTitle(kind detection.Kind, vesselID string) string {
	switch kind {
	case detection.KindCollisionRisk:
		return "Collision risk: " + vesselID
	case detection.KindIllegalDischarge:
		return "Illegal discharge: " + vesselID
	case detection.KindLoitering:
		return "Loitering: " + vesselID
	case detection.KindGrounding:
		return "Possible grounding: " + vesselID
	case detection.KindAnomaly:
		return "Position jump: " + vesselID
	}
	return string(kind) + ": " + vesselID
}

// addCounterpart inserts id into the sorted set.
func addCounterpart(set []string, id string) []string {
	if id == "" {
		return set
	}
	i := sort.SearchStrings(set, id)
	if i < len(set) && set[i] == id {
		return set
	}
	set = append(set, "")
	copy(set[i+1:], set[i:])
	set[i] = id
	return set
}
