// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/metrics"
)

type eventKey struct {
	alertID    string
	transition Transition
}

// sinkRunner pairs a sink with its circuit breaker.
type sinkRunner struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker[interface{}]
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the clock used for emission timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// Dispatcher queues notification events and delivers them to sinks.
type Dispatcher struct {
	config Config
	sinks  []*sinkRunner
	now    func() time.Time

	mu        sync.Mutex
	queue     priorityQueue
	pending   int
	announced map[eventKey]struct{}
	active    map[string]int
	followUps map[string][]*queueItem
	seq       uint64

	recent      []NotificationEvent
	undelivered []Undelivered

	signal chan struct{}
}

// NewDispatcher creates a dispatcher delivering to sinks in order.
func NewDispatcher(config Config, sinks []Sink, opts ...Option) *Dispatcher {
	def := DefaultConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = def.DeliveryTimeout
	}
	if config.BreakerThreshold == 0 {
		config.BreakerThreshold = def.BreakerThreshold
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = def.HistoryLimit
	}

	d := &Dispatcher{
		config:    config,
		now:       time.Now,
		announced: make(map[eventKey]struct{}),
		active:    make(map[string]int),
		followUps: make(map[string][]*queueItem),
		signal:    make(chan struct{}, 1),
	}
	for _, s := range sinks {
		d.sinks = append(d.sinks, &sinkRunner{sink: s, breaker: newBreaker(s.Name(), config)})
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func newBreaker(name string, config Config) *gobreaker.CircuitBreaker[interface{}] {
	threshold := config.BreakerThreshold
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, to.String())
			logging.Warn().
				Str("sink", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("sink circuit breaker state changed")
		},
	}
	metrics.SetCircuitBreakerState(name, gobreaker.StateClosed.String())
	return gobreaker.NewCircuitBreaker[interface{}](settings)
}

// HandleResult forwards a correlation result.
func (d *Dispatcher) HandleResult(res alerts.Result) bool {
	return d.OnAlertChanged(res.Alert, res.Change.NewOrEscalated())
}

// OnAlertChanged enqueues a notification when isNewOrEscalated is set,
// the alert is high or critical, and the alert's transition has not been
// announced before. The first detection of an alert is its creation;
// later ones are escalations. It returns whether an event was queued and
// never blocks on delivery.
func (d *Dispatcher) OnAlertChanged(alert alerts.Alert, isNewOrEscalated bool) bool {
	if !isNewOrEscalated || alert.Severity.Rank() < alerts.SeverityHigh.Rank() {
		return false
	}
	if alert.ID == "" {
		panic("dispatch: alert without id")
	}

	transition := TransitionEscalated
	if alert.Detections <= 1 {
		transition = TransitionCreated
	}
	key := eventKey{alertID: alert.ID, transition: transition}

	d.mu.Lock()
	if _, dup := d.announced[key]; dup {
		d.mu.Unlock()
		metrics.NotificationsDeduplicated.Inc()
		return false
	}
	d.announced[key] = struct{}{}

	ev := NotificationEvent{
		ID:             uuid.New().String(),
		AlertID:        alert.ID,
		TransitionKind: transition,
		Severity:       alert.Severity,
		Kind:           alert.Kind,
		Title:          alert.Title,
		Description:    alert.Description,
		VesselID:       alert.VesselID,
		Position:       alert.Position,
		AlertCreatedAt: alert.CreatedAt,
		EmittedAt:      d.now(),
	}

	if d.pending >= d.config.QueueSize {
		d.recordUndelivered(ev, "queue", ErrQueueFull, 0)
		d.mu.Unlock()
		logging.Error().Str("alert_id", alert.ID).Msg("dispatch queue full, notification dropped")
		return false
	}

	d.seq++
	item := &queueItem{event: ev, rank: ev.Severity.Rank(), seq: d.seq}
	if d.active[ev.AlertID] > 0 {
		d.followUps[ev.AlertID] = append(d.followUps[ev.AlertID], item)
	} else {
		d.queue.Push(item)
	}
	d.active[ev.AlertID]++
	d.pending++
	d.appendRecent(ev)
	metrics.DispatchQueueDepth.Set(float64(d.pending))
	d.mu.Unlock()

	metrics.NotificationsEnqueued.WithLabelValues(string(transition), string(ev.Severity)).Inc()
	logging.Debug().
		Str("alert_id", ev.AlertID).
		Str("transition", string(transition)).
		Str("severity", string(ev.Severity)).
		Msg("notification queued")

	select {
	case d.signal <- struct{}{}:
	default:
	}
	return true
}

// next pops the next event to deliver, or nil when idle.
func (d *Dispatcher) next() *queueItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Pop()
}

// finish releases the alert's ordering slot and promotes its next event.
func (d *Dispatcher) finish(item *queueItem) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := item.event.AlertID
	d.pending--
	d.active[id]--
	if d.active[id] <= 0 {
		delete(d.active, id)
	}
	if waiting := d.followUps[id]; len(waiting) > 0 {
		d.queue.Push(waiting[0])
		if len(waiting) == 1 {
			delete(d.followUps, id)
		} else {
			d.followUps[id] = waiting[1:]
		}
	}
	metrics.DispatchQueueDepth.Set(float64(d.pending))
}

// RunWithContext delivers queued events until ctx is canceled.
func (d *Dispatcher) RunWithContext(ctx context.Context) error {
	logging.Info().Int("sinks", len(d.sinks)).Msg("notification dispatcher started")

	for {
		if ctx.Err() != nil {
			logging.Info().Int("pending", d.Pending()).Msg("notification dispatcher stopping")
			return ctx.Err()
		}

		item := d.next()
		if item == nil {
			select {
			case <-ctx.Done():
			case <-d.signal:
			}
			continue
		}

		d.deliver(ctx, item.event)
		d.finish(item)
	}
}

// deliver sends ev to every sink; failures are isolated per sink.
func (d *Dispatcher) deliver(ctx context.Context, ev NotificationEvent) {
	for _, r := range d.sinks {
		attempts, err := d.deliverTo(ctx, r, ev)
		if err == nil {
			continue
		}

		metrics.NotificationsUndelivered.WithLabelValues(r.sink.Name()).Inc()
		d.mu.Lock()
		d.recordUndelivered(ev, r.sink.Name(), err, attempts)
		d.mu.Unlock()

		logging.Error().
			Err(err).
			Str("sink", r.sink.Name()).
			Str("alert_id", ev.AlertID).
			Str("transition", string(ev.TransitionKind)).
			Int("attempts", attempts).
			Msg("notification undelivered")
	}
}

// deliverTo retries one sink with exponential backoff. An open circuit
// ends the retries immediately.
func (d *Dispatcher) deliverTo(ctx context.Context, r *sinkRunner, ev NotificationEvent) (int, error) {
	name := r.sink.Name()
	attempts := 0

	op := func() error {
		attempts++
		start := time.Now()
		_, err := r.breaker.Execute(func() (interface{}, error) {
			deliverCtx, cancel := context.WithTimeout(ctx, d.config.DeliveryTimeout)
			defer cancel()
			return nil, r.sink.Deliver(deliverCtx, ev)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.DeliveryAttempts.WithLabelValues(name, "circuit_open").Inc()
			return backoff.Permanent(err)
		}
		metrics.DeliveryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.RecordDelivery(name, err)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialBackoff
	b.MaxInterval = d.config.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.config.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		logging.Warn().
			Err(err).
			Str("sink", name).
			Str("alert_id", ev.AlertID).
			Dur("retry_in", wait).
			Msg("notification delivery failed, retrying")
	})
	if err != nil {
		return attempts, fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, name, err)
	}
	return attempts, nil
}

// recordUndelivered must be called with d.mu held.
func (d *Dispatcher) recordUndelivered(ev NotificationEvent, sink string, err error, attempts int) {
	d.undelivered = append(d.undelivered, Undelivered{
		Event:    ev,
		Sink:     sink,
		Error:    err.Error(),
		Attempts: attempts,
		At:       d.now(),
	})
	if over := len(d.undelivered) - d.config.HistoryLimit; over > 0 {
		d.undelivered = append([]Undelivered(nil), d.undelivered[over:]...)
	}
}

// appendRecent must be called with d.mu held.
func (d *Dispatcher) appendRecent(ev NotificationEvent) {
	d.recent = append(d.recent, ev)
	if over := len(d.recent) - d.config.HistoryLimit; over > 0 {
		d.recent = append([]NotificationEvent(nil), d.recent[over:]...)
	}
}

// Pending returns the number of queued or in-flight events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Recent returns the most recently emitted events, oldest first.
func (d *Dispatcher) Recent() []NotificationEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]NotificationEvent(nil), d.recent...)
}

// Undelivered returns the events sinks never accepted, oldest first.
func (d *Dispatcher) Undelivered() []Undelivered {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Undelivered(nil), d.undelivered...)
}

// SinkStates returns each sink's circuit breaker state.
func (d *Dispatcher) SinkStates() map[string]string {
	out := make(map[string]string, len(d.sinks))
	for _, r := range d.sinks {
		out[r.sink.Name()] = r.breaker.State().String()
	}
	return out
}
