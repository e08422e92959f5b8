// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/logging"
	"github.com/tomtom215/tidewatch/internal/metrics"
)

var (
	// ErrNotFound is returned for an alert the archive has never seen.
	ErrNotFound = errors.New("archive: alert not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("archive: closed")
)

const (
	prefixAlert = "alert:"
	prefixEvent = "event:"
)

// Config configures the archive.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool

	// Retention expires change records after this long. Zero keeps them.
	Retention time.Duration

	// GCInterval is how often value-log GC runs while RunWithContext is active.
	GCInterval time.Duration
}

// Record is one archived alert change.
type Record struct {
	Change alerts.Change `json:"change"`
	Alert  alerts.Alert  `json:"alert"`
	At     time.Time     `json:"at"`
}

// AlertSource is the correlator's change stream.
type AlertSource interface {
	Subscribe(buffer int) (<-chan alerts.Event, func())
}

// Archive is a BadgerDB-backed alert history.
type Archive struct {
	db     *badger.DB
	config Config
	seq    atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the archive.
func Open(cfg Config) (*Archive, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("archive: path is required unless in-memory")
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("retention", cfg.Retention).
		Msg("alert archive opened")
	return &Archive{db: db, config: cfg}, nil
}

// acquire read-locks the archive for one operation. The returned
// function releases it.
func (a *Archive) acquire() (func(), error) {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return nil, ErrClosed
	}
	return a.mu.RUnlock, nil
}

func eventKey(id string, at time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%010d", prefixEvent, id, at.UnixNano(), seq))
}

// Record stores one alert change: the alert's latest state and an
// appended change record.
func (a *Archive) Record(ev alerts.Event) error {
	release, err := a.acquire()
	if err != nil {
		return err
	}
	defer release()
	if ev.Alert.ID == "" {
		panic("archive: event without alert id")
	}

	alertData, err := json.Marshal(ev.Alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	recData, err := json.Marshal(Record{Change: ev.Change, Alert: ev.Alert, At: ev.At})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixAlert+ev.Alert.ID), alertData); err != nil {
			return err
		}
		e := badger.NewEntry(eventKey(ev.Alert.ID, ev.At, a.seq.Add(1)), recData)
		if a.config.Retention > 0 {
			e = e.WithTTL(a.config.Retention)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		metrics.ArchiveWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("write alert %s: %w", ev.Alert.ID, err)
	}
	metrics.ArchiveWrites.WithLabelValues("success").Inc()
	return nil
}

// Get returns the latest archived state of an alert.
func (a *Archive) Get(id string) (alerts.Alert, error) {
	release, err := a.acquire()
	if err != nil {
		return alerts.Alert{}, err
	}
	defer release()
	return a.get(id)
}

func (a *Archive) get(id string) (alerts.Alert, error) {
	var alert alerts.Alert
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixAlert + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &alert)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return alerts.Alert{}, ErrNotFound
	}
	if err != nil {
		return alerts.Alert{}, fmt.Errorf("read alert %s: %w", id, err)
	}
	return alert, nil
}

// History returns an alert's change records, oldest first.
func (a *Archive) History(ctx context.Context, id string) ([]Record, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var records []Record
	err = a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEvent + id + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("skipping unreadable archive record")
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate history of %s: %w", id, err)
	}
	if len(records) == 0 {
		if _, err := a.get(id); errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
	}
	return records, nil
}

// List returns up to limit archived alerts, most recently updated first.
// A limit of zero or less returns all of them.
func (a *Archive) List(ctx context.Context, limit int) ([]alerts.Alert, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var out []alerts.Alert
	err = a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixAlert)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var alert alerts.Alert
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &alert)
			}); err != nil {
				continue
			}
			out = append(out, alert)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recorder feeds an alert change stream into an archive.
type Recorder struct {
	archive *Archive
	source  AlertSource
}

// Recorder returns a service that archives every change from source.
func (a *Archive) Recorder(source AlertSource) *Recorder {
	return &Recorder{archive: a, source: source}
}

// String names the recorder for the supervisor.
func (r *Recorder) String() string {
	return "alert-archive"
}

// RunWithContext records changes until ctx is canceled, running
// value-log GC periodically.
func (r *Recorder) RunWithContext(ctx context.Context) error {
	a := r.archive
	events, cancel := r.source.Subscribe(512)
	defer cancel()

	gc := time.NewTicker(a.config.GCInterval)
	defer gc.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := a.Record(ev); err != nil {
				if errors.Is(err, ErrClosed) {
					return err
				}
				logging.Error().Err(err).Str("alert_id", ev.Alert.ID).Msg("alert change not archived")
			}
		case <-gc.C:
			a.runGC()
		}
	}
}

func (a *Archive) runGC() {
	if a.config.InMemory {
		return
	}
	release, err := a.acquire()
	if err != nil {
		return
	}
	defer release()
	for {
		err := a.db.RunValueLogGC(0.5)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				logging.Warn().Err(err).Msg("archive value log GC failed")
			}
			return
		}
	}
}

// Close flushes and closes the database. It is safe to call twice.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}
