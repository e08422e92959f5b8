// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/tidewatch/internal/alerts"
	"github.com/tomtom215/tidewatch/internal/detection"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func event(id string, change alerts.Change, severity alerts.Severity, at time.Time) alerts.Event {
	return alerts.Event{
		Change: change,
		Alert: alerts.Alert{
			ID:        id,
			Kind:      detection.KindLoitering,
			Severity:  severity,
			VesselID:  "V9",
			Status:    alerts.StatusActive,
			UpdatedAt: at,
		},
		At: at,
	}
}

func TestArchiveRecordAndHistory(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	changes := []alerts.Event{
		event("a-1", alerts.ChangeCreated, alerts.SeverityMedium, t0),
		event("a-1", alerts.ChangeRefreshed, alerts.SeverityMedium, t0.Add(time.Minute)),
		event("a-1", alerts.ChangeEscalated, alerts.SeverityHigh, t0.Add(2*time.Minute)),
	}
	for _, ev := range changes {
		if err := a.Record(ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	latest, err := a.Get("a-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if latest.Severity != alerts.SeverityHigh {
		t.Errorf("latest severity = %s, want high", latest.Severity)
	}

	history, err := a.History(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history has %d records, want 3", len(history))
	}
	for i, rec := range history {
		if rec.Change != changes[i].Change || !rec.At.Equal(changes[i].At) {
			t.Errorf("record %d = %s @ %v, want %s", i, rec.Change, rec.At, changes[i].Change)
		}
	}
}

func TestArchiveHistoryIsolatedByID(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	// "a-1" is a prefix of "a-10"; histories must not bleed.
	_ = a.Record(event("a-1", alerts.ChangeCreated, alerts.SeverityLow, t0))
	_ = a.Record(event("a-10", alerts.ChangeCreated, alerts.SeverityLow, t0))
	_ = a.Record(event("a-10", alerts.ChangeResolved, alerts.SeverityLow, t0.Add(time.Second)))

	h, err := a.History(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(h) != 1 {
		t.Errorf("a-1 history = %d records, want 1", len(h))
	}
}

func TestArchiveNotFound(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	if _, err := a.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := a.History(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("History() error = %v, want ErrNotFound", err)
	}
}

func TestArchiveList(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	for i, id := range []string{"a", "b", "c"} {
		if err := a.Record(event(id, alerts.ChangeCreated, alerts.SeverityLow, t0.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	all, err := a.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("List() order = %v", ids(all))
	}

	two, _ := a.List(context.Background(), 2)
	if len(two) != 2 {
		t.Errorf("List(2) = %d alerts", len(two))
	}
}

func ids(list []alerts.Alert) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestArchiveClosed(t *testing.T) {
	t.Parallel()

	a, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := a.Record(event("a", alerts.ChangeCreated, alerts.SeverityLow, t0)); !errors.Is(err, ErrClosed) {
		t.Errorf("Record() after close = %v, want ErrClosed", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{}); err == nil {
		t.Error("Open() without path succeeded")
	}
}

func TestOpenOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := Open(Config{Path: dir})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := a.Record(event("disk", alerts.ChangeCreated, alerts.SeverityHigh, t0)); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(Config{Path: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get("disk")
	if err != nil || got.Severity != alerts.SeverityHigh {
		t.Errorf("Get() after reopen = %+v, %v", got, err)
	}
}

func TestRecorderFollowsCorrelator(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t)
	correlator := alerts.NewCorrelator()
	rec := a.Recorder(correlator)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.RunWithContext(ctx) }()

	// Wait for the subscription, then drive a full lifecycle.
	var id string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		res := correlator.Correlate(detection.Candidate{
			VesselID:   "V1",
			Kind:       detection.KindGrounding,
			Confidence: 0.9,
			DetectedAt: t0,
		})
		id = res.Alert.ID
		time.Sleep(20 * time.Millisecond)
		if _, err := a.Get(id); err == nil {
			break
		}
	}
	if _, err := correlator.Resolve(id); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	var got alerts.Alert
	for time.Now().Before(deadline) {
		var err error
		got, err = a.Get(id)
		if err == nil && got.Status == alerts.StatusResolved {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got.Status != alerts.StatusResolved {
		t.Errorf("archived status = %s, want resolved", got.Status)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext() = %v", err)
	}
	if rec.String() != "alert-archive" {
		t.Errorf("String() = %q", rec.String())
	}
}
