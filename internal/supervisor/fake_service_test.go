// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errSimulated = errors.New("simulated failure")

// fakeService counts Serve calls and can be told to fail or exit.
type fakeService struct {
	name     string
	starts   atomic.Int32
	stops    atomic.Int32
	failures atomic.Int32

	mu       sync.Mutex
	maxFails int32
	err      error
}

func newFakeService(name string) *fakeService {
	return &fakeService{name: name}
}

func (f *fakeService) Serve(ctx context.Context) error {
	f.starts.Add(1)
	defer f.stops.Add(1)

	f.mu.Lock()
	err, maxFails := f.err, f.maxFails
	f.mu.Unlock()

	if maxFails > 0 && f.failures.Add(1) <= maxFails {
		return errSimulated
	}
	if err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) failTimes(n int32) {
	f.mu.Lock()
	f.maxFails = n
	f.mu.Unlock()
}

func (f *fakeService) returnErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeService) String() string { return f.name }
