// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// Runner is implemented by every long-lived Tidewatch component:
// *websocket.Hub, *websocket.AlertStream, *dispatch.Dispatcher,
// *archive.Recorder, *feed.Pump and *feed.AlertPublisher.
type Runner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service and gives it a name for
// supervisor logs.
//
//	tree.AddDataService(services.NewRunnerService("dispatcher", dispatcher))
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under the given service name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service. A runner that returns nil before ctx
// is canceled has finished (an exhausted feed, say) and is not restarted.
// Failures are wrapped with the service name; cancellation and suture's
// control errors are returned as-is.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.RunWithContext(ctx)
	switch {
	case err == nil && ctx.Err() == nil:
		return suture.ErrDoNotRestart
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		err == suture.ErrDoNotRestart,
		err == suture.ErrTerminateSupervisorTree:
		return err
	}
	return fmt.Errorf("%s: %w", s.name, err)
}

// String implements fmt.Stringer.
func (s *RunnerService) String() string {
	return s.name
}
