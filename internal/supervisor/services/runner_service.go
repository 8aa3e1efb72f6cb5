// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package services

import (
	"context"
)

// Runner is a component with a blocking, context-bound loop.
//
// Satisfied by:
//   - *detection.Engine (scheduled manipulation scan)
//   - *storage.DB (value log GC)
//   - *events.Feed (topic consumer)
type Runner interface {
	// RunWithContext blocks until ctx is canceled or the loop fails.
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service. The wrapped packages are
// not imported, so the supervisor never depends on domain code.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewDetectionScanService wraps the detection engine's scan loop.
func NewDetectionScanService(engine Runner) *RunnerService {
	return NewRunnerService("detection-scan", engine)
}

// NewStorageGCService wraps the BadgerDB value log GC loop.
func NewStorageGCService(db Runner) *RunnerService {
	return NewRunnerService("storage-gc", db)
}

// NewEventFeedService wraps an event feed consumer.
func NewEventFeedService(feed Runner) *RunnerService {
	return NewRunnerService("event-feed", feed)
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer. Suture uses it in log messages.
func (s *RunnerService) String() string {
	return s.name
}
