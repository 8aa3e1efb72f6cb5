// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/civitas/internal/storage"
)

type mockRunner struct {
	calls atomic.Int32
	err   error
}

func (m *mockRunner) RunWithContext(ctx context.Context) error {
	m.calls.Add(1)
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerService_Interface(t *testing.T) {
	var _ suture.Service = (*RunnerService)(nil)
	var _ Runner = (*storage.DB)(nil)
}

func TestRunnerService_Names(t *testing.T) {
	r := &mockRunner{}
	tests := []struct {
		svc  *RunnerService
		want string
	}{
		{NewDetectionScanService(r), "detection-scan"},
		{NewStorageGCService(r), "storage-gc"},
		{NewEventFeedService(r), "event-feed"},
		{NewRunnerService("custom", r), "custom"},
	}
	for _, tt := range tests {
		if got := tt.svc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestRunnerService_Serve(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		r := &mockRunner{}
		svc := NewDetectionScanService(r)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
		}
		if r.calls.Load() != 1 {
			t.Errorf("RunWithContext calls = %d, want 1", r.calls.Load())
		}
	})

	t.Run("propagates runner failure", func(t *testing.T) {
		boom := errors.New("scan failed")
		svc := NewDetectionScanService(&mockRunner{err: boom})

		if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Serve() error = %v, want %v", err, boom)
		}
	})
}

func TestRunnerService_StorageGC(t *testing.T) {
	db, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer db.Close()

	sup := suture.New("test-sup", suture.Spec{Timeout: time.Second})
	sup.Add(NewStorageGCService(db))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	errCh := sup.ServeBackground(ctx)
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	if err := db.Ping(); err != nil {
		t.Errorf("Ping() after GC loop stopped error = %v", err)
	}
}
