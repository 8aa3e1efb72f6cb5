// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
)

// ErrClosed is returned by operations on a closed database.
var ErrClosed = errors.New("storage is closed")

// Config holds BadgerDB configuration.
type Config struct {
	// Path is the directory where BadgerDB stores its files.
	// Ignored when InMemory is set.
	Path string

	// InMemory runs BadgerDB without touching disk. Intended for tests
	// and ephemeral deployments.
	InMemory bool

	// SyncWrites forces fsync after every write.
	SyncWrites bool

	// Compression enables Snappy block compression.
	Compression bool

	// GCInterval is the time between value log GC runs.
	GCInterval time.Duration

	// GCRatio is the discard ratio passed to RunValueLogGC.
	GCRatio float64

	// CloseTimeout bounds how long Close waits for BadgerDB.
	CloseTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Path:         "/data/civitas",
		SyncWrites:   true,
		Compression:  true,
		GCInterval:   10 * time.Minute,
		GCRatio:      0.5,
		CloseTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("storage path is required unless in_memory is set")
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return fmt.Errorf("gc_ratio must be between 0 and 1 exclusive, got %v", c.GCRatio)
	}
	if c.GCInterval < time.Minute {
		return fmt.Errorf("gc_interval must be at least 1m, got %v", c.GCInterval)
	}
	return nil
}

// DB wraps a BadgerDB handle with lifecycle management.
type DB struct {
	db     *badger.DB
	config Config

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites && !cfg.InMemory
	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", opts.SyncWrites).
		Msg("storage opened")

	return &DB{db: db, config: cfg}, nil
}

// OpenInMemory opens an in-memory database with test-friendly settings.
func OpenInMemory() (*DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory BadgerDB: %w", err)
	}

	cfg := DefaultConfig()
	cfg.InMemory = true
	cfg.Path = ""
	return &DB{db: db, config: cfg}, nil
}

// Update runs fn inside a read-write transaction.
func (d *DB) Update(fn func(txn *badger.Txn) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	return d.db.Update(fn)
}

// View runs fn inside a read-only transaction.
func (d *DB) View(fn func(txn *badger.Txn) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	return d.db.View(fn)
}

// Ping reports whether the database accepts transactions.
func (d *DB) Ping() error {
	return d.View(func(txn *badger.Txn) error { return nil })
}

// Config returns the storage configuration.
func (d *DB) Config() Config {
	return d.config
}

// RunGC runs value log GC until there is nothing left to rewrite.
func (d *DB) RunGC() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	if d.config.InMemory {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordStorageGC(time.Since(start))
	}()

	for {
		err := d.db.RunValueLogGC(d.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// RunWithContext runs periodic value log GC until ctx is canceled.
// Designed to run under suture supervision.
func (d *DB) RunWithContext(ctx context.Context) error {
	interval := d.config.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.RunGC(); err != nil {
				if errors.Is(err, ErrClosed) {
					return err
				}
				logging.Warn().Err(err).Msg("storage GC failed")
			}
		}
	}
}

// Close gracefully shuts down the database with the configured timeout.
func (d *DB) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	timeout := d.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- d.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("storage closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}

// IsConflict reports whether err is an optimistic transaction conflict.
func IsConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}
