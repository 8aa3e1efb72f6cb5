// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/validation"
)

// Outcome labels for submit metrics.
const (
	outcomeAccepted     = "accepted"
	outcomeRejected     = "rejected"
	outcomeMalformed    = "malformed"
	outcomeUnknownLayer = "unknown_layer"
	outcomeStale        = "stale"
	outcomeError        = "error"
)

// EngineConfig configures the write path.
type EngineConfig struct {
	Physics PhysicsConfig

	// MaxWriteRetries bounds automatic retries after ErrStaleWrite.
	MaxWriteRetries int
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Physics:         DefaultPhysicsConfig(),
		MaxWriteRetries: 3,
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for decay and write timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine is the single writer of reputation state. It validates inbound
// deltas against the decayed score, applies accepted ones and serves
// effective reputation reads.
type Engine struct {
	store  Store
	layers *LayerSet
	config EngineConfig
	now    func() time.Time
	locks  *keyedMutex
}

// NewEngine creates an engine over store.
func NewEngine(store Store, layers *LayerSet, cfg EngineConfig, opts ...Option) *Engine {
	if cfg.MaxWriteRetries < 0 {
		cfg.MaxWriteRetries = 0
	}
	e := &Engine{
		store:  store,
		layers: layers,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layers returns the engine's layer configuration.
func (e *Engine) Layers() *LayerSet {
	return e.layers
}

// Submit validates and applies an inbound event. On success it returns the
// appended transaction. Rejections return a *RejectionError and leave state
// untouched.
func (e *Engine) Submit(ctx context.Context, ev Event) (*Transaction, error) {
	start := time.Now()

	if verr := validation.ValidateStruct(&ev); verr != nil {
		metrics.RecordReputationEvent(ev.Layer, outcomeMalformed, time.Since(start))
		return nil, &MalformedEventError{Fields: verr}
	}
	if math.IsNaN(ev.Delta) || math.IsInf(ev.Delta, 0) {
		metrics.RecordReputationEvent(ev.Layer, outcomeMalformed, time.Since(start))
		return nil, &MalformedEventError{Reason: "delta must be a finite number"}
	}

	layer, err := ParseLayer(ev.Layer)
	if err != nil {
		metrics.RecordReputationEvent(ev.Layer, outcomeUnknownLayer, time.Since(start))
		return nil, err
	}
	cfg, err := e.layers.Get(layer)
	if err != nil {
		metrics.RecordReputationEvent(ev.Layer, outcomeUnknownLayer, time.Since(start))
		return nil, err
	}

	unlock := e.locks.Lock(ev.PlayerID + "/" + string(layer))
	defer unlock()

	var tx *Transaction
	for attempt := 0; ; attempt++ {
		tx, err = e.apply(ctx, cfg, ev)
		if !errors.Is(err, ErrStaleWrite) || attempt >= e.config.MaxWriteRetries {
			break
		}
		metrics.RecordStaleWriteRetry(string(layer))
		logging.Ctx(ctx).Debug().
			Str("player_id", ev.PlayerID).
			Str("layer", string(layer)).
			Int("attempt", attempt+1).
			Msg("stale reputation write, retrying")
	}

	var rejection *RejectionError
	switch {
	case err == nil:
		metrics.RecordReputationEvent(string(layer), outcomeAccepted, time.Since(start))
		return tx, nil
	case errors.As(err, &rejection):
		metrics.RecordReputationEvent(string(layer), outcomeRejected, time.Since(start))
		metrics.RecordReputationRejection(string(layer), string(rejection.Invariant))
		logging.Ctx(ctx).Info().
			Str("player_id", ev.PlayerID).
			Str("layer", string(layer)).
			Str("invariant", string(rejection.Invariant)).
			Float64("delta", ev.Delta).
			Float64("effective", rejection.Effective).
			Msg("reputation delta rejected")
	case errors.Is(err, ErrStaleWrite):
		metrics.RecordReputationEvent(string(layer), outcomeStale, time.Since(start))
		logging.Ctx(ctx).Warn().
			Str("player_id", ev.PlayerID).
			Str("layer", string(layer)).
			Msg("reputation write still stale after retries")
	default:
		metrics.RecordReputationEvent(string(layer), outcomeError, time.Since(start))
	}
	return nil, err
}

// apply performs one read-validate-write attempt.
func (e *Engine) apply(ctx context.Context, cfg LayerConfig, ev Event) (*Transaction, error) {
	current, _, err := e.store.GetEntry(ctx, ev.PlayerID, cfg.Layer)
	if err != nil {
		return nil, err
	}

	now := e.now()
	effective, err := EffectiveScore(current, cfg, now)
	if err != nil {
		return nil, err
	}

	if err := e.config.Physics.Check(cfg, effective, ev.Delta); err != nil {
		return nil, err
	}

	newRaw := Apply(cfg, effective, ev.Delta)
	next := Entry{
		PlayerID:    ev.PlayerID,
		Layer:       cfg.Layer,
		Raw:         newRaw,
		LastUpdated: now,
		Version:     current.Version + 1,
	}
	tx := Transaction{
		ID:             uuid.New().String(),
		PlayerID:       ev.PlayerID,
		Layer:          cfg.Layer,
		Amount:         ev.Delta,
		ReasonCode:     ev.ReasonCode,
		OccurredAt:     ev.OccurredAt.UTC(),
		AppliedAt:      now,
		EffectiveAfter: newRaw,
	}

	if err := e.store.Commit(ctx, Commit{Entry: next, ExpectedVersion: current.Version, Transaction: tx}); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Effective returns the decayed score of one layer as of asOf.
func (e *Engine) Effective(ctx context.Context, playerID string, layer Layer, asOf time.Time) (float64, error) {
	cfg, err := e.layers.Get(layer)
	if err != nil {
		return 0, err
	}
	entry, _, err := e.store.GetEntry(ctx, playerID, layer)
	if err != nil {
		return 0, err
	}
	return EffectiveScore(entry, cfg, asOf)
}

// Snapshot returns the effective reputation vector and its weighted
// aggregate. A zero asOf means now.
func (e *Engine) Snapshot(ctx context.Context, playerID string, asOf time.Time) (*Snapshot, error) {
	if asOf.IsZero() {
		asOf = e.now()
	}

	entries, err := e.store.Entries(ctx, playerID)
	if err != nil {
		return nil, err
	}
	byLayer := make(map[Layer]Entry, len(entries))
	for _, en := range entries {
		byLayer[en.Layer] = en
	}

	snap := &Snapshot{
		PlayerID: playerID,
		AsOf:     asOf,
		Layers:   make(map[Layer]float64, len(allLayers)),
	}
	for _, cfg := range e.layers.All() {
		score, err := EffectiveScore(byLayer[cfg.Layer], cfg, asOf)
		if err != nil {
			return nil, err
		}
		snap.Layers[cfg.Layer] = score
		snap.Aggregate += cfg.Weight * score
	}
	return snap, nil
}

// Aggregate returns the weighted sum of a player's effective layer scores.
func (e *Engine) Aggregate(ctx context.Context, playerID string, asOf time.Time) (float64, error) {
	snap, err := e.Snapshot(ctx, playerID, asOf)
	if err != nil {
		return 0, err
	}
	return snap.Aggregate, nil
}

// Transactions lists a player's transaction history, newest first.
func (e *Engine) Transactions(ctx context.Context, playerID string, filter TransactionFilter) ([]Transaction, error) {
	if filter.Layer != "" && !filter.Layer.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, filter.Layer)
	}
	return e.store.ListTransactions(ctx, playerID, filter)
}

// Counters returns per reason code counts of a player's accepted events.
func (e *Engine) Counters(ctx context.Context, playerID string) (map[string]int64, error) {
	return e.store.Counters(ctx, playerID)
}

// MemberSince returns when the player's first event was accepted.
func (e *Engine) MemberSince(ctx context.Context, playerID string) (time.Time, bool, error) {
	return e.store.MemberSince(ctx, playerID)
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
