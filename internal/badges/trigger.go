// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/reputation"
)

// ErrInvalidPlayer is returned for an empty or malformed player ID.
var ErrInvalidPlayer = errors.New("invalid player id")

// Source supplies the reputation facts badge conditions are evaluated on.
// reputation.Engine implements it.
type Source interface {
	Snapshot(ctx context.Context, playerID string, asOf time.Time) (*reputation.Snapshot, error)
	Counters(ctx context.Context, playerID string) (map[string]int64, error)
	MemberSince(ctx context.Context, playerID string) (time.Time, bool, error)
}

// Publisher emits unlocks to the badge feed.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

// Option customizes a Trigger.
type Option func(*Trigger)

// WithClock replaces the wall clock used for evaluation and unlock times.
func WithClock(now func() time.Time) Option {
	return func(t *Trigger) {
		t.now = now
	}
}

// WithPublisher sets where unlocks are published.
func WithPublisher(p Publisher) Option {
	return func(t *Trigger) {
		t.publisher = p
	}
}

// Trigger advances players through badge ladders. Each category is a state
// machine from rank 0 up to its highest tier; ranks never go down.
type Trigger struct {
	source    Source
	store     StateStore
	publisher Publisher
	ladders   []Ladder
	now       func() time.Time
}

// NewTrigger validates the ladders and creates a trigger.
func NewTrigger(source Source, store StateStore, ladders []Ladder, opts ...Option) (*Trigger, error) {
	seen := make(map[Category]struct{}, len(ladders))
	for _, l := range ladders {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[l.Category]; dup {
			return nil, fmt.Errorf("duplicate ladder for category %s", l.Category)
		}
		seen[l.Category] = struct{}{}
	}

	t := &Trigger{
		source:  source,
		store:   store,
		ladders: ladders,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// facts is everything conditions are evaluated against, read once per check.
type facts struct {
	snapshot   *reputation.Snapshot
	counters   map[string]int64
	memberDays float64
	isMember   bool
}

func (f facts) satisfies(c Condition) bool {
	switch c.Kind {
	case ConditionAggregate:
		return f.snapshot.Aggregate >= c.Min
	case ConditionLayer:
		l, err := reputation.ParseLayer(c.Layer)
		if err != nil {
			return false
		}
		return f.snapshot.Layers[l] >= c.Min
	case ConditionMembershipDays:
		return f.isMember && f.memberDays >= c.Min
	case ConditionCounter:
		return float64(f.counters[c.Counter]) >= c.Min
	default:
		return false
	}
}

func (f facts) satisfiesAll(t Tier) bool {
	for _, c := range t.Conditions {
		if !f.satisfies(c) {
			return false
		}
	}
	return true
}

// CheckEvolutions evaluates every ladder for a player and persists each tier
// the player now qualifies for, several per category if thresholds were
// crossed at once. Calling it again without new activity returns nothing.
func (t *Trigger) CheckEvolutions(ctx context.Context, playerID string) ([]Unlock, error) {
	unlocks, err := t.checkEvolutions(ctx, playerID)
	metrics.RecordBadgeCheck(len(unlocks), err)
	return unlocks, err
}

func (t *Trigger) checkEvolutions(ctx context.Context, playerID string) ([]Unlock, error) {
	if playerID == "" {
		return nil, ErrInvalidPlayer
	}

	now := t.now()
	f, err := t.gather(ctx, playerID, now)
	if err != nil {
		return nil, err
	}
	states, err := t.store.States(ctx, playerID)
	if err != nil {
		return nil, err
	}

	var unlocks []Unlock
	for _, ladder := range t.ladders {
		rank := states[ladder.Category].Rank
		for rank < len(ladder.Tiers) {
			tier := ladder.Tiers[rank]
			if !f.satisfiesAll(tier) {
				break
			}
			u := Unlock{
				PlayerID:   playerID,
				Category:   ladder.Category,
				Rank:       tier.Rank,
				TierName:   tier.Name,
				UnlockedAt: now,
			}
			err := t.store.Advance(ctx, rank, u)
			if errors.Is(err, ErrRankConflict) {
				// Another check moved this category; continue from its rank.
				fresh, err := t.store.States(ctx, playerID)
				if err != nil {
					return unlocks, err
				}
				if fresh[ladder.Category].Rank <= rank {
					return unlocks, ErrRankConflict
				}
				rank = fresh[ladder.Category].Rank
				continue
			}
			if err != nil {
				return unlocks, err
			}
			rank = tier.Rank
			unlocks = append(unlocks, u)
			t.emit(ctx, u)
		}
	}
	return unlocks, nil
}

func (t *Trigger) gather(ctx context.Context, playerID string, now time.Time) (facts, error) {
	snap, err := t.source.Snapshot(ctx, playerID, now)
	if err != nil {
		return facts{}, fmt.Errorf("failed to read reputation: %w", err)
	}
	counters, err := t.source.Counters(ctx, playerID)
	if err != nil {
		return facts{}, fmt.Errorf("failed to read behaviour counters: %w", err)
	}
	joined, isMember, err := t.source.MemberSince(ctx, playerID)
	if err != nil {
		return facts{}, fmt.Errorf("failed to read membership: %w", err)
	}
	return facts{
		snapshot:   snap,
		counters:   counters,
		memberDays: reputation.ElapsedDays(joined, now),
		isMember:   isMember,
	}, nil
}

func (t *Trigger) emit(ctx context.Context, u Unlock) {
	metrics.RecordBadgeUnlock(string(u.Category), u.TierName)
	logging.Ctx(ctx).Info().
		Str("player_id", u.PlayerID).
		Str("category", string(u.Category)).
		Int("rank", u.Rank).
		Str("tier", u.TierName).
		Msg("badge tier unlocked")

	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishJSON(ctx, UnlocksTopic, u.PlayerID, u); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("player_id", u.PlayerID).
			Str("category", string(u.Category)).
			Msg("failed to publish badge unlock")
	}
}

// Ranks returns the player's state in every configured category. Categories
// without a badge have rank 0.
func (t *Trigger) Ranks(ctx context.Context, playerID string) ([]State, error) {
	if playerID == "" {
		return nil, ErrInvalidPlayer
	}
	states, err := t.store.States(ctx, playerID)
	if err != nil {
		return nil, err
	}
	out := make([]State, 0, len(t.ladders))
	for _, l := range t.ladders {
		st, ok := states[l.Category]
		if !ok {
			st = State{PlayerID: playerID, Category: l.Category}
		}
		out = append(out, st)
	}
	return out, nil
}

// History returns the player's unlocks, newest first.
func (t *Trigger) History(ctx context.Context, playerID string, limit int) ([]Unlock, error) {
	if playerID == "" {
		return nil, ErrInvalidPlayer
	}
	return t.store.History(ctx, playerID, limit)
}

// Ladders returns the configured ladders.
func (t *Trigger) Ladders() []Ladder {
	out := make([]Ladder, len(t.ladders))
	copy(out, t.ladders)
	return out
}
