// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package economy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/validation"
)

// Errors
var (
	ErrInvalidRequest = errors.New("invalid reward request")
	ErrRewardOverflow = errors.New("reward exceeds representable range")
)

// NoTier labels rewards for aggregates below every tier. They use a neutral
// multiplier of 1.
const NoTier = "none"

// AggregateSource supplies a player's weighted effective reputation.
type AggregateSource interface {
	Aggregate(ctx context.Context, playerID string, asOf time.Time) (float64, error)
}

// Request is one reward calculation.
type Request struct {
	PlayerID    string  `json:"player_id" validate:"required,max=128,excludesall=/"`
	BaseReward  int64   `json:"base_reward" validate:"gte=0"`
	HealthIndex float64 `json:"health_index" validate:"finite,gte=0"`
}

// Reward is the outcome of a calculation with the values that produced it.
type Reward struct {
	PlayerID    string    `json:"player_id"`
	BaseReward  int64     `json:"base_reward"`
	HealthIndex float64   `json:"health_index"`
	Aggregate   float64   `json:"aggregate_reputation"`
	Tier        string    `json:"tier"`
	Multiplier  float64   `json:"multiplier"`
	FinalReward int64     `json:"final_reward"`
	AsOf        time.Time `json:"as_of"`
}

// RequestError wraps an invalid request. It matches ErrInvalidRequest.
type RequestError struct {
	Reason string
	Fields *validation.RequestValidationError
}

func (e *RequestError) Error() string {
	if e.Fields != nil {
		return fmt.Sprintf("%s: %s", ErrInvalidRequest, e.Fields.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, e.Reason)
}

func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

// Option customizes a Calculator.
type Option func(*Calculator)

// WithClock replaces the wall clock used as the reputation read time.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// Calculator turns base rewards into final rewards using the player's
// reputation tier. It is pull-based and holds no state of its own.
type Calculator struct {
	source AggregateSource
	config Config
	now    func() time.Time
}

// NewCalculator creates a calculator over source.
func NewCalculator(source AggregateSource, cfg Config, opts ...Option) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid economy config: %w", err)
	}
	c := &Calculator{
		source: source,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Tiers returns the configured tier table.
func (c *Calculator) Tiers() []Tier {
	out := make([]Tier, len(c.config.Tiers))
	copy(out, c.config.Tiers)
	return out
}

// Multiplier returns the tier and clamped multiplier for an aggregate.
func (c *Calculator) Multiplier(aggregate float64) (string, float64) {
	tier, ok := tierFor(c.config.Tiers, aggregate)
	if !ok {
		return NoTier, 1
	}
	m := tier.Evaluate(aggregate)
	switch {
	case math.IsNaN(m), m < 0:
		m = 0
	case m > c.config.MaxMultiplier:
		m = c.config.MaxMultiplier
	}
	return tier.Name, m
}

// Calculate computes a reward with its breakdown.
func (c *Calculator) Calculate(ctx context.Context, req Request) (*Reward, error) {
	r, err := c.calculate(ctx, req)
	if err != nil {
		metrics.RecordRewardCalculation("", 0, err)
		return nil, err
	}
	metrics.RecordRewardCalculation(r.Tier, r.Multiplier, nil)
	return r, nil
}

func (c *Calculator) calculate(ctx context.Context, req Request) (*Reward, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, &RequestError{Fields: verr}
	}

	asOf := c.now()
	aggregate, err := c.source.Aggregate(ctx, req.PlayerID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate reputation: %w", err)
	}

	tier, multiplier := c.Multiplier(aggregate)
	final := math.Round(float64(req.BaseReward) * multiplier * req.HealthIndex)
	if final >= math.MaxInt64 || math.IsNaN(final) {
		return nil, fmt.Errorf("%w: base %d, multiplier %.4f, index %.4f",
			ErrRewardOverflow, req.BaseReward, multiplier, req.HealthIndex)
	}

	logging.Ctx(ctx).Debug().
		Str("player_id", req.PlayerID).
		Str("tier", tier).
		Float64("aggregate", aggregate).
		Float64("multiplier", multiplier).
		Int64("final_reward", int64(final)).
		Msg("reward calculated")

	return &Reward{
		PlayerID:    req.PlayerID,
		BaseReward:  req.BaseReward,
		HealthIndex: req.HealthIndex,
		Aggregate:   aggregate,
		Tier:        tier,
		Multiplier:  multiplier,
		FinalReward: int64(final),
		AsOf:        asOf,
	}, nil
}

// FinalReward returns round(baseReward * multiplier * healthIndex).
func (c *Calculator) FinalReward(ctx context.Context, baseReward int64, playerID string, healthIndex float64) (int64, error) {
	r, err := c.Calculate(ctx, Request{PlayerID: playerID, BaseReward: baseReward, HealthIndex: healthIndex})
	if err != nil {
		return 0, err
	}
	return r.FinalReward, nil
}
