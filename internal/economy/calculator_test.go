// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package economy

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/civitas/internal/reputation"
	"github.com/tomtom215/civitas/internal/storage"
)

// mockSource returns fixed aggregates per player.
type mockSource struct {
	aggregates map[string]float64
	err        error
}

func (m *mockSource) Aggregate(_ context.Context, playerID string, _ time.Time) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.aggregates[playerID], nil
}

func newTestCalculator(t *testing.T, aggregates map[string]float64) *Calculator {
	t.Helper()
	c, err := NewCalculator(&mockSource{aggregates: aggregates}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	return c
}

func TestFinalReward_GoldTier(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, map[string]float64{"p-1": 300})
	got, err := c.FinalReward(context.Background(), 100, "p-1", 1.0)
	if err != nil {
		t.Fatalf("FinalReward() error = %v", err)
	}
	if got != 150 {
		t.Errorf("FinalReward(100, aggregate 300, index 1.0) = %d, want 150", got)
	}
}

func TestCalculate_Tiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		aggregate  float64
		base       int64
		index      float64
		wantTier   string
		wantMult   float64
		wantReward int64
	}{
		{"zero reputation is bronze", 0, 100, 1, "bronze", 1.0, 100},
		{"silver threshold inclusive", 100, 100, 1, "silver", 1.25, 125},
		{"just below gold", 249.99, 100, 1, "silver", 1.25, 125},
		{"platinum is linear in reputation", 1000, 100, 1, "platinum", 2.5, 250},
		{"health index scales", 300, 100, 0.5, "gold", 1.5, 75},
		{"zero health index", 300, 100, 0, "gold", 1.5, 0},
		{"rounds half away from zero", 300, 3, 1, "gold", 1.5, 5},
		{"zero base", 300, 0, 1, "gold", 1.5, 0},
		{"platinum clamps at max", 10000, 10, 1, "platinum", 5, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestCalculator(t, map[string]float64{"p": tt.aggregate})
			r, err := c.Calculate(context.Background(), Request{PlayerID: "p", BaseReward: tt.base, HealthIndex: tt.index})
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if r.Tier != tt.wantTier {
				t.Errorf("Tier = %s, want %s", r.Tier, tt.wantTier)
			}
			if math.Abs(r.Multiplier-tt.wantMult) > 1e-9 {
				t.Errorf("Multiplier = %v, want %v", r.Multiplier, tt.wantMult)
			}
			if r.FinalReward != tt.wantReward {
				t.Errorf("FinalReward = %d, want %d", r.FinalReward, tt.wantReward)
			}
		})
	}
}

func TestMultiplier_ClampAndNoTier(t *testing.T) {
	t.Parallel()

	cfg := Config{
		MaxMultiplier: 3,
		Tiers: []Tier{
			{Name: "low", MinReputation: 10, Formula: FormulaPolynomial, Coefficients: []float64{2, 0, -0.01}},
			{Name: "high", MinReputation: 100, Formula: FormulaPolynomial, Coefficients: []float64{0, 0, 0.001}},
		},
	}
	c, err := NewCalculator(&mockSource{}, cfg)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}

	tests := []struct {
		aggregate float64
		wantTier  string
		wantMult  float64
	}{
		{5, NoTier, 1},
		{10, "low", 2 - 0.01*100},
		{20, "low", 0},
		{100, "high", 3},
	}
	for _, tt := range tests {
		tier, m := c.Multiplier(tt.aggregate)
		if tier != tt.wantTier || math.Abs(m-tt.wantMult) > 1e-9 {
			t.Errorf("Multiplier(%v) = %s, %v, want %s, %v", tt.aggregate, tier, m, tt.wantTier, tt.wantMult)
		}
	}
}

func TestCalculate_InvalidRequests(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, map[string]float64{"p": 300})
	tests := []struct {
		name string
		req  Request
	}{
		{"missing player", Request{BaseReward: 1, HealthIndex: 1}},
		{"negative base", Request{PlayerID: "p", BaseReward: -1, HealthIndex: 1}},
		{"negative index", Request{PlayerID: "p", BaseReward: 1, HealthIndex: -0.5}},
		{"NaN index", Request{PlayerID: "p", BaseReward: 1, HealthIndex: math.NaN()}},
		{"infinite index", Request{PlayerID: "p", BaseReward: 1, HealthIndex: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := c.Calculate(context.Background(), tt.req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Calculate() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestCalculate_Overflow(t *testing.T) {
	t.Parallel()

	c := newTestCalculator(t, map[string]float64{"p": 300})
	_, err := c.Calculate(context.Background(), Request{PlayerID: "p", BaseReward: math.MaxInt64, HealthIndex: 10})
	if !errors.Is(err, ErrRewardOverflow) {
		t.Errorf("Calculate() error = %v, want ErrRewardOverflow", err)
	}
}

func TestCalculate_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("store offline")
	c, err := NewCalculator(&mockSource{err: boom}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	if _, err := c.FinalReward(context.Background(), 100, "p", 1); !errors.Is(err, boom) {
		t.Errorf("FinalReward() error = %v, want wrapped source error", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tier := func(name string, min float64) Tier {
		return Tier{Name: name, MinReputation: min, Formula: FormulaLinear, Coefficients: []float64{1}}
	}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"no tiers", Config{MaxMultiplier: 5}, true},
		{"zero clamp", Config{MaxMultiplier: 0, Tiers: []Tier{tier("a", 0)}}, true},
		{"descending", Config{MaxMultiplier: 5, Tiers: []Tier{tier("a", 10), tier("b", 5)}}, true},
		{"equal thresholds", Config{MaxMultiplier: 5, Tiers: []Tier{tier("a", 10), tier("b", 10)}}, true},
		{"duplicate names", Config{MaxMultiplier: 5, Tiers: []Tier{tier("a", 0), tier("a", 10)}}, true},
		{"no coefficients", Config{MaxMultiplier: 5, Tiers: []Tier{{Name: "a", Formula: FormulaLinear}}}, true},
		{"linear too long", Config{MaxMultiplier: 5, Tiers: []Tier{{Name: "a", Formula: FormulaLinear, Coefficients: []float64{1, 2, 3}}}}, true},
		{"unknown formula", Config{MaxMultiplier: 5, Tiers: []Tier{{Name: "a", Formula: "exp", Coefficients: []float64{1}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCalculator_WithReputationEngine(t *testing.T) {
	t.Parallel()

	db, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	layers, err := reputation.NewLayerSet(reputation.DefaultLayerConfigs())
	if err != nil {
		t.Fatalf("NewLayerSet() error = %v", err)
	}
	engine := reputation.NewEngine(reputation.NewBadgerStore(db, "test", 0), layers,
		reputation.DefaultEngineConfig(), reputation.WithClock(clock))

	// 1000 contribution at weight 0.30 is an aggregate of 300.
	_, err = engine.Submit(context.Background(), reputation.Event{
		PlayerID:   "p-1",
		Layer:      string(reputation.LayerContribution),
		Delta:      1000,
		ReasonCode: "shipped_feature",
		OccurredAt: now,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	c, err := NewCalculator(engine, DefaultConfig(), WithClock(clock))
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	got, err := c.FinalReward(context.Background(), 100, "p-1", 1.0)
	if err != nil {
		t.Fatalf("FinalReward() error = %v", err)
	}
	if got != 150 {
		t.Errorf("FinalReward() = %d, want 150", got)
	}
}
