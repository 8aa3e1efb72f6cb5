// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package badges

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/civitas/internal/reputation"
)

// UnlocksTopic is the feed topic tier unlocks are published on.
const UnlocksTopic = "badges.unlocked"

// Category is a badge family. Each category has its own tier ladder.
type Category string

const (
	CategoryMentor  Category = "mentor"
	CategorySteward Category = "steward"
	CategoryPatron  Category = "patron"
	CategoryPillar  Category = "pillar"
	CategoryVeteran Category = "veteran"
)

// Categories returns every category in evaluation order.
func Categories() []Category {
	return []Category{CategoryMentor, CategorySteward, CategoryPatron, CategoryPillar, CategoryVeteran}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMentor, CategorySteward, CategoryPatron, CategoryPillar, CategoryVeteran:
		return true
	default:
		return false
	}
}

// ConditionKind selects what a Condition measures.
type ConditionKind string

const (
	// ConditionAggregate compares the weighted aggregate reputation.
	ConditionAggregate ConditionKind = "aggregate"

	// ConditionLayer compares one layer's effective score.
	ConditionLayer ConditionKind = "layer"

	// ConditionMembershipDays compares days since the first accepted event.
	ConditionMembershipDays ConditionKind = "membership_days"

	// ConditionCounter compares the count of accepted events with a reason code.
	ConditionCounter ConditionKind = "counter"
)

// Condition is a single threshold. It holds when the measured value is at
// least Min.
type Condition struct {
	Kind    ConditionKind `json:"kind"`
	Layer   string        `json:"layer,omitempty"`
	Counter string        `json:"counter,omitempty"`
	Min     float64       `json:"min"`
}

func (c Condition) validate() error {
	if math.IsNaN(c.Min) || math.IsInf(c.Min, 0) || c.Min < 0 {
		return fmt.Errorf("condition %s: min must be a finite non-negative number", c.Kind)
	}
	switch c.Kind {
	case ConditionAggregate, ConditionMembershipDays:
	case ConditionLayer:
		if _, err := reputation.ParseLayer(c.Layer); err != nil {
			return fmt.Errorf("condition layer: %w", err)
		}
	case ConditionCounter:
		if c.Counter == "" {
			return fmt.Errorf("condition counter: counter name is required")
		}
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	return nil
}

// Tier is one rung of a ladder. Rank starts at 1; rank 0 means no badge.
type Tier struct {
	Rank       int         `json:"rank"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
}

// Ladder is the ordered tiers of a category.
type Ladder struct {
	Category Category `json:"category"`
	Tiers    []Tier   `json:"tiers"`
}

// Validate checks that ranks run 1..n and every condition is well formed.
func (l Ladder) Validate() error {
	if !l.Category.Valid() {
		return fmt.Errorf("unknown badge category %q", l.Category)
	}
	if len(l.Tiers) == 0 {
		return fmt.Errorf("category %s: at least one tier is required", l.Category)
	}
	for i, t := range l.Tiers {
		if t.Rank != i+1 {
			return fmt.Errorf("category %s: tier %q has rank %d, want %d", l.Category, t.Name, t.Rank, i+1)
		}
		if t.Name == "" {
			return fmt.Errorf("category %s: tier %d has no name", l.Category, t.Rank)
		}
		if len(t.Conditions) == 0 {
			return fmt.Errorf("category %s: tier %s has no conditions", l.Category, t.Name)
		}
		for _, c := range t.Conditions {
			if err := c.validate(); err != nil {
				return fmt.Errorf("category %s: tier %s: %w", l.Category, t.Name, err)
			}
		}
	}
	return nil
}

// State is a player's current rank in one category.
type State struct {
	PlayerID  string    `json:"player_id"`
	Category  Category  `json:"category"`
	Rank      int       `json:"rank"`
	TierName  string    `json:"tier_name,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Unlock records a tier transition. It is the payload of UnlocksTopic.
type Unlock struct {
	PlayerID   string    `json:"player_id"`
	Category   Category  `json:"category"`
	Rank       int       `json:"rank"`
	TierName   string    `json:"tier_name"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// DefaultLadders returns the standard badge ladders.
func DefaultLadders() []Ladder {
	counter := func(name string, min float64) Condition {
		return Condition{Kind: ConditionCounter, Counter: name, Min: min}
	}
	layer := func(l reputation.Layer, min float64) Condition {
		return Condition{Kind: ConditionLayer, Layer: string(l), Min: min}
	}

	return []Ladder{
		{Category: CategoryMentor, Tiers: []Tier{
			{Rank: 1, Name: "guide", Conditions: []Condition{counter("mentorship_completed", 1)}},
			{Rank: 2, Name: "mentor", Conditions: []Condition{counter("mentorship_completed", 10), layer(reputation.LayerTrust, 50)}},
			{Rank: 3, Name: "grand_mentor", Conditions: []Condition{counter("mentorship_completed", 50), layer(reputation.LayerTrust, 150)}},
		}},
		{Category: CategorySteward, Tiers: []Tier{
			{Rank: 1, Name: "voter", Conditions: []Condition{counter("governance_vote", 5)}},
			{Rank: 2, Name: "steward", Conditions: []Condition{counter("governance_vote", 25), layer(reputation.LayerGovernance, 50)}},
			{Rank: 3, Name: "high_steward", Conditions: []Condition{counter("governance_vote", 100), layer(reputation.LayerGovernance, 200)}},
		}},
		{Category: CategoryPatron, Tiers: []Tier{
			{Rank: 1, Name: "supporter", Conditions: []Condition{counter("donation", 1)}},
			{Rank: 2, Name: "patron", Conditions: []Condition{counter("donation", 10), layer(reputation.LayerEconomic, 500)}},
			{Rank: 3, Name: "benefactor", Conditions: []Condition{layer(reputation.LayerEconomic, 2000)}},
		}},
		{Category: CategoryPillar, Tiers: []Tier{
			{Rank: 1, Name: "citizen", Conditions: []Condition{{Kind: ConditionAggregate, Min: 100}}},
			{Rank: 2, Name: "notable", Conditions: []Condition{{Kind: ConditionAggregate, Min: 250}}},
			{Rank: 3, Name: "pillar", Conditions: []Condition{{Kind: ConditionAggregate, Min: 500}}},
		}},
		{Category: CategoryVeteran, Tiers: []Tier{
			{Rank: 1, Name: "settler", Conditions: []Condition{{Kind: ConditionMembershipDays, Min: 30}}},
			{Rank: 2, Name: "veteran", Conditions: []Condition{{Kind: ConditionMembershipDays, Min: 180}}},
			{Rank: 3, Name: "elder", Conditions: []Condition{{Kind: ConditionMembershipDays, Min: 365}}},
		}},
	}
}
