// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Layer identifies one independent dimension of a player's reputation.
type Layer string

const (
	LayerContribution Layer = "contribution"
	LayerTrust        Layer = "trust"
	LayerGovernance   Layer = "governance"
	LayerSocial       Layer = "social"
	LayerEconomic     Layer = "economic"
)

// allLayers is the canonical layer order used for snapshots and iteration.
var allLayers = []Layer{
	LayerContribution,
	LayerTrust,
	LayerGovernance,
	LayerSocial,
	LayerEconomic,
}

// Layers returns every layer in canonical order.
func Layers() []Layer {
	out := make([]Layer, len(allLayers))
	copy(out, allLayers)
	return out
}

// Valid reports whether l is a member of the closed layer set.
func (l Layer) Valid() bool {
	switch l {
	case LayerContribution, LayerTrust, LayerGovernance, LayerSocial, LayerEconomic:
		return true
	default:
		return false
	}
}

// ParseLayer converts a wire value into a Layer.
func ParseLayer(s string) (Layer, error) {
	l := Layer(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
	}
	return l, nil
}

// DecayKind selects the decay function applied to a layer's raw score.
type DecayKind string

const (
	DecayNone        DecayKind = "none"
	DecayExponential DecayKind = "exponential"
	DecayLinear      DecayKind = "linear"
	DecayLogarithmic DecayKind = "logarithmic"
)

// Valid reports whether k is a known decay function.
func (k DecayKind) Valid() bool {
	switch k {
	case DecayNone, DecayExponential, DecayLinear, DecayLogarithmic:
		return true
	default:
		return false
	}
}

// LayerConfig is the static, per-layer configuration.
type LayerConfig struct {
	Layer  Layer     `json:"layer"`
	Weight float64   `json:"weight"`
	Decay  DecayKind `json:"decay"`

	// Lambda is the exponential decay constant per day.
	Lambda float64 `json:"lambda,omitempty"`

	// LinearRate is the points lost per day under linear decay.
	LinearRate float64 `json:"linear_rate,omitempty"`

	// ValidationRequired enables the physics invariants for the layer.
	ValidationRequired bool `json:"validation_required"`

	// AllowNegative lets the raw score drop below zero.
	AllowNegative bool `json:"allow_negative"`
}

// DefaultLayerConfigs returns the built-in layer table.
func DefaultLayerConfigs() []LayerConfig {
	return []LayerConfig{
		{Layer: LayerContribution, Weight: 0.30, Decay: DecayExponential, Lambda: 0.01, ValidationRequired: true},
		{Layer: LayerTrust, Weight: 0.25, Decay: DecayLogarithmic, ValidationRequired: true},
		{Layer: LayerGovernance, Weight: 0.20, Decay: DecayLinear, LinearRate: 0.1, ValidationRequired: true},
		{Layer: LayerSocial, Weight: 0.15, Decay: DecayExponential, Lambda: 0.02, ValidationRequired: true},
		{Layer: LayerEconomic, Weight: 0.10, Decay: DecayNone, ValidationRequired: true},
	}
}

// LayerSet is an immutable, validated set of layer configurations
// covering every layer exactly once.
type LayerSet struct {
	configs map[Layer]LayerConfig
}

// NewLayerSet validates cfgs and builds a LayerSet.
func NewLayerSet(cfgs []LayerConfig) (*LayerSet, error) {
	set := &LayerSet{configs: make(map[Layer]LayerConfig, len(allLayers))}
	for _, c := range cfgs {
		if !c.Layer.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, c.Layer)
		}
		if _, dup := set.configs[c.Layer]; dup {
			return nil, fmt.Errorf("layer %s configured more than once", c.Layer)
		}
		if !c.Decay.Valid() {
			return nil, fmt.Errorf("layer %s: unknown decay function %q", c.Layer, c.Decay)
		}
		if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return nil, fmt.Errorf("layer %s: weight must be a finite non-negative number", c.Layer)
		}
		if c.Lambda < 0 || c.LinearRate < 0 {
			return nil, fmt.Errorf("layer %s: decay parameters must be non-negative", c.Layer)
		}
		set.configs[c.Layer] = c
	}
	for _, l := range allLayers {
		if _, ok := set.configs[l]; !ok {
			return nil, fmt.Errorf("layer %s is not configured", l)
		}
	}
	return set, nil
}

// Get returns the configuration for a layer.
func (s *LayerSet) Get(l Layer) (LayerConfig, error) {
	c, ok := s.configs[l]
	if !ok {
		return LayerConfig{}, fmt.Errorf("%w: %q", ErrUnknownLayer, l)
	}
	return c, nil
}

// All returns every layer configuration in canonical order.
func (s *LayerSet) All() []LayerConfig {
	out := make([]LayerConfig, 0, len(allLayers))
	for _, l := range allLayers {
		out = append(out, s.configs[l])
	}
	return out
}

// Entry is the stored state of one (player, layer) pair.
type Entry struct {
	PlayerID    string    `json:"player_id"`
	Layer       Layer     `json:"layer"`
	Raw         float64   `json:"raw"`
	LastUpdated time.Time `json:"last_updated"`

	// Version increases by one on every accepted write and guards
	// against lost updates.
	Version uint64 `json:"version"`
}

// Transaction is the append-only record of an accepted delta.
type Transaction struct {
	ID             string    `json:"id"`
	PlayerID       string    `json:"player_id"`
	Layer          Layer     `json:"layer"`
	Amount         float64   `json:"amount"`
	ReasonCode     string    `json:"reason_code"`
	OccurredAt     time.Time `json:"occurred_at"`
	AppliedAt      time.Time `json:"applied_at"`
	EffectiveAfter float64   `json:"effective_after"`
}

// Event is an inbound behaviour event carrying a reputation delta.
type Event struct {
	PlayerID   string    `json:"player_id" validate:"required,max=128,excludesall=/"`
	Layer      string    `json:"layer" validate:"required"`
	Delta      float64   `json:"delta"`
	ReasonCode string    `json:"reason_code" validate:"required,max=64,excludesall=/"`
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
}

// Snapshot is the effective reputation vector of a player at a point in time.
type Snapshot struct {
	PlayerID  string            `json:"player_id"`
	AsOf      time.Time         `json:"as_of"`
	Layers    map[Layer]float64 `json:"layers"`
	Aggregate float64           `json:"aggregate"`
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Layer Layer
	Since time.Time
	Limit int
}
