// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package economy

import (
	"fmt"
	"math"
	"sort"
)

// Formula selects how a tier's coefficients are evaluated.
type Formula string

const (
	// FormulaLinear is c0 + c1*x. At most two coefficients.
	FormulaLinear Formula = "linear"

	// FormulaPolynomial is the sum of c_i * x^i.
	FormulaPolynomial Formula = "polynomial"
)

// Tier maps a reputation threshold to a multiplier formula.
type Tier struct {
	Name          string    `json:"name"`
	MinReputation float64   `json:"min_reputation"`
	Formula       Formula   `json:"formula"`
	Coefficients  []float64 `json:"coefficients"`
}

// Evaluate returns the raw, unclamped multiplier at aggregate x.
func (t Tier) Evaluate(x float64) float64 {
	// Horner's method, highest degree first.
	var v float64
	for i := len(t.Coefficients) - 1; i >= 0; i-- {
		v = v*x + t.Coefficients[i]
	}
	return v
}

func (t Tier) validate() error {
	if t.Name == "" {
		return fmt.Errorf("tier name is required")
	}
	if math.IsNaN(t.MinReputation) || math.IsInf(t.MinReputation, 0) {
		return fmt.Errorf("tier %s: min_reputation must be finite", t.Name)
	}
	if len(t.Coefficients) == 0 {
		return fmt.Errorf("tier %s: at least one coefficient is required", t.Name)
	}
	for _, c := range t.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("tier %s: coefficients must be finite", t.Name)
		}
	}
	switch t.Formula {
	case FormulaLinear:
		if len(t.Coefficients) > 2 {
			return fmt.Errorf("tier %s: linear formula takes at most 2 coefficients", t.Name)
		}
	case FormulaPolynomial:
	default:
		return fmt.Errorf("tier %s: unknown formula %q", t.Name, t.Formula)
	}
	return nil
}

// Config is the tier table.
type Config struct {
	Tiers []Tier `json:"tiers"`

	// MaxMultiplier clamps every evaluated multiplier from above.
	MaxMultiplier float64 `json:"max_multiplier"`
}

// DefaultTiers returns the standard tier table.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "bronze", MinReputation: 0, Formula: FormulaLinear, Coefficients: []float64{1.0}},
		{Name: "silver", MinReputation: 100, Formula: FormulaLinear, Coefficients: []float64{1.25}},
		{Name: "gold", MinReputation: 250, Formula: FormulaLinear, Coefficients: []float64{1.5}},
		{Name: "platinum", MinReputation: 500, Formula: FormulaLinear, Coefficients: []float64{1.5, 0.001}},
	}
}

// DefaultConfig returns the standard tier table and clamp.
func DefaultConfig() Config {
	return Config{
		Tiers:         DefaultTiers(),
		MaxMultiplier: 5,
	}
}

// Validate checks the tier table. Tiers must be listed in strictly ascending
// MinReputation order with unique names.
func (c Config) Validate() error {
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}
	if !(c.MaxMultiplier > 0) || math.IsInf(c.MaxMultiplier, 0) {
		return fmt.Errorf("max_multiplier must be a positive finite number")
	}
	names := make(map[string]struct{}, len(c.Tiers))
	for i, t := range c.Tiers {
		if err := t.validate(); err != nil {
			return err
		}
		if _, dup := names[t.Name]; dup {
			return fmt.Errorf("duplicate tier name %q", t.Name)
		}
		names[t.Name] = struct{}{}
		if i > 0 && t.MinReputation <= c.Tiers[i-1].MinReputation {
			return fmt.Errorf("tier %s: min_reputation must be greater than tier %s",
				t.Name, c.Tiers[i-1].Name)
		}
	}
	return nil
}

// tierFor returns the highest tier whose threshold aggregate meets.
func tierFor(tiers []Tier, aggregate float64) (Tier, bool) {
	i := sort.Search(len(tiers), func(i int) bool { return tiers[i].MinReputation > aggregate })
	if i == 0 {
		return Tier{}, false
	}
	return tiers[i-1], true
}
