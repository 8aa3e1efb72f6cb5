// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import "fmt"

// PhysicsConfig holds the thresholds of the physics invariants.
type PhysicsConfig struct {
	// TrustJumpLimit is the largest trust delta accepted for a player whose
	// effective trust is below TrustFloor.
	TrustJumpLimit float64 `json:"trust_jump_limit"`
	TrustFloor     float64 `json:"trust_floor"`

	// PermanentDeltaLimit caps any single delta on a layer without decay.
	PermanentDeltaLimit float64 `json:"permanent_delta_limit"`
}

// DefaultPhysicsConfig returns the standard thresholds.
func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		TrustJumpLimit:      100,
		TrustFloor:          50,
		PermanentDeltaLimit: 1000,
	}
}

// Validate checks the thresholds.
func (p PhysicsConfig) Validate() error {
	if p.TrustJumpLimit <= 0 {
		return fmt.Errorf("trust_jump_limit must be positive")
	}
	if p.TrustFloor < 0 {
		return fmt.Errorf("trust_floor must be non-negative")
	}
	if p.PermanentDeltaLimit <= 0 {
		return fmt.Errorf("permanent_delta_limit must be positive")
	}
	return nil
}

// Check evaluates the invariants for a delta against the current effective
// score. It is pure: no state is read or written.
func (p PhysicsConfig) Check(cfg LayerConfig, effective, delta float64) error {
	if !cfg.ValidationRequired {
		return nil
	}

	if cfg.Layer == LayerTrust && delta > p.TrustJumpLimit && effective < p.TrustFloor {
		return &RejectionError{
			Invariant: InvariantConservationOfTrust,
			Layer:     cfg.Layer,
			Delta:     delta,
			Effective: effective,
		}
	}

	if cfg.Decay == DecayNone && delta > p.PermanentDeltaLimit {
		return &RejectionError{
			Invariant: InvariantEntropyLaw,
			Layer:     cfg.Layer,
			Delta:     delta,
			Effective: effective,
		}
	}

	return nil
}

// Apply returns the new raw score after adding delta to the effective score.
// Layers that do not allow negatives are floored at zero.
func Apply(cfg LayerConfig, effective, delta float64) float64 {
	next := effective + delta
	if next < 0 && !cfg.AllowNegative {
		return 0
	}
	return next
}
