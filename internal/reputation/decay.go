// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import (
	"fmt"
	"math"
	"time"
)

const hoursPerDay = 24.0

// ElapsedDays returns the fractional days between from and to.
// A to earlier than from yields zero.
func ElapsedDays(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}
	return to.Sub(from).Hours() / hoursPerDay
}

// Decay applies the layer's decay function to raw over the given number of
// days. The result never grows in magnitude and equals raw when days is zero.
func Decay(raw float64, cfg LayerConfig, days float64) (float64, error) {
	if days <= 0 {
		return raw, nil
	}

	switch cfg.Decay {
	case DecayNone:
		return raw, nil
	case DecayExponential:
		return raw * math.Exp(-cfg.Lambda*days), nil
	case DecayLinear:
		loss := cfg.LinearRate * days
		if raw >= 0 {
			return math.Max(0, raw-loss), nil
		}
		return math.Min(0, raw+loss), nil
	case DecayLogarithmic:
		return raw / (1 + math.Log(days+1)), nil
	default:
		return 0, fmt.Errorf("layer %s: unknown decay function %q", cfg.Layer, cfg.Decay)
	}
}

// EffectiveScore is the decayed value of an entry as of asOf.
func EffectiveScore(e Entry, cfg LayerConfig, asOf time.Time) (float64, error) {
	return Decay(e.Raw, cfg, ElapsedDays(e.LastUpdated, asOf))
}
