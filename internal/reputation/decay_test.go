// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func layerConfig(t *testing.T, l Layer) LayerConfig {
	t.Helper()
	set, err := NewLayerSet(DefaultLayerConfigs())
	if err != nil {
		t.Fatalf("NewLayerSet() error = %v", err)
	}
	cfg, err := set.Get(l)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", l, err)
	}
	return cfg
}

func TestDecay_ZeroDaysReturnsRaw(t *testing.T) {
	t.Parallel()

	for _, kind := range []DecayKind{DecayNone, DecayExponential, DecayLinear, DecayLogarithmic} {
		cfg := LayerConfig{Layer: LayerSocial, Decay: kind, Lambda: 0.01, LinearRate: 0.1}
		got, err := Decay(250, cfg, 0)
		if err != nil {
			t.Fatalf("Decay(%s) error = %v", kind, err)
		}
		if got != 250 {
			t.Errorf("Decay(%s, days=0) = %v, want 250", kind, got)
		}
	}
}

func TestDecay_Formulas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  LayerConfig
		raw  float64
		days float64
		want float64
	}{
		{
			name: "exponential default lambda",
			cfg:  LayerConfig{Decay: DecayExponential, Lambda: 0.01},
			raw:  100, days: 30,
			want: 100 * math.Exp(-0.3),
		},
		{
			name: "linear default rate",
			cfg:  LayerConfig{Decay: DecayLinear, LinearRate: 0.1},
			raw:  100, days: 50,
			want: 95,
		},
		{
			name: "linear floors at zero",
			cfg:  LayerConfig{Decay: DecayLinear, LinearRate: 0.1},
			raw:  3, days: 100,
			want: 0,
		},
		{
			name: "linear negative raw moves toward zero",
			cfg:  LayerConfig{Decay: DecayLinear, LinearRate: 0.1, AllowNegative: true},
			raw:  -5, days: 20,
			want: -3,
		},
		{
			name: "logarithmic",
			cfg:  LayerConfig{Decay: DecayLogarithmic},
			raw:  100, days: math.E - 1,
			want: 50,
		},
		{
			name: "none",
			cfg:  LayerConfig{Decay: DecayNone},
			raw:  100, days: 365,
			want: 100,
		},
		{
			name: "negative days clamp to zero",
			cfg:  LayerConfig{Decay: DecayExponential, Lambda: 0.5},
			raw:  100, days: -3,
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decay(tt.raw, tt.cfg, tt.days)
			if err != nil {
				t.Fatalf("Decay() error = %v", err)
			}
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Decay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecay_MonotonicallyNonIncreasing(t *testing.T) {
	t.Parallel()

	for _, kind := range []DecayKind{DecayNone, DecayExponential, DecayLinear, DecayLogarithmic} {
		cfg := LayerConfig{Layer: LayerContribution, Decay: kind, Lambda: 0.01, LinearRate: 0.1}
		prev := math.Inf(1)
		for day := 0.0; day <= 3650; day += 0.5 {
			got, err := Decay(500, cfg, day)
			if err != nil {
				t.Fatalf("Decay(%s) error = %v", kind, err)
			}
			if got > prev+epsilon {
				t.Fatalf("Decay(%s) increased at day %v: %v > %v", kind, day, got, prev)
			}
			if got < 0 {
				t.Fatalf("Decay(%s) went negative at day %v: %v", kind, day, got)
			}
			prev = got
		}
	}
}

func TestDecay_UnknownKind(t *testing.T) {
	t.Parallel()
	if _, err := Decay(10, LayerConfig{Decay: "quadratic"}, 1); err == nil {
		t.Error("Decay() with unknown kind returned nil error")
	}
}

func TestEffectiveScore_UsesLastUpdated(t *testing.T) {
	t.Parallel()

	cfg := layerConfig(t, LayerContribution)
	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entry := Entry{Raw: 200, LastUpdated: updated}

	atWrite, err := EffectiveScore(entry, cfg, updated)
	if err != nil {
		t.Fatalf("EffectiveScore() error = %v", err)
	}
	if atWrite != 200 {
		t.Errorf("EffectiveScore(at lastUpdated) = %v, want 200", atWrite)
	}

	before, err := EffectiveScore(entry, cfg, updated.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("EffectiveScore() error = %v", err)
	}
	if before != 200 {
		t.Errorf("EffectiveScore(before lastUpdated) = %v, want 200", before)
	}

	later, err := EffectiveScore(entry, cfg, updated.Add(10*24*time.Hour))
	if err != nil {
		t.Fatalf("EffectiveScore() error = %v", err)
	}
	want := 200 * math.Exp(-0.1)
	if math.Abs(later-want) > epsilon {
		t.Errorf("EffectiveScore(+10d) = %v, want %v", later, want)
	}
}

func TestElapsedDays(t *testing.T) {
	t.Parallel()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ElapsedDays(from, from.Add(36*time.Hour)); math.Abs(got-1.5) > epsilon {
		t.Errorf("ElapsedDays() = %v, want 1.5", got)
	}
	if got := ElapsedDays(from, from.Add(-time.Hour)); got != 0 {
		t.Errorf("ElapsedDays(backwards) = %v, want 0", got)
	}
}
