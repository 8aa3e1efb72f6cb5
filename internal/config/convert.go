// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/detection"
	"github.com/tomtom215/civitas/internal/economy"
	"github.com/tomtom215/civitas/internal/events"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/reputation"
	"github.com/tomtom215/civitas/internal/storage"
)

// LoggingSettings converts the logging section.
func (c *Config) LoggingSettings() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}

// StorageSettings converts the storage section.
func (c *Config) StorageSettings() storage.Config {
	sc := storage.DefaultConfig()
	sc.Path = c.Storage.Path
	sc.InMemory = c.Storage.InMemory
	sc.SyncWrites = c.Storage.SyncWrites
	sc.Compression = c.Storage.Compression
	sc.GCInterval = c.Storage.GCInterval
	sc.GCRatio = c.Storage.GCRatio
	return sc
}

// LayerConfigs converts the layers section into the engine's layer table.
func (c *Config) LayerConfigs() []reputation.LayerConfig {
	named := []struct {
		layer reputation.Layer
		s     LayerSettings
	}{
		{reputation.LayerContribution, c.Layers.Contribution},
		{reputation.LayerTrust, c.Layers.Trust},
		{reputation.LayerGovernance, c.Layers.Governance},
		{reputation.LayerSocial, c.Layers.Social},
		{reputation.LayerEconomic, c.Layers.Economic},
	}
	out := make([]reputation.LayerConfig, 0, len(named))
	for _, n := range named {
		out = append(out, reputation.LayerConfig{
			Layer:              n.layer,
			Weight:             n.s.Weight,
			Decay:              reputation.DecayKind(n.s.Decay),
			Lambda:             n.s.Lambda,
			LinearRate:         n.s.LinearRate,
			ValidationRequired: n.s.ValidationRequired,
			AllowNegative:      n.s.AllowNegative,
		})
	}
	return out
}

// ReputationSettings converts the engine and physics sections.
func (c *Config) ReputationSettings() reputation.EngineConfig {
	return reputation.EngineConfig{
		Physics: reputation.PhysicsConfig{
			TrustJumpLimit:      c.Physics.TrustJumpLimit,
			TrustFloor:          c.Physics.TrustFloor,
			PermanentDeltaLimit: c.Physics.PermanentDeltaLimit,
		},
		MaxWriteRetries: c.Engine.MaxWriteRetries,
	}
}

// DetectionSettings converts the detection section.
func (c *Config) DetectionSettings() detection.EngineConfig {
	d := c.Detection
	return detection.EngineConfig{
		Voting: detection.VotingConfig{
			RapidWindow:          d.RapidWindow,
			RapidRatioThreshold:  d.RapidRatioThreshold,
			UniqueRatioThreshold: d.UniqueRatioThreshold,
			MinAvgLatency:        d.MinAvgLatency,
		},
		Transactions: detection.TransactionConfig{
			ClusterWindow:          d.ClusterWindow,
			ClusterMinCount:        d.ClusterMinCount,
			ClusterMaxParticipants: d.ClusterMaxParticipants,
			OutlierLookback:        d.OutlierLookback,
			OutlierFactor:          d.OutlierFactor,
		},
		VotingEnabled:       d.VotingEnabled,
		TransactionsEnabled: d.TransactionsEnabled,
		ScanInterval:        d.ScanInterval,
		ScanRate:            d.ScanRate,
		ScanBurst:           d.ScanBurst,
	}
}

// EconomySettings converts the economy section.
func (c *Config) EconomySettings() economy.Config {
	tiers := make([]economy.Tier, 0, len(c.Economy.Tiers))
	for _, t := range c.Economy.Tiers {
		tiers = append(tiers, economy.Tier{
			Name:          t.Name,
			MinReputation: t.MinReputation,
			Formula:       economy.Formula(t.Formula),
			Coefficients:  append([]float64(nil), t.Coefficients...),
		})
	}
	return economy.Config{Tiers: tiers, MaxMultiplier: c.Economy.MaxMultiplier}
}

// BadgeLadders converts the badges section.
func (c *Config) BadgeLadders() []badges.Ladder {
	ladders := make([]badges.Ladder, 0, len(c.Badges.Ladders))
	for _, l := range c.Badges.Ladders {
		ladder := badges.Ladder{Category: badges.Category(l.Category)}
		for _, t := range l.Tiers {
			tier := badges.Tier{Rank: t.Rank, Name: t.Name}
			for _, cond := range t.Conditions {
				tier.Conditions = append(tier.Conditions, badges.Condition{
					Kind:    badges.ConditionKind(cond.Kind),
					Layer:   cond.Layer,
					Counter: cond.Counter,
					Min:     cond.Min,
				})
			}
			ladder.Tiers = append(ladder.Tiers, tier)
		}
		ladders = append(ladders, ladder)
	}
	return ladders
}

// EventsSettings converts the events section.
func (c *Config) EventsSettings() events.Config {
	ec := events.DefaultConfig()
	ec.BufferSize = c.Events.BufferSize
	ec.Breaker.MaxRequests = c.Events.BreakerMaxRequests
	ec.Breaker.Interval = c.Events.BreakerInterval
	ec.Breaker.Timeout = c.Events.BreakerTimeout
	ec.Breaker.FailureThreshold = c.Events.BreakerFailureThreshold
	if c.Events.FeedLogEnabled {
		ec.FeedTopics = append([]string(nil), c.Events.FeedTopics...)
	}
	return ec
}

func layerSettings(lc reputation.LayerConfig) LayerSettings {
	return LayerSettings{
		Weight:             lc.Weight,
		Decay:              string(lc.Decay),
		Lambda:             lc.Lambda,
		LinearRate:         lc.LinearRate,
		ValidationRequired: lc.ValidationRequired,
		AllowNegative:      lc.AllowNegative,
	}
}

func defaultLayers() LayersConfig {
	var out LayersConfig
	for _, lc := range reputation.DefaultLayerConfigs() {
		s := layerSettings(lc)
		switch lc.Layer {
		case reputation.LayerContribution:
			out.Contribution = s
		case reputation.LayerTrust:
			out.Trust = s
		case reputation.LayerGovernance:
			out.Governance = s
		case reputation.LayerSocial:
			out.Social = s
		case reputation.LayerEconomic:
			out.Economic = s
		}
	}
	return out
}

func defaultTiers() []TierConfig {
	tiers := economy.DefaultTiers()
	out := make([]TierConfig, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, TierConfig{
			Name:          t.Name,
			MinReputation: t.MinReputation,
			Formula:       string(t.Formula),
			Coefficients:  t.Coefficients,
		})
	}
	return out
}

func defaultLadders() []LadderConfig {
	ladders := badges.DefaultLadders()
	out := make([]LadderConfig, 0, len(ladders))
	for _, l := range ladders {
		lc := LadderConfig{Category: string(l.Category)}
		for _, t := range l.Tiers {
			tc := BadgeTierConfig{Rank: t.Rank, Name: t.Name}
			for _, cond := range t.Conditions {
				tc.Conditions = append(tc.Conditions, ConditionConfig{
					Kind:    string(cond.Kind),
					Layer:   cond.Layer,
					Counter: cond.Counter,
					Min:     cond.Min,
				})
			}
			lc.Tiers = append(lc.Tiers, tc)
		}
		out = append(out, lc)
	}
	return out
}
