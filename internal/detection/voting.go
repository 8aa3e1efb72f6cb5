// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package detection

import (
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// VotingConfig configures the voting detector.
type VotingConfig struct {
	// RapidWindow is how soon after proposal creation a vote counts as rapid.
	RapidWindow time.Duration `json:"rapid_window"`

	// RapidRatioThreshold flags when the share of rapid votes exceeds it.
	RapidRatioThreshold float64 `json:"rapid_ratio_threshold"`

	// UniqueRatioThreshold flags when distinct voters / votes falls below it.
	UniqueRatioThreshold float64 `json:"unique_ratio_threshold"`

	// MinAvgLatency flags when the mean vote latency falls below it.
	MinAvgLatency time.Duration `json:"min_avg_latency"`
}

// DefaultVotingConfig returns the standard thresholds.
func DefaultVotingConfig() VotingConfig {
	return VotingConfig{
		RapidWindow:          time.Hour,
		RapidRatioThreshold:  0.7,
		UniqueRatioThreshold: 0.8,
		MinAvgLatency:        300 * time.Second,
	}
}

// Validate checks the thresholds.
func (c VotingConfig) Validate() error {
	if c.RapidWindow <= 0 {
		return fmt.Errorf("rapid_window must be positive")
	}
	if c.RapidRatioThreshold <= 0 || c.RapidRatioThreshold >= 1 {
		return fmt.Errorf("rapid_ratio_threshold must be in (0, 1)")
	}
	if c.UniqueRatioThreshold <= 0 || c.UniqueRatioThreshold > 1 {
		return fmt.Errorf("unique_ratio_threshold must be in (0, 1]")
	}
	if c.MinAvgLatency <= 0 {
		return fmt.Errorf("min_avg_latency must be positive")
	}
	return nil
}

// VotingDetector flags proposals whose votes arrive too fast or from too few
// distinct voters.
type VotingDetector struct {
	config  VotingConfig
	enabled bool
	mu      sync.RWMutex
}

// NewVotingDetector creates a voting detector with default thresholds.
func NewVotingDetector() *VotingDetector {
	return &VotingDetector{
		config:  DefaultVotingConfig(),
		enabled: true,
	}
}

// Type returns the detector type.
func (d *VotingDetector) Type() DetectorType {
	return DetectorVoting
}

// Configure replaces the thresholds.
func (d *VotingDetector) Configure(cfg VotingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Config returns the current thresholds.
func (d *VotingDetector) Config() VotingConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Enabled reports whether the detector runs.
func (d *VotingDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled turns the detector on or off.
func (d *VotingDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// VotingStats are the measurements behind a voting verdict.
type VotingStats struct {
	Total          int
	Distinct       int
	RapidRatio     float64
	UniqueRatio    float64
	AvgLatencySecs float64
	LastVoteAt     time.Time
}

// Measure computes the voting statistics for votes that fall inside the
// proposal's active window. ok is false when no vote qualifies.
func (d *VotingDetector) Measure(p Proposal, votes []Vote) (stats VotingStats, ok bool) {
	cfg := d.Config()

	latencies := make([]float64, 0, len(votes))
	voters := make(map[string]struct{}, len(votes))
	rapid := 0
	var last time.Time
	for _, v := range votes {
		if !inWindow(p, v.CastAt) {
			continue
		}
		latency := v.CastAt.Sub(p.CreatedAt)
		if latency < cfg.RapidWindow {
			rapid++
		}
		latencies = append(latencies, latency.Seconds())
		voters[v.VoterID] = struct{}{}
		if v.CastAt.After(last) {
			last = v.CastAt
		}
	}
	if len(latencies) == 0 {
		return VotingStats{}, false
	}

	total := float64(len(latencies))
	return VotingStats{
		Total:          len(latencies),
		Distinct:       len(voters),
		RapidRatio:     float64(rapid) / total,
		UniqueRatio:    float64(len(voters)) / total,
		AvgLatencySecs: stat.Mean(latencies, nil),
		LastVoteAt:     last,
	}, true
}

// Verdict turns statistics into a category and score. flagged is false when
// every measure is within its threshold.
func (d *VotingDetector) Verdict(s VotingStats) (category Category, score float64, flagged bool) {
	cfg := d.Config()
	minLatency := cfg.MinAvgLatency.Seconds()

	rapidDev := floorZero((s.RapidRatio - cfg.RapidRatioThreshold) / (1 - cfg.RapidRatioThreshold))
	uniqueDev := floorZero((cfg.UniqueRatioThreshold - s.UniqueRatio) / cfg.UniqueRatioThreshold)
	latencyDev := floorZero((minLatency - s.AvgLatencySecs) / minLatency)

	flagged = s.RapidRatio > cfg.RapidRatioThreshold ||
		s.UniqueRatio < cfg.UniqueRatioThreshold ||
		s.AvgLatencySecs < minLatency
	if !flagged {
		return "", 0, false
	}

	// Latency is a speed signal, so it reports as rapid voting.
	category, score = CategoryRapidVoting, rapidDev
	if latencyDev > score {
		score = latencyDev
	}
	if uniqueDev > score {
		category, score = CategoryLowVoterDiversity, uniqueDev
	}
	return category, score, true
}

func inWindow(p Proposal, t time.Time) bool {
	if t.Before(p.CreatedAt) {
		return false
	}
	return p.ClosesAt.IsZero() || !t.After(p.ClosesAt)
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
