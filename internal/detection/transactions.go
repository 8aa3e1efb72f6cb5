// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package detection

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TransactionConfig configures the transaction detector.
type TransactionConfig struct {
	// ClusterWindow is the length of the rolling window.
	ClusterWindow time.Duration `json:"cluster_window"`

	// ClusterMinCount flags a window holding more transfers than this...
	ClusterMinCount int `json:"cluster_min_count"`

	// ClusterMaxParticipants ...among fewer distinct players than this.
	ClusterMaxParticipants int `json:"cluster_max_participants"`

	// OutlierLookback is the trailing period the outlier mean covers.
	OutlierLookback time.Duration `json:"outlier_lookback"`

	// OutlierFactor flags a transfer larger than factor x trailing mean.
	OutlierFactor float64 `json:"outlier_factor"`
}

// DefaultTransactionConfig returns the standard thresholds.
func DefaultTransactionConfig() TransactionConfig {
	return TransactionConfig{
		ClusterWindow:          time.Hour,
		ClusterMinCount:        10,
		ClusterMaxParticipants: 5,
		OutlierLookback:        7 * 24 * time.Hour,
		OutlierFactor:          2.0,
	}
}

// Validate checks the thresholds.
func (c TransactionConfig) Validate() error {
	if c.ClusterWindow <= 0 {
		return fmt.Errorf("cluster_window must be positive")
	}
	if c.ClusterMinCount < 1 {
		return fmt.Errorf("cluster_min_count must be at least 1")
	}
	if c.ClusterMaxParticipants < 2 {
		return fmt.Errorf("cluster_max_participants must be at least 2")
	}
	if c.OutlierLookback <= 0 {
		return fmt.Errorf("outlier_lookback must be positive")
	}
	if c.OutlierFactor <= 1 {
		return fmt.Errorf("outlier_factor must be greater than 1")
	}
	return nil
}

// TransactionDetector flags coordinated transfer clusters and outsized
// transfers.
type TransactionDetector struct {
	config  TransactionConfig
	enabled bool
	mu      sync.RWMutex
}

// NewTransactionDetector creates a transaction detector with default thresholds.
func NewTransactionDetector() *TransactionDetector {
	return &TransactionDetector{
		config:  DefaultTransactionConfig(),
		enabled: true,
	}
}

// Type returns the detector type.
func (d *TransactionDetector) Type() DetectorType {
	return DetectorTransactions
}

// Configure replaces the thresholds.
func (d *TransactionDetector) Configure(cfg TransactionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = cfg
	return nil
}

// Config returns the current thresholds.
func (d *TransactionDetector) Config() TransactionConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// Enabled reports whether the detector runs.
func (d *TransactionDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled turns the detector on or off.
func (d *TransactionDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// Cluster is one flagged rolling window.
type Cluster struct {
	Start     time.Time
	End       time.Time
	Transfers []Transfer
	Evidence  ClusterEvidence
	Score     float64
}

// Clusters scans transfers in time order with a window anchored at each
// transfer. A flagged window is reported once and the scan resumes after it.
func (d *TransactionDetector) Clusters(transfers []Transfer) []Cluster {
	cfg := d.Config()
	sorted := sortedByTime(transfers)

	var out []Cluster
	for i := 0; i < len(sorted); {
		start := sorted[i].OccurredAt
		end := start.Add(cfg.ClusterWindow)

		j := i
		participants := make(map[string]struct{})
		for j < len(sorted) && sorted[j].OccurredAt.Before(end) {
			participants[sorted[j].From] = struct{}{}
			participants[sorted[j].To] = struct{}{}
			j++
		}

		count := j - i
		if count > cfg.ClusterMinCount && len(participants) < cfg.ClusterMaxParticipants {
			window := sorted[i:j]
			out = append(out, Cluster{
				Start:     start,
				End:       end,
				Transfers: window,
				Evidence:  clusterEvidence(window, participants),
				Score:     clusterScore(count, len(participants), cfg),
			})
			i = j
			continue
		}
		i++
	}
	return out
}

// Outlier is one transfer flagged against its trailing mean.
type Outlier struct {
	Transfer Transfer
	Evidence OutlierEvidence
	Score    float64
}

// Outliers checks each candidate against the transfers in history that
// occurred within the lookback before it. history may include the
// candidates themselves. Candidates with no trailing history are skipped.
func (d *TransactionDetector) Outliers(candidates, history []Transfer) []Outlier {
	cfg := d.Config()
	past := sortedByTime(history)

	var out []Outlier
	for _, t := range sortedByTime(candidates) {
		from := t.OccurredAt.Add(-cfg.OutlierLookback)
		lo := sort.Search(len(past), func(i int) bool { return !past[i].OccurredAt.Before(from) })

		amounts := make([]float64, 0)
		for k := lo; k < len(past) && past[k].OccurredAt.Before(t.OccurredAt); k++ {
			if past[k].ID == t.ID {
				continue
			}
			amounts = append(amounts, past[k].Amount)
		}
		if len(amounts) == 0 {
			continue
		}

		mean := stat.Mean(amounts, nil)
		if mean <= 0 || t.Amount <= cfg.OutlierFactor*mean {
			continue
		}
		out = append(out, Outlier{
			Transfer: t,
			Evidence: OutlierEvidence{
				TransferID:    t.ID,
				From:          t.From,
				To:            t.To,
				Amount:        t.Amount,
				TrailingMean:  mean,
				TrailingCount: len(amounts),
			},
			Score: t.Amount/(cfg.OutlierFactor*mean) - 1,
		})
	}
	return out
}

func sortedByTime(transfers []Transfer) []Transfer {
	out := make([]Transfer, len(transfers))
	copy(out, transfers)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out
}

func clusterEvidence(window []Transfer, participants map[string]struct{}) ClusterEvidence {
	ev := ClusterEvidence{
		TransferIDs:  make([]string, 0, len(window)),
		Participants: make([]string, 0, len(participants)),
	}
	for _, t := range window {
		ev.TransferIDs = append(ev.TransferIDs, t.ID)
		ev.TotalAmount += t.Amount
	}
	for p := range participants {
		ev.Participants = append(ev.Participants, p)
	}
	sort.Strings(ev.Participants)
	return ev
}

// clusterScore is the larger of the excess count and the participant
// shortfall, each relative to its threshold.
func clusterScore(count, participants int, cfg TransactionConfig) float64 {
	countDev := float64(count-cfg.ClusterMinCount) / float64(cfg.ClusterMinCount)
	partDev := float64(cfg.ClusterMaxParticipants-participants) / float64(cfg.ClusterMaxParticipants)
	if countDev > partDev {
		return countDev
	}
	return partDev
}
