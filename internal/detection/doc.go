// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package detection provides anti-manipulation analysis over governance votes
// and marketplace transfers.
//
// The detectors are read-only over the activity log. They never change a
// player's reputation; every finding is an advisory Flag that is persisted,
// published on FlagsTopic and left for humans or downstream systems to act
// on.
//
// # Detectors
//
// VotingDetector measures, for the votes cast inside a proposal's active
// window, the share cast within the first hour, the share of distinct voters
// and the mean vote latency. A proposal is flagged when any measure crosses
// its threshold; the score is the largest normalized deviation.
//
// TransactionDetector walks transfers in time order with a rolling window
// anchored at each transfer. A window holding many transfers among few
// players becomes a coordinated_transaction_cluster flag. Independently, a
// transfer larger than a multiple of the trailing mean becomes a
// large_transaction_outlier flag.
//
// # Flag Lifecycle
//
// Flag IDs are derived from the analyzed activity, so re-running an analysis
// over unchanged data yields the same ID and is a no-op. Flags are never
// deleted. The newest flag for a subject supersedes older ones and is
// returned by LatestFlag.
//
// # Scheduling
//
// Engine.RunWithContext scans on a fixed interval: every proposal voted on
// since the previous scan and the transfers of the same period. Proposal
// analyses are paced by a token bucket.
package detection
