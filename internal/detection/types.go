// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package detection

import (
	"time"

	"github.com/goccy/go-json"
)

// FlagsTopic is the feed topic flags are published on.
const FlagsTopic = "manipulation.flags"

// DetectorType identifies an analyzer.
type DetectorType string

const (
	// DetectorVoting analyzes votes on a single proposal.
	DetectorVoting DetectorType = "voting"

	// DetectorTransactions analyzes transfers in a time range.
	DetectorTransactions DetectorType = "transactions"
)

// Category classifies a manipulation flag.
type Category string

const (
	CategoryRapidVoting                   Category = "rapid_voting"
	CategoryLowVoterDiversity             Category = "low_voter_diversity"
	CategoryCoordinatedTransactionCluster Category = "coordinated_transaction_cluster"
	CategoryLargeTransactionOutlier       Category = "large_transaction_outlier"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryRapidVoting, CategoryLowVoterDiversity,
		CategoryCoordinatedTransactionCluster, CategoryLargeTransactionOutlier:
		return true
	default:
		return false
	}
}

// SubjectKind says what a flag's SubjectID refers to.
type SubjectKind string

const (
	SubjectPlayer   SubjectKind = "player"
	SubjectProposal SubjectKind = "proposal"
	SubjectListing  SubjectKind = "listing"
	SubjectCluster  SubjectKind = "cluster"
)

// Valid reports whether k is a known subject kind.
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectPlayer, SubjectProposal, SubjectListing, SubjectCluster:
		return true
	default:
		return false
	}
}

// Flag is an advisory manipulation finding. Flags are never deleted; a later
// flag for the same subject supersedes earlier ones.
type Flag struct {
	ID          string          `json:"id"`
	SubjectKind SubjectKind     `json:"subject_kind"`
	SubjectID   string          `json:"subject_id"`
	Category    Category        `json:"category"`
	Score       float64         `json:"score"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Evidence    json.RawMessage `json:"evidence,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Proposal is a governance proposal whose votes can be analyzed. A zero
// ClosesAt leaves the voting window open.
type Proposal struct {
	ID        string    `json:"id" validate:"required,max=128,excludesall=/"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	ClosesAt  time.Time `json:"closes_at,omitempty"`
}

// Vote is a single ballot on a proposal.
type Vote struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id" validate:"required,max=128,excludesall=/"`
	VoterID    string    `json:"voter_id" validate:"required,max=128,excludesall=/"`
	CastAt     time.Time `json:"cast_at" validate:"required"`

	// RecordedAt is set by the engine when the vote is stored. Scheduled
	// scans select proposals by it, so late reports are still analyzed.
	RecordedAt time.Time `json:"recorded_at"`
}

// Transfer is a value movement between two players, optionally tied to a
// marketplace listing.
type Transfer struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id,omitempty" validate:"max=128,excludesall=/"`
	From       string    `json:"from" validate:"required,max=128,excludesall=/"`
	To         string    `json:"to" validate:"required,max=128,excludesall=/,nefield=From"`
	Amount     float64   `json:"amount" validate:"finite,gt=0"`
	OccurredAt time.Time `json:"occurred_at" validate:"required"`
}

// FlagFilter narrows ListFlags. Zero values match everything.
type FlagFilter struct {
	Category    Category
	SubjectKind SubjectKind
	SubjectID   string
	Since       time.Time
	Limit       int
}

// VotingEvidence is the evidence of a voting flag.
type VotingEvidence struct {
	TotalVotes       int     `json:"total_votes"`
	DistinctVoters   int     `json:"distinct_voters"`
	RapidVoteRatio   float64 `json:"rapid_vote_ratio"`
	UniqueVoterRatio float64 `json:"unique_voter_ratio"`
	AvgLatencySecs   float64 `json:"avg_vote_latency_seconds"`
}

// ClusterEvidence is the evidence of a coordinated transaction cluster.
type ClusterEvidence struct {
	TransferIDs  []string `json:"transfer_ids"`
	Participants []string `json:"participants"`
	TotalAmount  float64  `json:"total_amount"`
}

// OutlierEvidence is the evidence of a large transaction outlier.
type OutlierEvidence struct {
	TransferID    string  `json:"transfer_id"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount"`
	TrailingMean  float64 `json:"trailing_mean"`
	TrailingCount int     `json:"trailing_count"`
}
