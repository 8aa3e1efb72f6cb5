// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package detection

import (
	"context"
	"time"
)

// EventLog holds the governance and marketplace activity the detectors read.
type EventLog interface {
	// SaveProposal creates a proposal. Saving an identical definition again
	// is a no-op; any other redefinition fails with ErrProposalExists.
	SaveProposal(ctx context.Context, p Proposal) error

	// GetProposal returns false when the proposal is unknown.
	GetProposal(ctx context.Context, id string) (Proposal, bool, error)

	// AppendVote records a vote on an existing proposal.
	AppendVote(ctx context.Context, v Vote) error

	// Votes returns the votes of a proposal in cast order.
	Votes(ctx context.Context, proposalID string) ([]Vote, error)

	// VotedProposals returns the IDs of proposals that had a vote recorded
	// in [start, end), by RecordedAt.
	VotedProposals(ctx context.Context, start, end time.Time) ([]string, error)

	// AppendTransfer records a transfer.
	AppendTransfer(ctx context.Context, t Transfer) error

	// Transfers returns the transfers in [start, end) in time order.
	Transfers(ctx context.Context, start, end time.Time) ([]Transfer, error)
}

// FlagStore persists manipulation flags.
type FlagStore interface {
	// SaveFlag stores f and makes it the latest flag for its subject.
	// It returns false without writing when a flag with the same ID exists.
	SaveFlag(ctx context.Context, f Flag) (bool, error)

	// ListFlags returns flags newest first.
	ListFlags(ctx context.Context, filter FlagFilter) ([]Flag, error)

	// LatestFlag returns the flag that supersedes all others for a subject.
	LatestFlag(ctx context.Context, kind SubjectKind, subjectID string) (Flag, bool, error)
}
