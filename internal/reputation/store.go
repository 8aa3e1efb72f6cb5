// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import (
	"context"
	"time"
)

// Store persists reputation entries, the transaction log, behaviour counters
// and membership records.
type Store interface {
	// GetEntry returns the entry for (player, layer). The boolean is false
	// for a player that has never received a delta on the layer.
	GetEntry(ctx context.Context, playerID string, layer Layer) (Entry, bool, error)

	// Entries returns every stored entry of a player.
	Entries(ctx context.Context, playerID string) ([]Entry, error)

	// Commit atomically writes the new entry, appends the transaction,
	// increments the behaviour counter and records membership on first
	// write. It fails with ErrStaleWrite when the stored version no
	// longer matches c.ExpectedVersion.
	Commit(ctx context.Context, c Commit) error

	// ListTransactions returns a player's transactions, newest first.
	ListTransactions(ctx context.Context, playerID string, filter TransactionFilter) ([]Transaction, error)

	// Counters returns the per reason code counts of accepted events.
	Counters(ctx context.Context, playerID string) (map[string]int64, error)

	// MemberSince returns when the player's first event was accepted.
	MemberSince(ctx context.Context, playerID string) (time.Time, bool, error)
}

// Commit is one accepted write.
type Commit struct {
	Entry           Entry
	ExpectedVersion uint64
	Transaction     Transaction
}
