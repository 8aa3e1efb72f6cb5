// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package badges

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/civitas/internal/storage"
)

// ErrRankConflict is returned when a rank transition loses a race with
// another writer.
var ErrRankConflict = errors.New("badge rank changed concurrently")

// StateStore persists badge ranks and the unlock history.
type StateStore interface {
	// States returns the stored states of a player keyed by category.
	// Categories without a badge are absent.
	States(ctx context.Context, playerID string) (map[Category]State, error)

	// Advance moves a category from fromRank to u.Rank and records u. It
	// fails with ErrRankConflict when the stored rank is not fromRank.
	Advance(ctx context.Context, fromRank int, u Unlock) error

	// History returns a player's unlocks, newest first.
	History(ctx context.Context, playerID string, limit int) ([]Unlock, error)
}

// BadgerStore implements StateStore on the shared BadgerDB.
type BadgerStore struct {
	db   *storage.DB
	keys storage.Keyspace
}

// NewBadgerStore creates a store in the realm's keyspace.
func NewBadgerStore(db *storage.DB, realm string) *BadgerStore {
	return &BadgerStore{
		db:   db,
		keys: storage.NewKeyspace(realm),
	}
}

func (s *BadgerStore) stateKey(playerID string, c Category) []byte {
	return s.keys.Key("badge", "state", playerID, string(c))
}

func (s *BadgerStore) unlockKey(u Unlock) []byte {
	return s.keys.Key("badge", "unlock", u.PlayerID, storage.TimeSegment(u.UnlockedAt),
		fmt.Sprintf("%s-%02d", u.Category, u.Rank))
}

// States implements StateStore.
func (s *BadgerStore) States(ctx context.Context, playerID string) (map[Category]State, error) {
	states := make(map[Category]State)
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.ScanJSON(txn, s.keys.Prefix("badge", "state", playerID), storage.ScanOptions{},
			func(_ []byte, st State) error {
				states[st.Category] = st
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("read badge states: %w", err)
	}
	return states, nil
}

// Advance implements StateStore.
func (s *BadgerStore) Advance(ctx context.Context, fromRank int, u Unlock) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		var current State
		if _, err := storage.GetJSON(txn, s.stateKey(u.PlayerID, u.Category), &current); err != nil {
			return err
		}
		if current.Rank != fromRank {
			return ErrRankConflict
		}
		next := State{
			PlayerID:  u.PlayerID,
			Category:  u.Category,
			Rank:      u.Rank,
			TierName:  u.TierName,
			UpdatedAt: u.UnlockedAt,
		}
		if err := storage.SetJSON(txn, s.stateKey(u.PlayerID, u.Category), next, 0); err != nil {
			return err
		}
		return storage.SetJSON(txn, s.unlockKey(u), u, 0)
	})

	switch {
	case err == nil:
		return nil
	case storage.IsConflict(err), errors.Is(err, ErrRankConflict):
		return ErrRankConflict
	default:
		return fmt.Errorf("advance badge rank: %w", err)
	}
}

// History implements StateStore.
func (s *BadgerStore) History(ctx context.Context, playerID string, limit int) ([]Unlock, error) {
	var out []Unlock
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.ScanJSON(txn, s.keys.Prefix("badge", "unlock", playerID), storage.ScanOptions{Reverse: true},
			func(_ []byte, u Unlock) error {
				out = append(out, u)
				if limit > 0 && len(out) >= limit {
					return storage.ErrStopScan
				}
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("read badge history: %w", err)
	}
	return out, nil
}

