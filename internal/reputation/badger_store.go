// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/civitas/internal/storage"
)

// MinTransactionRetention is the shortest allowed transaction log retention.
const MinTransactionRetention = 30 * 24 * time.Hour

type membership struct {
	PlayerID string    `json:"player_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// BadgerStore implements Store on top of the shared BadgerDB.
type BadgerStore struct {
	db        *storage.DB
	keys      storage.Keyspace
	retention time.Duration
}

// NewBadgerStore creates a store in the realm's keyspace. Transactions
// expire after retention, which is raised to MinTransactionRetention if lower.
func NewBadgerStore(db *storage.DB, realm string, retention time.Duration) *BadgerStore {
	if retention < MinTransactionRetention {
		retention = MinTransactionRetention
	}
	return &BadgerStore{
		db:        db,
		keys:      storage.NewKeyspace(realm),
		retention: retention,
	}
}

func (s *BadgerStore) entryKey(playerID string, layer Layer) []byte {
	return s.keys.Key("rep", "entry", playerID, string(layer))
}

func (s *BadgerStore) txKey(t Transaction) []byte {
	return s.keys.Key("rep", "tx", t.PlayerID, storage.TimeSegment(t.AppliedAt), t.ID)
}

func (s *BadgerStore) counterKey(playerID, reason string) []byte {
	return s.keys.Key("rep", "cnt", playerID, reason)
}

func (s *BadgerStore) memberKey(playerID string) []byte {
	return s.keys.Key("rep", "member", playerID)
}

// GetEntry implements Store.
func (s *BadgerStore) GetEntry(ctx context.Context, playerID string, layer Layer) (Entry, bool, error) {
	var e Entry
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = storage.GetJSON(txn, s.entryKey(playerID, layer), &e)
		return err
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("get reputation entry: %w", err)
	}
	if !found {
		return Entry{PlayerID: playerID, Layer: layer}, false, nil
	}
	return e, true, nil
}

// Entries implements Store.
func (s *BadgerStore) Entries(ctx context.Context, playerID string) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.ScanJSON(txn, s.keys.Prefix("rep", "entry", playerID), storage.ScanOptions{},
			func(_ []byte, e Entry) error {
				entries = append(entries, e)
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("list reputation entries: %w", err)
	}
	return entries, nil
}

// Commit implements Store.
func (s *BadgerStore) Commit(ctx context.Context, c Commit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		var current Entry
		found, err := storage.GetJSON(txn, s.entryKey(c.Entry.PlayerID, c.Entry.Layer), &current)
		if err != nil {
			return err
		}
		if !found {
			current.Version = 0
		}
		if current.Version != c.ExpectedVersion {
			return ErrStaleWrite
		}

		if err := storage.SetJSON(txn, s.entryKey(c.Entry.PlayerID, c.Entry.Layer), c.Entry, 0); err != nil {
			return err
		}
		if err := storage.SetJSON(txn, s.txKey(c.Transaction), c.Transaction, s.retention); err != nil {
			return err
		}

		var count int64
		ckey := s.counterKey(c.Entry.PlayerID, c.Transaction.ReasonCode)
		if _, err := storage.GetJSON(txn, ckey, &count); err != nil {
			return err
		}
		if err := storage.SetJSON(txn, ckey, count+1, 0); err != nil {
			return err
		}

		var m membership
		hasMember, err := storage.GetJSON(txn, s.memberKey(c.Entry.PlayerID), &m)
		if err != nil {
			return err
		}
		if !hasMember {
			m = membership{PlayerID: c.Entry.PlayerID, JoinedAt: c.Transaction.AppliedAt}
			if err := storage.SetJSON(txn, s.memberKey(c.Entry.PlayerID), m, 0); err != nil {
				return err
			}
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case storage.IsConflict(err), errors.Is(err, ErrStaleWrite):
		return ErrStaleWrite
	default:
		return fmt.Errorf("commit reputation write: %w", err)
	}
}

// ListTransactions implements Store.
func (s *BadgerStore) ListTransactions(ctx context.Context, playerID string, filter TransactionFilter) ([]Transaction, error) {
	var out []Transaction
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.ScanJSON(txn, s.keys.Prefix("rep", "tx", playerID), storage.ScanOptions{Reverse: true},
			func(_ []byte, t Transaction) error {
				if !filter.Since.IsZero() && t.AppliedAt.Before(filter.Since) {
					return storage.ErrStopScan
				}
				if filter.Layer != "" && t.Layer != filter.Layer {
					return nil
				}
				out = append(out, t)
				if filter.Limit > 0 && len(out) >= filter.Limit {
					return storage.ErrStopScan
				}
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("list reputation transactions: %w", err)
	}
	return out, nil
}

// Counters implements Store.
func (s *BadgerStore) Counters(ctx context.Context, playerID string) (map[string]int64, error) {
	counts := make(map[string]int64)
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.ScanJSON(txn, s.keys.Prefix("rep", "cnt", playerID), storage.ScanOptions{},
			func(key []byte, n int64) error {
				counts[storage.LastSegment(key)] = n
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("read behaviour counters: %w", err)
	}
	return counts, nil
}

// MemberSince implements Store.
func (s *BadgerStore) MemberSince(ctx context.Context, playerID string) (time.Time, bool, error) {
	var m membership
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = storage.GetJSON(txn, s.memberKey(playerID), &m)
		return err
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read membership: %w", err)
	}
	return m.JoinedAt, found, nil
}
