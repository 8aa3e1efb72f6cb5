// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/civitas/internal/storage"
)

// MinEventRetention is the shortest allowed retention for votes and
// transfers. It stays well above the outlier lookback.
const MinEventRetention = 30 * 24 * time.Hour

var errFlagExists = errors.New("flag exists")

// BadgerStore implements EventLog and FlagStore on the shared BadgerDB.
// Proposals and flags never expire. Votes and transfers expire after the
// retention period when one is set.
type BadgerStore struct {
	db        *storage.DB
	keys      storage.Keyspace
	retention time.Duration
}

// NewBadgerStore creates a store in the realm's keyspace. A retention of zero
// keeps votes and transfers forever; a positive value below
// MinEventRetention is raised to it.
func NewBadgerStore(db *storage.DB, realm string, retention time.Duration) *BadgerStore {
	if retention > 0 && retention < MinEventRetention {
		retention = MinEventRetention
	}
	return &BadgerStore{
		db:        db,
		keys:      storage.NewKeyspace(realm),
		retention: retention,
	}
}

func (s *BadgerStore) proposalKey(id string) []byte {
	return s.keys.Key("det", "proposal", id)
}

func (s *BadgerStore) voteKey(v Vote) []byte {
	return s.keys.Key("det", "vote", v.ProposalID, storage.TimeSegment(v.CastAt), v.ID)
}

func (s *BadgerStore) voteIndexKey(v Vote) []byte {
	return s.keys.Key("det", "voteidx", storage.TimeSegment(v.RecordedAt), v.ProposalID)
}

func (s *BadgerStore) transferKey(t Transfer) []byte {
	return s.keys.Key("det", "transfer", storage.TimeSegment(t.OccurredAt), t.ID)
}

func (s *BadgerStore) flagKey(id string) []byte {
	return s.keys.Key("det", "flag", id)
}

func (s *BadgerStore) flagTimeKey(f Flag) []byte {
	return s.keys.Key("det", "flagtime", storage.TimeSegment(f.CreatedAt), f.ID)
}

func (s *BadgerStore) latestKey(kind SubjectKind, subjectID string) []byte {
	return s.keys.Key("det", "latest", string(kind), subjectID)
}

// SaveProposal implements EventLog.
func (s *BadgerStore) SaveProposal(ctx context.Context, p Proposal) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var existing Proposal
		found, err := storage.GetJSON(txn, s.proposalKey(p.ID), &existing)
		if err != nil {
			return err
		}
		if found {
			// Moving CreatedAt would rewrite every vote's latency.
			if existing.CreatedAt.Equal(p.CreatedAt) && existing.ClosesAt.Equal(p.ClosesAt) {
				return nil
			}
			return ErrProposalExists
		}
		return storage.SetJSON(txn, s.proposalKey(p.ID), p, 0)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrProposalExists):
		return fmt.Errorf("%w: %q", ErrProposalExists, p.ID)
	default:
		return fmt.Errorf("save proposal: %w", err)
	}
}

// GetProposal implements EventLog.
func (s *BadgerStore) GetProposal(ctx context.Context, id string) (Proposal, bool, error) {
	var p Proposal
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = storage.GetJSON(txn, s.proposalKey(id), &p)
		return err
	})
	if err != nil {
		return Proposal{}, false, fmt.Errorf("get proposal: %w", err)
	}
	return p, found, nil
}

// AppendVote implements EventLog.
func (s *BadgerStore) AppendVote(ctx context.Context, v Vote) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := storage.SetJSON(txn, s.voteKey(v), v, s.retention); err != nil {
			return err
		}
		return storage.SetJSON(txn, s.voteIndexKey(v), v.ProposalID, s.retention)
	})
	if err != nil {
		return fmt.Errorf("append vote: %w", err)
	}
	return nil
}

// Votes implements EventLog.
func (s *BadgerStore) Votes(ctx context.Context, proposalID string) ([]Vote, error) {
	var votes []Vote
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.ScanJSON(txn, s.keys.Prefix("det", "vote", proposalID), storage.ScanOptions{},
			func(_ []byte, v Vote) error {
				votes = append(votes, v)
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}

// VotedProposals implements EventLog.
func (s *BadgerStore) VotedProposals(ctx context.Context, start, end time.Time) ([]string, error) {
	prefix := s.keys.Prefix("det", "voteidx")
	from := append(append([]byte{}, prefix...), storage.TimeSegment(start)...)
	until := append(append([]byte{}, prefix...), storage.TimeSegment(end)...)

	seen := make(map[string]struct{})
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.Scan(txn, prefix, storage.ScanOptions{Start: from, KeysOnly: true},
			func(key, _ []byte) error {
				if bytes.Compare(key, until) >= 0 {
					return storage.ErrStopScan
				}
				id := storage.LastSegment(key)
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					ids = append(ids, id)
				}
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("list voted proposals: %w", err)
	}
	return ids, nil
}

// AppendTransfer implements EventLog.
func (s *BadgerStore) AppendTransfer(ctx context.Context, t Transfer) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return storage.SetJSON(txn, s.transferKey(t), t, s.retention)
	})
	if err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	return nil
}

// Transfers implements EventLog.
func (s *BadgerStore) Transfers(ctx context.Context, start, end time.Time) ([]Transfer, error) {
	prefix := s.keys.Prefix("det", "transfer")
	from := append(append([]byte{}, prefix...), storage.TimeSegment(start)...)

	var out []Transfer
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.ScanJSON(txn, prefix, storage.ScanOptions{Start: from},
			func(_ []byte, t Transfer) error {
				if !t.OccurredAt.Before(end) {
					return storage.ErrStopScan
				}
				out = append(out, t)
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return out, nil
}

// SaveFlag implements FlagStore.
func (s *BadgerStore) SaveFlag(ctx context.Context, f Flag) (bool, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		var existing Flag
		found, err := storage.GetJSON(txn, s.flagKey(f.ID), &existing)
		if err != nil {
			return err
		}
		if found {
			return errFlagExists
		}

		if err := storage.SetJSON(txn, s.flagKey(f.ID), f, 0); err != nil {
			return err
		}
		if err := storage.SetJSON(txn, s.flagTimeKey(f), f.ID, 0); err != nil {
			return err
		}

		latest, ok, err := s.latestIn(txn, f.SubjectKind, f.SubjectID)
		if err != nil {
			return err
		}
		if ok && latest.CreatedAt.After(f.CreatedAt) {
			return nil
		}
		return storage.SetJSON(txn, s.latestKey(f.SubjectKind, f.SubjectID), f.ID, 0)
	})

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errFlagExists):
		return false, nil
	default:
		return false, fmt.Errorf("save flag: %w", err)
	}
}

// ListFlags implements FlagStore.
func (s *BadgerStore) ListFlags(ctx context.Context, filter FlagFilter) ([]Flag, error) {
	var out []Flag
	err := s.db.View(func(txn *badger.Txn) error {
		return storage.Scan(txn, s.keys.Prefix("det", "flagtime"), storage.ScanOptions{Reverse: true, KeysOnly: true},
			func(key, _ []byte) error {
				var f Flag
				found, err := storage.GetJSON(txn, s.flagKey(storage.LastSegment(key)), &f)
				if err != nil {
					return err
				}
				if !found {
					return nil
				}
				if !filter.Since.IsZero() && f.CreatedAt.Before(filter.Since) {
					return storage.ErrStopScan
				}
				if !filter.matches(f) {
					return nil
				}
				out = append(out, f)
				if filter.Limit > 0 && len(out) >= filter.Limit {
					return storage.ErrStopScan
				}
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return out, nil
}

// LatestFlag implements FlagStore.
func (s *BadgerStore) LatestFlag(ctx context.Context, kind SubjectKind, subjectID string) (Flag, bool, error) {
	var f Flag
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		f, found, err = s.latestIn(txn, kind, subjectID)
		return err
	})
	if err != nil {
		return Flag{}, false, fmt.Errorf("get latest flag: %w", err)
	}
	return f, found, nil
}

func (s *BadgerStore) latestIn(txn *badger.Txn, kind SubjectKind, subjectID string) (Flag, bool, error) {
	var id string
	found, err := storage.GetJSON(txn, s.latestKey(kind, subjectID), &id)
	if err != nil || !found {
		return Flag{}, false, err
	}
	var f Flag
	found, err = storage.GetJSON(txn, s.flagKey(id), &f)
	return f, found, err
}

func (f FlagFilter) matches(flag Flag) bool {
	if f.Category != "" && flag.Category != f.Category {
		return false
	}
	if f.SubjectKind != "" && flag.SubjectKind != f.SubjectKind {
		return false
	}
	if f.SubjectID != "" && flag.SubjectID != f.SubjectID {
		return false
	}
	return true
}
