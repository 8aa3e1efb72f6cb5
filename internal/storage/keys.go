// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Separator joins key segments.
const Separator = "/"

// Keyspace builds keys under a realm namespace.
type Keyspace struct {
	realm string
}

// NewKeyspace returns a keyspace for the given realm.
func NewKeyspace(realm string) Keyspace {
	return Keyspace{realm: realm}
}

// Realm returns the realm identifier.
func (k Keyspace) Realm() string {
	return k.realm
}

// Key joins the realm and parts into a key.
func (k Keyspace) Key(parts ...string) []byte {
	var b strings.Builder
	b.WriteString(k.realm)
	for _, p := range parts {
		b.WriteString(Separator)
		b.WriteString(p)
	}
	return []byte(b.String())
}

// Prefix is Key with a trailing separator, suitable for prefix scans that
// must not match sibling keys sharing a leading substring.
func (k Keyspace) Prefix(parts ...string) []byte {
	return append(k.Key(parts...), Separator...)
}

// TimeSegment encodes t as a fixed-width, lexically sortable key segment.
func TimeSegment(t time.Time) string {
	ns := t.UnixNano()
	if ns < 0 {
		ns = 0
	}
	return fmt.Sprintf("%020d", ns)
}

// LastSegment returns the final segment of a key.
func LastSegment(key []byte) string {
	i := bytes.LastIndex(key, []byte(Separator))
	if i < 0 {
		return string(key)
	}
	return string(key[i+1:])
}

// GetJSON loads the JSON value stored at key into v.
// Returns false when the key does not exist.
func GetJSON(txn *badger.Txn, key []byte, v interface{}) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key. A positive ttl makes the entry expire.
func SetJSON(txn *badger.Txn, key []byte, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	e := badger.NewEntry(key, data)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return txn.SetEntry(e)
}

// ScanOptions controls prefix iteration.
type ScanOptions struct {
	// Start, when set, seeks to this key instead of the prefix start.
	// For reverse scans it is the upper bound to start from.
	Start []byte

	// Reverse iterates from the highest key down.
	Reverse bool

	// KeysOnly skips value prefetching.
	KeysOnly bool
}

// ErrStopScan may be returned by a scan callback to end iteration early
// without reporting an error.
var ErrStopScan = errors.New("stop scan")

// Scan iterates keys under prefix, calling fn for each key and value.
// The value slice is only valid during the callback.
func Scan(txn *badger.Txn, prefix []byte, opts ScanOptions, fn func(key, val []byte) error) error {
	itOpts := badger.DefaultIteratorOptions
	itOpts.Prefix = prefix
	itOpts.Reverse = opts.Reverse
	itOpts.PrefetchValues = !opts.KeysOnly

	it := txn.NewIterator(itOpts)
	defer it.Close()

	seek := prefix
	if opts.Start != nil {
		seek = opts.Start
	} else if opts.Reverse {
		// Seek past every key under the prefix.
		seek = append(append([]byte{}, prefix...), 0xFF)
	}

	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		var err error
		if opts.KeysOnly {
			err = fn(key, nil)
		} else {
			err = item.Value(func(val []byte) error {
				return fn(key, val)
			})
		}
		if errors.Is(err, ErrStopScan) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ScanJSON is Scan with JSON decoding into a fresh T per key.
func ScanJSON[T any](txn *badger.Txn, prefix []byte, opts ScanOptions, fn func(key []byte, v T) error) error {
	return Scan(txn, prefix, opts, func(key, val []byte) error {
		var v T
		if err := json.Unmarshal(val, &v); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		return fn(key, v)
	})
}
