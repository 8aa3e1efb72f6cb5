// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package storage owns the embedded BadgerDB instance shared by the
// reputation store, the detection event log and the badge tier state.
//
// # Key Layout
//
// Every key is namespaced by the realm identifier configured at start-up so
// several independent realms can share one database directory:
//
//	<realm>/rep/entry/<player>/<layer>           reputation entries
//	<realm>/rep/tx/<player>/<time>/<id>          reputation transactions (TTL)
//	<realm>/rep/cnt/<player>/<reason>            behaviour counters
//	<realm>/rep/member/<player>                  membership records
//	<realm>/det/...                              detection log and flags
//	<realm>/badge/...                            badge tier state
//
// Time segments are zero-padded unix nanoseconds so lexical order matches
// chronological order.
//
// # Concurrency
//
// BadgerDB transactions are optimistic. A read-modify-write transaction
// that loses a race fails at commit with badger.ErrConflict; callers use
// IsConflict to detect that case and map it to their own stale-write error.
package storage
