// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package reputation implements the layered reputation store, the decay
// functions and the physics invariants that guard every write.
//
// A player's reputation is a vector of raw scores, one per Layer. Raw scores
// are never decayed in storage; the effective score is computed on read:
//
//	exponential  raw * e^(-lambda * days)
//	linear       max(0, raw - rate * days)
//	logarithmic  raw / (1 + ln(days + 1))
//	none         raw
//
// # Write Path
//
// Engine.Submit is the only writer. For one event it:
//
//  1. validates the event shape (ErrMalformedEvent, ErrUnknownLayer)
//  2. serializes on the (player, layer) key
//  3. reads the entry and computes the effective score as of now
//  4. checks the conservation-of-trust and entropy invariants
//  5. commits the new raw score, the transaction, the behaviour counter and
//     the membership record in one BadgerDB transaction
//
// A commit that loses an optimistic race returns ErrStaleWrite and is
// re-attempted from step 3 a bounded number of times.
//
// # Usage
//
//	layers, _ := reputation.NewLayerSet(reputation.DefaultLayerConfigs())
//	store := reputation.NewBadgerStore(db, "main", 90*24*time.Hour)
//	engine := reputation.NewEngine(store, layers, reputation.DefaultEngineConfig())
//
//	tx, err := engine.Submit(ctx, reputation.Event{
//	    PlayerID:   "p-1",
//	    Layer:      "trust",
//	    Delta:      25,
//	    ReasonCode: "helpful_answer",
//	    OccurredAt: time.Now(),
//	})
//	var rej *reputation.RejectionError
//	if errors.As(err, &rej) {
//	    // rej.Invariant names the rule
//	}
package reputation
