// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package badges implements badge evolution.
//
// Every Category owns a ladder of tiers. A player's position on a ladder is
// a rank, 0 before the first unlock. CheckEvolutions reads the player's
// effective reputation, behaviour counters and membership age once, then
// climbs each ladder while the next tier's conditions all hold. Each step is
// a compare-and-set on the previous rank, so concurrent checks never unlock
// the same tier twice and a repeated check is a no-op.
//
// Unlocks are stored, counted and published on UnlocksTopic.
package badges
