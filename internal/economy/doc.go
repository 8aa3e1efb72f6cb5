// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package economy scales base rewards by a player's reputation tier and a
// caller supplied health index:
//
//	final = round(base * multiplier(aggregate) * healthIndex)
//
// Tiers are configuration data. The highest tier whose MinReputation the
// aggregate meets supplies a polynomial in the aggregate; the result is
// clamped to [0, MaxMultiplier]. An aggregate below every tier earns the
// base reward unchanged.
package economy
