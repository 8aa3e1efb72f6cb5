// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package logging provides centralized zerolog-based logging for Civitas.
//
// Every package logs through this one: the global logger for startup and
// background work, Ctx for anything that has a request or scan context.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Msg("Server starting")
//	logging.Ctx(ctx).Warn().Str("player_id", id).Msg("stale write")
//
// # Context Fields
//
// Ctx adds correlation_id, request_id and realm when present. The HTTP
// request ID middleware sets request_id; background services call
// ContextWithNewCorrelationID once per unit of work.
//
// # Adapters
//
//   - SlogHandler bridges slog for sutureslog
//   - WatermillAdapter implements watermill.LoggerAdapter for the event feed
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
