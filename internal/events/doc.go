// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package events provides the in-process event bus behind the manipulation
// flag and badge unlock feeds.
//
// Bus wraps a watermill publisher and subscriber. Every publish runs through a
// gobreaker circuit breaker so a failing transport is cut off quickly instead
// of stalling request handlers; breaker transitions are exported as metrics.
// Producers depend only on a PublishJSON method, so the detection and badge
// packages declare their own small Publisher interfaces.
//
// Feed subscribes to topics and hands messages to a handler, acking on
// success. The default handler writes each message to the structured log.
package events
