// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package services adapts Civitas components to suture.Service.

HTTPServerService turns the blocking ListenAndServe of *http.Server into a
context-aware Serve with graceful Shutdown.

RunnerService wraps anything with a RunWithContext loop: the detection scan,
the BadgerDB GC loop and event feed consumers. The wrapped packages are
matched by interface, never imported.
*/
package services
