// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package main is the entry point for the Civitas server.

Civitas scores players along five reputation layers (contribution, trust,
governance, social, economic), each with its own decay curve, and builds
rewards, badge ladders and manipulation detection on top of those scores.

# Application Architecture

The server runs every long-lived component under a Suture v4 tree:

	RootSupervisor ("civitas")
	├── DataSupervisor ("data-layer")
	│   └── storage-gc (BadgerDB value log GC)
	├── AnalysisSupervisor ("analysis-layer")
	│   ├── detection-scan (scheduled voting and transaction scan)
	│   └── event-feed (logs manipulation.flags and badges.unlocked)
	└── APISupervisor ("api-layer")
	    └── http-server (chi router)

Component initialization order:

 1. Configuration: koanf v2 with defaults, YAML file and environment
 2. Logging: zerolog with JSON or console output
 3. Storage: BadgerDB, on disk or in memory
 4. Event bus: Watermill GoChannel behind a circuit breaker
 5. Engines: reputation, detection, economy and badges
 6. HTTP server: chi router with request ID, metrics, CORS and rate limits
 7. Supervisor tree: started last, stopped on SIGINT or SIGTERM

# Configuration

Configuration is loaded via koanf v2 with layered sources (highest priority wins):
  - Environment variables (HTTP_PORT, BADGER_PATH, REALM_ID, LAYER_TRUST_WEIGHT, ...)
  - Config file (CONFIG_PATH, ./config.yaml or /etc/civitas/config.yaml)
  - Built-in defaults

Reward tiers and badge ladders are only configurable from the file. When a
config file is present, changes to it reload the log level without a restart.

# Signal Handling

On SIGINT or SIGTERM the supervisor tree is canceled: the HTTP server drains
in-flight requests within SUPERVISOR_SHUTDOWN_TIMEOUT, background loops stop,
then the event bus and storage are closed.

# Example Usage

	export BADGER_PATH=/var/lib/civitas
	export REALM_ID=main
	export LOG_FORMAT=console
	./civitas

	curl -X POST localhost:8080/api/v1/events -d '{
	  "player_id": "p1", "layer": "contribution", "delta": 40,
	  "reason_code": "quest_completed", "occurred_at": "2026-05-01T12:00:00Z"}'
*/
package main
