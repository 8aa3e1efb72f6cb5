// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Reputation:
  - reputation_events_total: Submissions by outcome (counter)
    Labels: layer, outcome
  - reputation_submit_duration_seconds: Submit latency (histogram)
  - reputation_rejections_total: Physics rejections (counter)
    Labels: layer, invariant
  - reputation_stale_write_retries_total: Optimistic conflict retries (counter)

Detection:
  - detection_flags_total: Flags raised (counter)
    Labels: category
  - detection_analyses_total: Analyses run (counter)
    Labels: detector, result
  - detection_analysis_duration_seconds, detection_scan_duration_seconds
  - detection_last_scan_timestamp: Unix time of the last scan (gauge)

Economy and Badges:
  - economy_reward_calculations_total, economy_reward_multiplier
  - badge_unlocks_total (category, tier), badge_checks_total (result)

Event Feed:
  - events_published_total (topic, status), events_consumed_total (topic)
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_transitions_total (name, from, to)

Storage and API:
  - storage_gc_duration_seconds
  - api_requests_total (method, endpoint, status_code)
  - api_request_duration_seconds, api_active_requests, api_rate_limit_hits_total

# Usage

	start := time.Now()
	// ... handle request ...
	metrics.RecordAPIRequest(r.Method, pattern, "200", time.Since(start))

Labels are kept low-cardinality: endpoints are chi route patterns, never raw
paths with player IDs.
*/
package metrics
