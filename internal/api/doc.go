// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package api exposes the reputation engine over HTTP.

The router is built on chi with go-chi/cors and go-chi/httprate. Every
response uses the same envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "VALIDATION_REJECTED", "message": "...", "details": {...}}}

Endpoints (all under /api/v1):

	POST /events                          submit a reputation delta
	GET  /players/{id}/reputation         effective vector, aggregate, counters
	GET  /players/{id}/transactions       accepted deltas, newest first
	GET  /players/{id}/badges             ranks per ladder and unlock history
	POST /players/{id}/badges/check       evaluate badge ladders now
	POST /rewards                         reputation-weighted reward
	GET  /economy/tiers                   reward tier table
	GET  /badges/ladders                  configured badge ladders
	GET  /flags                           manipulation flags, newest first
	GET  /flags/{kind}/{subject}          current flag for a subject
	POST /proposals                       register a proposal
	POST /proposals/{id}/votes            record a vote
	POST /proposals/{id}/analyze          run the voting detector
	POST /transfers                       record a value transfer
	POST /transfers/analyze               run the transaction detector
	GET  /health/live, /health/ready      liveness and storage readiness

Prometheus metrics are served at /metrics.

Error mapping:

	invariant rejection          422 VALIDATION_REJECTED
	struct validation failure    400 VALIDATION_ERROR
	unknown layer                400 UNKNOWN_LAYER
	malformed input              400 BAD_REQUEST
	unknown proposal             404 NOT_FOUND
	proposal redefined           409 CONFLICT
	concurrent update            409 CONFLICT
	reward overflow              422 REWARD_OVERFLOW
	rate limited                 429 TOO_MANY_REQUESTS
*/
package api
