// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package middleware provides the HTTP middleware shared by the Civitas API.

Every middleware has the chi signature func(http.Handler) http.Handler and is
mounted by the api router:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Realm(cfg.Engine.RealmID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)

Components:

  - RequestID: reuses or generates X-Request-ID and seeds the logging context
    with request and correlation IDs
  - Realm: tags the logging context with the realm served by the process
  - PrometheusMetrics: request count, latency histogram and in-flight gauge,
    labeled by chi route pattern
  - SecurityHeaders: nosniff, frame denial, no-store and HSTS over TLS

CORS and rate limiting come from go-chi/cors and go-chi/httprate and are
configured in the api package.
*/
package middleware
