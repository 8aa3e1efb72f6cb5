// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels are plain strings so this package never imports domain packages.

var (
	// Reputation Metrics
	ReputationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reputation_events_total",
			Help: "Total number of submitted reputation events by outcome",
		},
		[]string{"layer", "outcome"}, // "accepted", "rejected", "malformed", "unknown_layer", "stale", "error"
	)

	ReputationSubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reputation_submit_duration_seconds",
			Help:    "Duration of reputation event submission in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"layer"},
	)

	ReputationRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reputation_rejections_total",
			Help: "Total number of deltas rejected by a physics invariant",
		},
		[]string{"layer", "invariant"},
	)

	ReputationStaleRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reputation_stale_write_retries_total",
			Help: "Total number of write attempts retried after an optimistic conflict",
		},
		[]string{"layer"},
	)

	// Detection Metrics
	DetectionFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_flags_total",
			Help: "Total number of manipulation flags raised",
		},
		[]string{"category"}, // "rapid_voting", "low_voter_diversity", "coordinated_transaction_cluster", "large_transaction_outlier"
	)

	DetectionAnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_analyses_total",
			Help: "Total number of manipulation analyses run",
		},
		[]string{"detector", "result"}, // result: "flagged", "clean", "error"
	)

	DetectionAnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "detection_analysis_duration_seconds",
			Help:    "Duration of manipulation analyses in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"detector"},
	)

	DetectionScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_scan_duration_seconds",
			Help:    "Duration of periodic detection scans in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	DetectionLastScan = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "detection_last_scan_timestamp",
			Help: "Unix timestamp of the last completed detection scan",
		},
	)

	// Economy Metrics
	RewardCalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_reward_calculations_total",
			Help: "Total number of reward calculations",
		},
		[]string{"tier", "result"}, // result: "ok", "error"
	)

	RewardMultiplier = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "economy_reward_multiplier",
			Help:    "Distribution of reputation multipliers applied to rewards",
			Buckets: []float64{0.5, 1, 1.25, 1.5, 1.75, 2, 2.5, 3, 4, 5},
		},
	)

	// Badge Metrics
	BadgeUnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_unlocks_total",
			Help: "Total number of badge tier unlocks",
		},
		[]string{"category", "tier"},
	)

	BadgeChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_checks_total",
			Help: "Total number of badge evolution checks",
		},
		[]string{"result"}, // "unlocked", "unchanged", "error"
	)

	// Event Feed Metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"topic", "status"}, // status: "ok", "error", "circuit_open"
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of domain events consumed by the feed",
		},
		[]string{"topic"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Storage Metrics
	StorageGCDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storage_gc_duration_seconds",
			Help:    "Duration of BadgerDB value log garbage collection runs",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordReputationEvent records the outcome and latency of one submission.
func RecordReputationEvent(layer, outcome string, duration time.Duration) {
	if layer == "" {
		layer = "unknown"
	}
	ReputationEventsTotal.WithLabelValues(layer, outcome).Inc()
	ReputationSubmitDuration.WithLabelValues(layer).Observe(duration.Seconds())
}

// RecordReputationRejection records a delta refused by an invariant.
func RecordReputationRejection(layer, invariant string) {
	ReputationRejectionsTotal.WithLabelValues(layer, invariant).Inc()
}

// RecordStaleWriteRetry records one retry after ErrStaleWrite.
func RecordStaleWriteRetry(layer string) {
	ReputationStaleRetries.WithLabelValues(layer).Inc()
}

// RecordDetectionAnalysis records one detector run. An error wins over
// flagged.
func RecordDetectionAnalysis(detector string, flagged bool, duration time.Duration, err error) {
	result := "clean"
	switch {
	case err != nil:
		result = "error"
	case flagged:
		result = "flagged"
	}
	DetectionAnalysesTotal.WithLabelValues(detector, result).Inc()
	DetectionAnalysisDuration.WithLabelValues(detector).Observe(duration.Seconds())
}

// RecordDetectionFlag counts a raised flag.
func RecordDetectionFlag(category string) {
	DetectionFlagsTotal.WithLabelValues(category).Inc()
}

// RecordDetectionScan records a completed periodic scan.
func RecordDetectionScan(duration time.Duration) {
	DetectionScanDuration.Observe(duration.Seconds())
	DetectionLastScan.SetToCurrentTime()
}

// RecordRewardCalculation records a reward computation.
func RecordRewardCalculation(tier string, multiplier float64, err error) {
	if tier == "" {
		tier = "none"
	}
	if err != nil {
		RewardCalculationsTotal.WithLabelValues(tier, "error").Inc()
		return
	}
	RewardCalculationsTotal.WithLabelValues(tier, "ok").Inc()
	RewardMultiplier.Observe(multiplier)
}

// RecordBadgeUnlock counts a tier unlock.
func RecordBadgeUnlock(category, tier string) {
	BadgeUnlocksTotal.WithLabelValues(category, tier).Inc()
}

// RecordBadgeCheck records the result of one evolution check.
func RecordBadgeCheck(unlocked int, err error) {
	switch {
	case err != nil:
		BadgeChecksTotal.WithLabelValues("error").Inc()
	case unlocked > 0:
		BadgeChecksTotal.WithLabelValues("unlocked").Inc()
	default:
		BadgeChecksTotal.WithLabelValues("unchanged").Inc()
	}
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic, status string) {
	EventsPublishedTotal.WithLabelValues(topic, status).Inc()
}

// RecordEventConsumed records a message handled by the feed.
func RecordEventConsumed(topic string) {
	EventsConsumedTotal.WithLabelValues(topic).Inc()
}

// SetCircuitBreakerState publishes the numeric breaker state and counts the
// transition.
func SetCircuitBreakerState(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(circuitStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordStorageGC records a value log GC pass.
func RecordStorageGC(duration time.Duration) {
	StorageGCDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records API request metrics
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitHit counts a request refused by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// TrackActiveRequest increments/decrements active request counter
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
