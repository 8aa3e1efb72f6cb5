// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordReputationEvent(t *testing.T) {
	before := testutil.ToFloat64(ReputationEventsTotal.WithLabelValues("trust", "accepted"))
	RecordReputationEvent("trust", "accepted", 2*time.Millisecond)
	after := testutil.ToFloat64(ReputationEventsTotal.WithLabelValues("trust", "accepted"))
	if after != before+1 {
		t.Errorf("reputation_events_total = %v, want %v", after, before+1)
	}

	unknownBefore := testutil.ToFloat64(ReputationEventsTotal.WithLabelValues("unknown", "malformed"))
	RecordReputationEvent("", "malformed", time.Millisecond)
	if got := testutil.ToFloat64(ReputationEventsTotal.WithLabelValues("unknown", "malformed")); got != unknownBefore+1 {
		t.Errorf("empty layer not recorded as unknown: %v", got)
	}
}

func TestRecordReputationRejection(t *testing.T) {
	before := testutil.ToFloat64(ReputationRejectionsTotal.WithLabelValues("trust", "conservation_of_trust"))
	RecordReputationRejection("trust", "conservation_of_trust")
	if got := testutil.ToFloat64(ReputationRejectionsTotal.WithLabelValues("trust", "conservation_of_trust")); got != before+1 {
		t.Errorf("reputation_rejections_total = %v, want %v", got, before+1)
	}
}

func TestRecordStaleWriteRetry(t *testing.T) {
	before := testutil.ToFloat64(ReputationStaleRetries.WithLabelValues("social"))
	RecordStaleWriteRetry("social")
	RecordStaleWriteRetry("social")
	if got := testutil.ToFloat64(ReputationStaleRetries.WithLabelValues("social")); got != before+2 {
		t.Errorf("stale retries = %v, want %v", got, before+2)
	}
}

func TestRecordDetectionAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		flagged bool
		err     error
		result  string
	}{
		{name: "clean", result: "clean"},
		{name: "flagged", flagged: true, result: "flagged"},
		{name: "error wins", flagged: true, err: errors.New("boom"), result: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DetectionAnalysesTotal.WithLabelValues("voting", tt.result)
			before := testutil.ToFloat64(c)
			RecordDetectionAnalysis("voting", tt.flagged, time.Millisecond, tt.err)
			if got := testutil.ToFloat64(c); got != before+1 {
				t.Errorf("detection_analyses_total{result=%s} = %v, want %v", tt.result, got, before+1)
			}
		})
	}
}

func TestRecordDetectionFlagAndScan(t *testing.T) {
	before := testutil.ToFloat64(DetectionFlagsTotal.WithLabelValues("rapid_voting"))
	RecordDetectionFlag("rapid_voting")
	if got := testutil.ToFloat64(DetectionFlagsTotal.WithLabelValues("rapid_voting")); got != before+1 {
		t.Errorf("detection_flags_total = %v, want %v", got, before+1)
	}

	RecordDetectionScan(50 * time.Millisecond)
	if got := testutil.ToFloat64(DetectionLastScan); got <= 0 {
		t.Errorf("detection_last_scan_timestamp = %v, want > 0", got)
	}
}

func TestRecordRewardCalculation(t *testing.T) {
	ok := RewardCalculationsTotal.WithLabelValues("gold", "ok")
	failed := RewardCalculationsTotal.WithLabelValues("none", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordRewardCalculation("gold", 1.5, nil)
	RecordRewardCalculation("", 0, errors.New("negative base"))

	if got := testutil.ToFloat64(ok); got != okBefore+1 {
		t.Errorf("ok calculations = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(failed); got != failedBefore+1 {
		t.Errorf("failed calculations = %v, want %v", got, failedBefore+1)
	}
}

func TestRecordBadgeMetrics(t *testing.T) {
	unlockBefore := testutil.ToFloat64(BadgeUnlocksTotal.WithLabelValues("mentor", "bronze"))
	RecordBadgeUnlock("mentor", "bronze")
	if got := testutil.ToFloat64(BadgeUnlocksTotal.WithLabelValues("mentor", "bronze")); got != unlockBefore+1 {
		t.Errorf("badge_unlocks_total = %v, want %v", got, unlockBefore+1)
	}

	for _, tc := range []struct {
		unlocked int
		err      error
		result   string
	}{
		{unlocked: 2, result: "unlocked"},
		{unlocked: 0, result: "unchanged"},
		{err: errors.New("store down"), result: "error"},
	} {
		c := BadgeChecksTotal.WithLabelValues(tc.result)
		before := testutil.ToFloat64(c)
		RecordBadgeCheck(tc.unlocked, tc.err)
		if got := testutil.ToFloat64(c); got != before+1 {
			t.Errorf("badge_checks_total{result=%s} = %v, want %v", tc.result, got, before+1)
		}
	}
}

func TestEventMetrics(t *testing.T) {
	pub := EventsPublishedTotal.WithLabelValues("badges.unlocked", "ok")
	before := testutil.ToFloat64(pub)
	RecordEventPublished("badges.unlocked", "ok")
	if got := testutil.ToFloat64(pub); got != before+1 {
		t.Errorf("events_published_total = %v, want %v", got, before+1)
	}

	con := EventsConsumedTotal.WithLabelValues("manipulation.flags")
	before = testutil.ToFloat64(con)
	RecordEventConsumed("manipulation.flags")
	if got := testutil.ToFloat64(con); got != before+1 {
		t.Errorf("events_consumed_total = %v, want %v", got, before+1)
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	tests := []struct {
		to   string
		want float64
	}{
		{to: "open", want: 2},
		{to: "half-open", want: 1},
		{to: "closed", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.to, func(t *testing.T) {
			SetCircuitBreakerState("test-breaker", "closed", tt.to)
			if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != tt.want {
				t.Errorf("circuit_breaker_state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("POST", "/api/v1/events", "422")
	before := testutil.ToFloat64(c)
	RecordAPIRequest("POST", "/api/v1/events", "422", 5*time.Millisecond)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("api_requests_total = %v, want %v", got, before+1)
	}

	rl := APIRateLimitHits.WithLabelValues("/api/v1/events")
	before = testutil.ToFloat64(rl)
	RecordRateLimitHit("/api/v1/events")
	if got := testutil.ToFloat64(rl); got != before+1 {
		t.Errorf("api_rate_limit_hits_total = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest_Concurrent(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("api_active_requests = %v, want %v", got, start)
	}
}

func TestRecordStorageGC(t *testing.T) {
	// Histogram observations only need to not panic.
	RecordStorageGC(250 * time.Millisecond)
}
