// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/detection"
	"github.com/tomtom215/civitas/internal/economy"
	"github.com/tomtom215/civitas/internal/reputation"
)

// reputationView is the flattened JSON of ReputationResponse.
type reputationView struct {
	PlayerID    string                       `json:"player_id"`
	Layers      map[reputation.Layer]float64 `json:"layers"`
	Aggregate   float64                      `json:"aggregate"`
	Counters    map[string]int64             `json:"counters"`
	MemberSince *time.Time                   `json:"member_since"`
}

func TestSubmitEvent(t *testing.T) {
	t.Parallel()

	t.Run("fresh entry round trip", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "contribution", 40, "quest_completed"))
		expectStatus(t, rec, http.StatusCreated)

		var resp EventResponse
		decode(t, rec, &resp)
		if resp.Transaction == nil || resp.Transaction.EffectiveAfter != 40 {
			t.Fatalf("transaction = %+v, want effective_after 40", resp.Transaction)
		}
		if resp.Transaction.Layer != reputation.LayerContribution {
			t.Errorf("layer = %s, want contribution", resp.Transaction.Layer)
		}
	})

	t.Run("trust jump rejected at low trust", func(t *testing.T) {
		s := newTestServer(t)
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "trust", 10, "helped")), http.StatusCreated)

		rec := s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "trust", 150, "helped"))
		expectStatus(t, rec, http.StatusUnprocessableEntity)

		env := decode(t, rec, nil)
		if env.Error == nil || env.Error.Code != ErrCodeValidationRejected {
			t.Fatalf("error = %+v, want VALIDATION_REJECTED", env.Error)
		}
		details, ok := env.Error.Details.(map[string]interface{})
		if !ok || details["invariant"] != string(reputation.InvariantConservationOfTrust) {
			t.Errorf("details = %#v, want invariant conservation_of_trust", env.Error.Details)
		}

		// The rejected delta left the score untouched.
		var rep reputationView
		decode(t, s.do(t, http.MethodGet, "/api/v1/players/p1/reputation", nil), &rep)
		if got := rep.Layers[reputation.LayerTrust]; got != 10 {
			t.Errorf("trust after rejection = %v, want 10", got)
		}
	})

	t.Run("entropy law", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "economic", 1500, "trade"))
		expectStatus(t, rec, http.StatusUnprocessableEntity)

		rec = s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "economic", 900, "trade"))
		expectStatus(t, rec, http.StatusCreated)
	})

	t.Run("unknown layer", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "charisma", 1, "x"))
		expectStatus(t, rec, http.StatusBadRequest)
		if env := decode(t, rec, nil); env.Error.Code != ErrCodeUnknownLayer {
			t.Errorf("code = %s, want %s", env.Error.Code, ErrCodeUnknownLayer)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{"layer": "trust", "delta": 1})
		expectStatus(t, rec, http.StatusBadRequest)
		if env := decode(t, rec, nil); env.Error.Code != ErrCodeValidationFailed {
			t.Errorf("code = %s, want %s", env.Error.Code, ErrCodeValidationFailed)
		}
	})

	t.Run("unlocks badges when enabled", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "contribution", 900, "quest_completed"))
		expectStatus(t, rec, http.StatusCreated)

		var resp EventResponse
		decode(t, rec, &resp)
		// Aggregate 270 clears the citizen (100) and notable (250) pillar tiers.
		if len(resp.Unlocks) != 2 {
			t.Fatalf("unlocks = %+v, want 2 pillar tiers", resp.Unlocks)
		}
		for _, u := range resp.Unlocks {
			if u.Category != badges.CategoryPillar {
				t.Errorf("unlock category = %s, want pillar", u.Category)
			}
		}
	})

	t.Run("no badge check when disabled", func(t *testing.T) {
		s := newTestServer(t, func(d *Dependencies) { d.CheckBadgesOnEvent = false })
		rec := s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "contribution", 900, "quest_completed"))
		expectStatus(t, rec, http.StatusCreated)

		var resp EventResponse
		decode(t, rec, &resp)
		if len(resp.Unlocks) != 0 {
			t.Errorf("unlocks = %+v, want none", resp.Unlocks)
		}
	})
}

func TestGetReputation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "contribution", 100, "quest_completed")), http.StatusCreated)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "economic", 200, "trade")), http.StatusCreated)

	t.Run("current snapshot", func(t *testing.T) {
		var rep reputationView
		decode(t, s.do(t, http.MethodGet, "/api/v1/players/p1/reputation", nil), &rep)

		if rep.PlayerID != "p1" {
			t.Errorf("player = %q, want p1", rep.PlayerID)
		}
		// 0.30*100 + 0.10*200
		if rep.Aggregate != 50 {
			t.Errorf("aggregate = %v, want 50", rep.Aggregate)
		}
		if rep.Counters["quest_completed"] != 1 || rep.Counters["trade"] != 1 {
			t.Errorf("counters = %v", rep.Counters)
		}
		if rep.MemberSince == nil {
			t.Error("member_since missing")
		}
	})

	t.Run("decayed as of later date", func(t *testing.T) {
		asOf := testNow.Add(100 * 24 * time.Hour).Format(time.RFC3339)
		var rep reputationView
		decode(t, s.do(t, http.MethodGet, "/api/v1/players/p1/reputation?as_of="+asOf, nil), &rep)

		if got := rep.Layers[reputation.LayerContribution]; !(got < 100) {
			t.Errorf("contribution after 100 days = %v, want decayed below 100", got)
		}
		if got := rep.Layers[reputation.LayerEconomic]; got != 200 {
			t.Errorf("economic after 100 days = %v, want 200 (no decay)", got)
		}
	})

	t.Run("unknown player is all zero", func(t *testing.T) {
		var rep reputationView
		decode(t, s.do(t, http.MethodGet, "/api/v1/players/nobody/reputation", nil), &rep)
		if rep.Aggregate != 0 || rep.MemberSince != nil {
			t.Errorf("reputation = %+v, want empty", rep)
		}
	})

	t.Run("bad as_of", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/players/p1/reputation?as_of=yesterday", nil), http.StatusBadRequest)
	})
}

func TestListTransactions(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, layer := range []string{"contribution", "social", "contribution"} {
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", layer, 5, "chat")), http.StatusCreated)
	}

	tests := []struct {
		name   string
		query  string
		status int
		want   int
	}{
		{"all", "", http.StatusOK, 3},
		{"by layer", "?layer=contribution", http.StatusOK, 2},
		{"limit", "?limit=1", http.StatusOK, 1},
		{"unknown layer", "?layer=charisma", http.StatusBadRequest, 0},
		{"bad limit", "?limit=-2", http.StatusBadRequest, 0},
		{"bad since", "?since=never", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/v1/players/p1/transactions"+tt.query, nil)
			expectStatus(t, rec, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var txs []reputation.Transaction
			env := decode(t, rec, &txs)
			if len(txs) != tt.want || env.Meta.Count == nil || *env.Meta.Count != tt.want {
				t.Errorf("got %d transactions (meta %+v), want %d", len(txs), env.Meta, tt.want)
			}
		})
	}
}

func TestCalculateReward(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	// Aggregate 0.30 * 900 = 270 lands in the gold tier (x1.5).
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "contribution", 900, "quest_completed")), http.StatusCreated)

	t.Run("gold tier", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/rewards", map[string]interface{}{
			"player_id":    "p1",
			"base_reward":  100,
			"health_index": 1.0,
		})
		expectStatus(t, rec, http.StatusOK)

		var reward economy.Reward
		decode(t, rec, &reward)
		if reward.Tier != "gold" || reward.Multiplier != 1.5 || reward.FinalReward != 150 {
			t.Errorf("reward = %+v, want gold x1.5 = 150", reward)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/rewards", map[string]interface{}{
			"player_id":    "p1",
			"base_reward":  -5,
			"health_index": 1.0,
		})
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("tier table", func(t *testing.T) {
		var tiers []economy.Tier
		decode(t, s.do(t, http.MethodGet, "/api/v1/economy/tiers", nil), &tiers)
		if len(tiers) != len(economy.DefaultTiers()) {
			t.Errorf("tiers = %d, want %d", len(tiers), len(economy.DefaultTiers()))
		}
	})
}

func TestVotingManipulationFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	start := testNow.Add(-4 * time.Hour)

	rec := s.do(t, http.MethodPost, "/api/v1/proposals", map[string]interface{}{
		"id":         "prop-1",
		"created_at": start.Format(time.RFC3339),
	})
	expectStatus(t, rec, http.StatusCreated)

	// Nine voters within minutes of opening, one repeat and one late vote.
	cast := func(voter string, after time.Duration) {
		t.Helper()
		rec := s.do(t, http.MethodPost, "/api/v1/proposals/prop-1/votes", map[string]interface{}{
			"voter_id": voter,
			"cast_at":  start.Add(after).Format(time.RFC3339),
		})
		expectStatus(t, rec, http.StatusCreated)
	}
	for i := 0; i < 8; i++ {
		cast(fmt.Sprintf("voter-%d", i), time.Duration(i+1)*time.Minute)
	}
	cast("voter-8", 2*time.Hour)
	cast("voter-0", 3*time.Hour)

	rec = s.do(t, http.MethodPost, "/api/v1/proposals/prop-1/analyze", nil)
	expectStatus(t, rec, http.StatusOK)
	var flags []detection.Flag
	decode(t, rec, &flags)
	if len(flags) != 1 || flags[0].Category != detection.CategoryRapidVoting {
		t.Fatalf("flags = %+v, want one rapid_voting flag", flags)
	}

	t.Run("listed in feed", func(t *testing.T) {
		var listed []detection.Flag
		decode(t, s.do(t, http.MethodGet, "/api/v1/flags?category=rapid_voting", nil), &listed)
		if len(listed) != 1 || listed[0].ID != flags[0].ID {
			t.Errorf("listed = %+v, want flag %s", listed, flags[0].ID)
		}
	})

	t.Run("latest for subject", func(t *testing.T) {
		var latest detection.Flag
		rec := s.do(t, http.MethodGet, "/api/v1/flags/proposal/prop-1", nil)
		expectStatus(t, rec, http.StatusOK)
		decode(t, rec, &latest)
		if latest.ID != flags[0].ID {
			t.Errorf("latest = %s, want %s", latest.ID, flags[0].ID)
		}
	})

	t.Run("no flag for clean subject", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/flags/proposal/other", nil), http.StatusNotFound)
	})

	t.Run("unknown subject kind", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/flags/planet/x", nil), http.StatusBadRequest)
	})

	t.Run("unknown category filter", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/flags?category=nonsense", nil), http.StatusBadRequest)
	})
}

func TestVotingEndpoints_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	t.Run("vote on unknown proposal", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/proposals/ghost/votes", map[string]interface{}{
			"voter_id": "v1",
			"cast_at":  testNow.Format(time.RFC3339),
		})
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("proposal closing before it opens", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/proposals", map[string]interface{}{
			"id":         "bad",
			"created_at": testNow.Format(time.RFC3339),
			"closes_at":  testNow.Add(-time.Hour).Format(time.RFC3339),
		})
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("proposal window cannot move", func(t *testing.T) {
		body := func(created time.Time) map[string]interface{} {
			return map[string]interface{}{"id": "fixed", "created_at": created.Format(time.RFC3339)}
		}
		opened := testNow.Add(-2 * time.Hour)
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/proposals", body(opened)), http.StatusCreated)
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/proposals", body(opened)), http.StatusCreated)

		rec := s.do(t, http.MethodPost, "/api/v1/proposals", body(testNow))
		expectStatus(t, rec, http.StatusConflict)
		if env := decode(t, rec, nil); env.Error == nil || env.Error.Code != ErrCodeConflict {
			t.Errorf("error = %+v, want CONFLICT", env.Error)
		}
	})

	t.Run("analyze proposal without votes", func(t *testing.T) {
		expectStatus(t, s.do(t, http.MethodPost, "/api/v1/proposals", map[string]interface{}{
			"id":         "quiet",
			"created_at": testNow.Add(-time.Hour).Format(time.RFC3339),
		}), http.StatusCreated)

		var flags []detection.Flag
		rec := s.do(t, http.MethodPost, "/api/v1/proposals/quiet/analyze", nil)
		expectStatus(t, rec, http.StatusOK)
		decode(t, rec, &flags)
		if len(flags) != 0 {
			t.Errorf("flags = %+v, want none", flags)
		}
	})
}

func TestTransferEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	t.Run("records transfer", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/transfers", map[string]interface{}{
			"from":        "alice",
			"to":          "bob",
			"amount":      25.0,
			"occurred_at": testNow.Add(-time.Hour).Format(time.RFC3339),
		})
		expectStatus(t, rec, http.StatusCreated)

		var tr detection.Transfer
		decode(t, rec, &tr)
		if tr.ID == "" {
			t.Error("stored transfer has no ID")
		}
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/transfers", map[string]interface{}{
			"from":        "alice",
			"to":          "alice",
			"amount":      25.0,
			"occurred_at": testNow.Format(time.RFC3339),
		})
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("analyze range", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/transfers/analyze", map[string]interface{}{
			"start": testNow.Add(-24 * time.Hour).Format(time.RFC3339),
			"end":   testNow.Format(time.RFC3339),
		})
		expectStatus(t, rec, http.StatusOK)
	})

	t.Run("inverted range", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/transfers/analyze", map[string]interface{}{
			"start": testNow.Format(time.RFC3339),
			"end":   testNow.Add(-time.Hour).Format(time.RFC3339),
		})
		expectStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBadgeEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(d *Dependencies) { d.CheckBadgesOnEvent = false })

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/events", eventBody("p1", "contribution", 400, "quest_completed")), http.StatusCreated)

	rec := s.do(t, http.MethodPost, "/api/v1/players/p1/badges/check", nil)
	expectStatus(t, rec, http.StatusOK)
	var unlocks []badges.Unlock
	decode(t, rec, &unlocks)
	if len(unlocks) != 1 || unlocks[0].TierName != "citizen" {
		t.Fatalf("unlocks = %+v, want citizen", unlocks)
	}

	t.Run("repeat check is idempotent", func(t *testing.T) {
		var again []badges.Unlock
		decode(t, s.do(t, http.MethodPost, "/api/v1/players/p1/badges/check", nil), &again)
		if len(again) != 0 {
			t.Errorf("second check unlocks = %+v, want none", again)
		}
	})

	t.Run("state and history", func(t *testing.T) {
		var resp BadgesResponse
		decode(t, s.do(t, http.MethodGet, "/api/v1/players/p1/badges", nil), &resp)

		if len(resp.Ranks) != len(badges.DefaultLadders()) {
			t.Errorf("ranks = %d categories, want %d", len(resp.Ranks), len(badges.DefaultLadders()))
		}
		for _, st := range resp.Ranks {
			want := 0
			if st.Category == badges.CategoryPillar {
				want = 1
			}
			if st.Rank != want {
				t.Errorf("%s rank = %d, want %d", st.Category, st.Rank, want)
			}
		}
		if len(resp.History) != 1 {
			t.Errorf("history = %+v, want 1 unlock", resp.History)
		}
	})

	t.Run("ladders", func(t *testing.T) {
		var ladders []badges.Ladder
		decode(t, s.do(t, http.MethodGet, "/api/v1/badges/ladders", nil), &ladders)
		if len(ladders) != len(badges.DefaultLadders()) {
			t.Errorf("ladders = %d, want %d", len(ladders), len(badges.DefaultLadders()))
		}
	})
}
