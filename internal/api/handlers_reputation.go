// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/reputation"
)

// EventResponse is returned for an accepted event.
type EventResponse struct {
	Transaction *reputation.Transaction `json:"transaction"`

	// Unlocks lists badges unlocked by the event when automatic badge
	// checks are enabled.
	Unlocks []badges.Unlock `json:"unlocks,omitempty"`
}

// ReputationResponse is a player's reputation vector with its history facts.
type ReputationResponse struct {
	*reputation.Snapshot
	Counters    map[string]int64 `json:"counters"`
	MemberSince *time.Time       `json:"member_since,omitempty"`
}

// SubmitEvent handles POST /api/v1/events.
//
// A rejected delta leaves reputation untouched and returns 422 naming the
// invariant. A failing automatic badge check is logged; the event itself
// has already been committed.
func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var ev reputation.Event
	if !decodeJSON(w, r, &ev) {
		return
	}

	tx, err := h.reputation.Submit(r.Context(), ev)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := EventResponse{Transaction: tx}
	if h.checkBadgesOnEvent {
		unlocks, err := h.badges.CheckEvolutions(r.Context(), tx.PlayerID)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("player_id", sanitizeLogValue(tx.PlayerID)).
				Msg("badge check after event failed")
		}
		resp.Unlocks = unlocks
	}

	respondData(w, r, http.StatusCreated, resp)
}

// GetReputation handles GET /api/v1/players/{id}/reputation.
// The optional as_of parameter evaluates decay at that instant; without it
// the engine's clock is used.
func (h *Handler) GetReputation(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "id")
	asOf, err := queryTime(r, "as_of", time.Time{})
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil, nil)
		return
	}

	snap, err := h.reputation.Snapshot(r.Context(), playerID, asOf)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	counters, err := h.reputation.Counters(r.Context(), playerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	since, found, err := h.reputation.MemberSince(r.Context(), playerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if counters == nil {
		counters = map[string]int64{}
	}

	resp := ReputationResponse{Snapshot: snap, Counters: counters}
	if found {
		resp.MemberSince = &since
	}
	respondData(w, r, http.StatusOK, resp)
}

// ListTransactions handles GET /api/v1/players/{id}/transactions.
// Filters: layer, since (RFC 3339) and limit.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "id")
	filter := reputation.TransactionFilter{}

	if v := r.URL.Query().Get("layer"); v != "" {
		layer, err := reputation.ParseLayer(v)
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		filter.Layer = layer
	}

	var err error
	if filter.Since, err = queryTime(r, "since", time.Time{}); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil, nil)
		return
	}
	if filter.Limit, err = queryLimit(r); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil, nil)
		return
	}

	txs, err := h.reputation.Transactions(r.Context(), playerID, filter)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if txs == nil {
		txs = []reputation.Transaction{}
	}
	respondList(w, r, txs, len(txs))
}
