// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/civitas/internal/badges"
)

// BadgesResponse is a player's badge state across all ladders.
type BadgesResponse struct {
	PlayerID string          `json:"player_id"`
	Ranks    []badges.State  `json:"ranks"`
	History  []badges.Unlock `json:"history"`
}

// CheckBadges handles POST /api/v1/players/{id}/badges/check. Repeating the
// check without new reputation unlocks nothing.
func (h *Handler) CheckBadges(w http.ResponseWriter, r *http.Request) {
	unlocks, err := h.badges.CheckEvolutions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if unlocks == nil {
		unlocks = []badges.Unlock{}
	}
	respondList(w, r, unlocks, len(unlocks))
}

// GetBadges handles GET /api/v1/players/{id}/badges. The limit parameter
// bounds the unlock history.
func (h *Handler) GetBadges(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "id")
	limit, err := queryLimit(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil, nil)
		return
	}

	ranks, err := h.badges.Ranks(r.Context(), playerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	history, err := h.badges.History(r.Context(), playerID, limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if history == nil {
		history = []badges.Unlock{}
	}

	respondData(w, r, http.StatusOK, BadgesResponse{
		PlayerID: playerID,
		Ranks:    ranks,
		History:  history,
	})
}

// ListLadders handles GET /api/v1/badges/ladders.
func (h *Handler) ListLadders(w http.ResponseWriter, r *http.Request) {
	ladders := h.badges.Ladders()
	respondList(w, r, ladders, len(ladders))
}
