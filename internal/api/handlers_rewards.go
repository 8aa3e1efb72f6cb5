// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"

	"github.com/tomtom215/civitas/internal/economy"
)

// CalculateReward handles POST /api/v1/rewards.
func (h *Handler) CalculateReward(w http.ResponseWriter, r *http.Request) {
	var req economy.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	reward, err := h.rewards.Calculate(r.Context(), req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, reward)
}

// ListTiers handles GET /api/v1/economy/tiers.
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers := h.rewards.Tiers()
	respondList(w, r, tiers, len(tiers))
}
