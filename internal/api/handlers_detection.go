// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/civitas/internal/detection"
)

// VoteRequest is the body of POST /api/v1/proposals/{id}/votes. The
// proposal comes from the path.
type VoteRequest struct {
	ID      string    `json:"id,omitempty"`
	VoterID string    `json:"voter_id"`
	CastAt  time.Time `json:"cast_at"`
}

// AnalyzeRangeRequest is the body of POST /api/v1/transfers/analyze.
type AnalyzeRangeRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CreateProposal handles POST /api/v1/proposals.
func (h *Handler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var p detection.Proposal
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := h.detection.RecordProposal(r.Context(), p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, p)
}

// CastVote handles POST /api/v1/proposals/{id}/votes.
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vote, err := h.detection.RecordVote(r.Context(), detection.Vote{
		ID:         req.ID,
		ProposalID: chi.URLParam(r, "id"),
		VoterID:    req.VoterID,
		CastAt:     req.CastAt,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, vote)
}

// AnalyzeProposal handles POST /api/v1/proposals/{id}/analyze. It returns
// the flags raised, possibly none.
func (h *Handler) AnalyzeProposal(w http.ResponseWriter, r *http.Request) {
	flags, err := h.detection.AnalyzeVoting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondFlags(w, r, flags)
}

// RecordTransfer handles POST /api/v1/transfers.
func (h *Handler) RecordTransfer(w http.ResponseWriter, r *http.Request) {
	var t detection.Transfer
	if !decodeJSON(w, r, &t) {
		return
	}
	stored, err := h.detection.RecordTransfer(r.Context(), t)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, stored)
}

// AnalyzeTransfers handles POST /api/v1/transfers/analyze over [start, end).
func (h *Handler) AnalyzeTransfers(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	flags, err := h.detection.AnalyzeTransactions(r.Context(), req.Start.UTC(), req.End.UTC())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondFlags(w, r, flags)
}

// ListFlags handles GET /api/v1/flags.
// Filters: category, subject_kind, subject_id, since and limit.
func (h *Handler) ListFlags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := detection.FlagFilter{
		Category:    detection.Category(q.Get("category")),
		SubjectKind: detection.SubjectKind(q.Get("subject_kind")),
		SubjectID:   q.Get("subject_id"),
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

	flags, err := h.detection.ListFlags(r.Context(), filter)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondFlags(w, r, flags)
}

// LatestFlag handles GET /api/v1/flags/{kind}/{subject}. It returns the flag
// that currently applies to the subject.
func (h *Handler) LatestFlag(w http.ResponseWriter, r *http.Request) {
	kind := detection.SubjectKind(chi.URLParam(r, "kind"))
	subject := chi.URLParam(r, "subject")

	flag, found, err := h.detection.LatestFlag(r.Context(), kind, subject)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if !found {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "no flag for "+string(kind)+" "+sanitizeLogValue(subject), nil, nil)
		return
	}
	respondData(w, r, http.StatusOK, flag)
}

func respondFlags(w http.ResponseWriter, r *http.Request, flags []detection.Flag) {
	if flags == nil {
		flags = []detection.Flag{}
	}
	respondList(w, r, flags, len(flags))
}
