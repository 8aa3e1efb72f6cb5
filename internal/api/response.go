// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/detection"
	"github.com/tomtom215/civitas/internal/economy"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/reputation"
	"github.com/tomtom215/civitas/internal/validation"
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	// Success indicates whether the request was successful
	Success bool `json:"success"`

	// Data contains the response payload (null on error)
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success)
	Error *APIError `json:"error,omitempty"`

	Meta *APIMeta `json:"meta,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details contains additional error details (optional)
	Details interface{} `json:"details,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Count is set on list responses.
	Count *int `json:"count,omitempty"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_ERROR"
	ErrCodeValidationRejected = "VALIDATION_REJECTED"
	ErrCodeUnknownLayer       = "UNKNOWN_LAYER"
	ErrCodeRewardOverflow     = "REWARD_OVERFLOW"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue escapes control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes v as the response body with status.
func respondJSON(w http.ResponseWriter, status int, v *APIResponse) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData writes a successful envelope.
func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			RequestID: logging.RequestIDFromContext(r.Context()),
			Timestamp: time.Now().UTC(),
		},
	})
}

// respondList writes a successful envelope with the item count in meta.
func respondList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			RequestID: logging.RequestIDFromContext(r.Context()),
			Timestamp: time.Now().UTC(),
			Count:     &count,
		},
	})
}

// respondError writes an error envelope. err, when set, is logged with the
// request's context fields.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}, err error) {
	requestID := logging.RequestIDFromContext(r.Context())
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, status, &APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
		Meta: &APIMeta{
			RequestID: requestID,
			Timestamp: time.Now().UTC(),
		},
	})
}

// respondValidation writes a 400 for struct validation failures.
func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, apiErr.Message, apiErr.Details, nil)
}

// respondDomainError maps engine errors onto HTTP statuses.
//
//	rejected by an invariant           422 VALIDATION_REJECTED
//	malformed input or unknown layer   400
//	unknown proposal                   404
//	lost a concurrent write            409
//	anything else                      500
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rejection *reputation.RejectionError
		malformed *reputation.MalformedEventError
		input     *detection.InputError
		request   *economy.RequestError
	)

	switch {
	case errors.As(err, &rejection):
		respondError(w, r, http.StatusUnprocessableEntity, ErrCodeValidationRejected, rejection.Error(),
			map[string]interface{}{
				"invariant": rejection.Invariant,
				"layer":     rejection.Layer,
				"delta":     rejection.Delta,
				"effective": rejection.Effective,
			}, nil)

	case errors.As(err, &malformed):
		if malformed.Fields != nil {
			respondValidation(w, r, malformed.Fields)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, malformed.Error(), nil, nil)

	case errors.As(err, &input):
		if input.Fields != nil {
			respondValidation(w, r, input.Fields)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, input.Error(), nil, nil)

	case errors.As(err, &request):
		if request.Fields != nil {
			respondValidation(w, r, request.Fields)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, request.Error(), nil, nil)

	case errors.Is(err, reputation.ErrUnknownLayer):
		respondError(w, r, http.StatusBadRequest, ErrCodeUnknownLayer, err.Error(), nil, nil)

	case errors.Is(err, badges.ErrInvalidPlayer):
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil, nil)

	case errors.Is(err, detection.ErrProposalNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil, nil)

	case errors.Is(err, detection.ErrProposalExists):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, err.Error(), nil, nil)

	case errors.Is(err, reputation.ErrStaleWrite), errors.Is(err, badges.ErrRankConflict):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "concurrent update, retry the request", nil, err)

	case errors.Is(err, economy.ErrRewardOverflow):
		respondError(w, r, http.StatusUnprocessableEntity, ErrCodeRewardOverflow, err.Error(), nil, nil)

	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "internal server error", nil, err)
	}
}

// decodeJSON reads a single JSON object from the request body. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: "+sanitizeLogValue(err.Error()), nil, nil)
		return false
	}
	return true
}
