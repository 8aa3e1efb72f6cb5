// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide so struct metadata is
// cached once. Field names in errors follow json tags.
//
// Custom rules:
//   - finite: float fields must not be NaN or infinite
//
// Identifiers that become storage key segments (player IDs, reason codes,
// subject IDs) use excludesall=/ so they cannot escape their key prefix.
//
// Example:
//
//	type TransferRequest struct {
//	    From   string  `json:"from" validate:"required,max=128,excludesall=/"`
//	    Amount float64 `json:"amount" validate:"finite,gt=0"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
