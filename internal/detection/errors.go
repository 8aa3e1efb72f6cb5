// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package detection

import (
	"errors"
	"fmt"

	"github.com/tomtom215/civitas/internal/validation"
)

// Errors
var (
	ErrInvalidInput     = errors.New("invalid detector input")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrProposalExists   = errors.New("proposal already defined differently")
)

// InputError wraps a rejected proposal, vote or transfer.
// It matches ErrInvalidInput with errors.Is.
type InputError struct {
	Reason string
	Fields *validation.RequestValidationError
}

func (e *InputError) Error() string {
	if e.Fields != nil {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Fields.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
