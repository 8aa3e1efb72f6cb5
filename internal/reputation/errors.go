// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package reputation

import (
	"errors"
	"fmt"

	"github.com/tomtom215/civitas/internal/validation"
)

// Errors
var (
	ErrValidationRejected = errors.New("reputation delta rejected")
	ErrUnknownLayer       = errors.New("unknown reputation layer")
	ErrStaleWrite         = errors.New("stale reputation write")
	ErrMalformedEvent     = errors.New("malformed reputation event")
)

// Invariant names a physics rule that can reject a delta.
type Invariant string

const (
	InvariantConservationOfTrust Invariant = "conservation_of_trust"
	InvariantEntropyLaw          Invariant = "entropy_law"
)

// RejectionError reports which invariant rejected a delta.
// It matches ErrValidationRejected with errors.Is.
type RejectionError struct {
	Invariant Invariant
	Layer     Layer
	Delta     float64
	Effective float64
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s on layer %s (delta %.2f, effective %.2f)",
		ErrValidationRejected, e.Invariant, e.Layer, e.Delta, e.Effective)
}

func (e *RejectionError) Unwrap() error {
	return ErrValidationRejected
}

// MalformedEventError wraps structural problems with an inbound event.
// It matches ErrMalformedEvent with errors.Is.
type MalformedEventError struct {
	Reason string

	// Fields is set when struct validation failed.
	Fields *validation.RequestValidationError
}

func (e *MalformedEventError) Error() string {
	if e.Fields != nil {
		return fmt.Sprintf("%s: %s", ErrMalformedEvent, e.Fields.Error())
	}
	return fmt.Sprintf("%s: %s", ErrMalformedEvent, e.Reason)
}

func (e *MalformedEventError) Unwrap() error {
	return ErrMalformedEvent
}
