// SPDX-License-Identifier: MIT
// Package forceconstants: sentinel error set.

package forceconstants

import "errors"

var (
	// ErrMissingThirdOrder indicates that an anharmonic quantity was requested
	// from force constants loaded without a third-order tensor.
	ErrMissingThirdOrder = errors.New("forceconstants: third order not available")

	// ErrNonFinite indicates a NaN or ±Inf force-constant entry.
	ErrNonFinite = errors.New("forceconstants: NaN or Inf encountered")

	// ErrShape indicates inconsistent atom/replica counts or buffer lengths.
	ErrShape = errors.New("forceconstants: inconsistent shape")

	// ErrIndexOutOfRange indicates a third-order coordinate outside the tensor.
	ErrIndexOutOfRange = errors.New("forceconstants: index out of range")

	// ErrNoZeroReplica indicates that the replica list lacks the central cell R = 0.
	ErrNoZeroReplica = errors.New("forceconstants: replica list has no zero vector")

	// ErrReciprocity indicates D0[i,α,r,j,β] != D0[j,β,r̄,i,α] beyond tolerance.
	ErrReciprocity = errors.New("forceconstants: second order violates reciprocity")

	// ErrInvalidCutoff indicates a non-positive or non-finite distance cutoff.
	ErrInvalidCutoff = errors.New("forceconstants: cutoff must be a positive finite distance")
)
