// SPDX-License-Identifier: MIT
// Package structure: sentinel error set.

package structure

import "errors"

var (
	// ErrEmpty indicates that no atoms were supplied.
	ErrEmpty = errors.New("structure: no atoms")

	// ErrShape indicates that positions and masses disagree in length.
	ErrShape = errors.New("structure: positions and masses length mismatch")

	// ErrNonPositiveMass indicates a mass <= 0.
	ErrNonPositiveMass = errors.New("structure: mass must be > 0")

	// ErrNonFinite indicates a NaN or ±Inf coordinate, mass or cell entry.
	ErrNonFinite = errors.New("structure: NaN or Inf encountered")

	// ErrSingularCell indicates that the cell vectors are linearly dependent.
	ErrSingularCell = errors.New("structure: singular cell")
)
