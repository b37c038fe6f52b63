// SPDX-License-Identifier: MIT
// Package harmonic: sentinel errors and non-fatal warnings.

package harmonic

import (
	"errors"
	"fmt"
)

var (
	// ErrKPointOutOfRange indicates a k-point index outside the mesh.
	ErrKPointOutOfRange = errors.New("harmonic: k-point index out of range")

	// ErrModeOutOfRange indicates a branch index outside [0, nModes).
	ErrModeOutOfRange = errors.New("harmonic: mode index out of range")

	// ErrInvalidArgument indicates a bad helper argument (bins, sigma, empty q list).
	ErrInvalidArgument = errors.New("harmonic: invalid argument")
)

// WarningKind classifies a recorded numerical warning.
type WarningKind int

const (
	// Instability marks a negative ω² beyond instability_tolerance.
	Instability WarningKind = iota
	// VelocityResidual marks a non-Hermitian dynamical-matrix derivative beyond
	// velocity_residual_tolerance.
	VelocityResidual
)

func (k WarningKind) String() string {
	switch k {
	case Instability:
		return "numerical-instability"
	case VelocityResidual:
		return "velocity-residual"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a non-fatal numerical condition. Computation continues.
type Warning struct {
	Kind      WarningKind
	KPoint    int
	Magnitude float64
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at k-point %d: %.3e", w.Kind, w.KPoint, w.Magnitude)
}
