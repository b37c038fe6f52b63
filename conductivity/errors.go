// SPDX-License-Identifier: MIT
// Package conductivity: sentinel errors.

package conductivity

import "errors"

var (
	// ErrSingularSystem indicates that the inverse method cannot solve Ω·λ = v:
	// no physical modes, or a singular scattering matrix.
	ErrSingularSystem = errors.New("conductivity: singular scattering system")

	// ErrUnknownMethod indicates a method name or value outside {rta, sc, inverse, qhgk}.
	ErrUnknownMethod = errors.New("conductivity: unknown method")

	// ErrInvalidIterations indicates a negative self-consistent iteration count.
	ErrInvalidIterations = errors.New("conductivity: iterations must be >= 0")
)
