// SPDX-License-Identifier: MIT

// Package broadening provides the finite-width substitutes for the Dirac delta
// that enforce approximate energy conservation.
//
// Closed forms, with Δ the frequency mismatch and σ the width (same units):
//   - Gauss:    δ(Δ) = exp(−Δ²/σ²) / sqrt(π σ²)
//   - Lorentz:  δ(Δ) = (σ/2) / (π (Δ² + (σ/2)²))
//   - Triangle: δ(Δ) = (1 − |Δ|/σ) / σ for |Δ| < σ, 0 otherwise
//
// Every kernel integrates to 1 over Δ and tends to δ(Δ) as σ → 0.
package broadening

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DeltaThreshold bounds the mismatch |Δ| < DeltaThreshold·σ for which a kernel
// is evaluated; pairs outside the window are skipped.
const DeltaThreshold = 2.0

// ErrUnknownShape indicates a shape name outside {gauss, lorentz, triangle}.
var ErrUnknownShape = errors.New("broadening: unknown shape")

// Shape selects a kernel.
type Shape int

const (
	Gauss Shape = iota
	Lorentz
	Triangle
)

// Kernel evaluates δ(Δ) for width σ > 0.
type Kernel func(delta, sigma float64) float64

// Parse maps a configuration name to a Shape (case-insensitive).
func Parse(name string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gauss", "gaussian":
		return Gauss, nil
	case "lorentz", "lorentzian":
		return Lorentz, nil
	case "triangle", "triangular":
		return Triangle, nil
	default:
		return 0, fmt.Errorf("Parse(%q): %w", name, ErrUnknownShape)
	}
}

// String returns the canonical configuration name.
func (s Shape) String() string {
	switch s {
	case Gauss:
		return "gauss"
	case Lorentz:
		return "lorentz"
	case Triangle:
		return "triangle"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Kernel returns the pure function for s. Unknown values fall back to Gauss;
// Parse is the only way to obtain a Shape from user input.
func (s Shape) Kernel() Kernel {
	switch s {
	case Lorentz:
		return Lorentzian
	case Triangle:
		return Triangular
	default:
		return Gaussian
	}
}

// Gaussian is the normalized Gaussian with variance σ²/2.
func Gaussian(delta, sigma float64) float64 {
	return 1 / math.Sqrt(math.Pi*sigma*sigma) * math.Exp(-delta*delta/(sigma*sigma))
}

// Lorentzian is the Cauchy distribution with full width σ.
func Lorentzian(delta, sigma float64) float64 {
	half := sigma / 2

	return half / (math.Pi * (delta*delta + half*half))
}

// Triangular is the symmetric triangle of half-base σ.
func Triangular(delta, sigma float64) float64 {
	a := math.Abs(delta)
	if a >= sigma {
		return 0
	}

	return (1 - a/sigma) / sigma
}

// InWindow reports whether the mismatch is close enough to be evaluated.
func InWindow(delta, sigma float64) bool {
	return sigma > 0 && math.Abs(delta) < DeltaThreshold*sigma
}
