// SPDX-License-Identifier: MIT

package harmonic

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/kappa/broadening"
)

// Observables returns frequencies (THz) and group velocities (Å/ps) at arbitrary
// fractional q-points, e.g. along a band path. Mesh caches are not touched and
// no warnings are recorded.
func (s *Solver) Observables(qs [][3]float64) ([][]float64, [][][3]float64, error) {
	if len(qs) == 0 {
		return nil, nil, fmt.Errorf("Observables: empty q list: %w", ErrInvalidArgument)
	}
	freqs := make([][]float64, len(qs))
	vels := make([][][3]float64, len(qs))
	for i, q := range qs {
		vals, vecs, err := s.eigen(q)
		if err != nil {
			return nil, nil, fmt.Errorf("Observables: q %v: %w", q, err)
		}
		flux, _, err := s.flux(s.derivatives(q), vecs)
		if err != nil {
			return nil, nil, fmt.Errorf("Observables: q %v: %w", q, err)
		}
		freqs[i] = toFrequencies(vals)
		vels[i] = make([][3]float64, s.nModes)
		fillVelocities(vels[i], flux, freqs[i], s.nModes)
	}

	return freqs, vels, nil
}

// DensityOfStates returns a Gaussian-smeared phonon DOS over the mesh: bins
// frequencies (THz) spanning [min f − 3σ, max f + 3σ] and the states per THz
// per k-point, which integrate to NModes.
func (s *Solver) DensityOfStates(bins int, sigma float64) ([]float64, []float64, error) {
	if bins < 2 || !(sigma > 0) {
		return nil, nil, fmt.Errorf("DensityOfStates(%d, %g): %w", bins, sigma, ErrInvalidArgument)
	}
	freq, err := s.Frequencies()
	if err != nil {
		return nil, nil, err
	}
	grid := make([]float64, bins)
	floats.Span(grid, floats.Min(freq)-3*sigma, floats.Max(freq)+3*sigma)
	dos := make([]float64, bins)
	norm := 1 / float64(len(s.kpts))
	for b, nu := range grid {
		for _, f := range freq {
			dos[b] += broadening.Gaussian(nu-f, sigma)
		}
		dos[b] *= norm
	}

	return grid, dos, nil
}
