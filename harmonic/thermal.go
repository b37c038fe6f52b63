// SPDX-License-Identifier: MIT

package harmonic

import (
	"fmt"
	"math"

	"github.com/katalvlaran/kappa/lazy"
	"github.com/katalvlaran/kappa/units"
)

// degenerateRelTol decides when two frequencies are equal for the generalized heat capacity.
const degenerateRelTol = 1e-12

// PhysicalModes returns the mask of modes kept in scattering and conductivity:
//   - f > frequency_threshold, and inside [min_frequency, max_frequency] when set;
//   - the first 3 (4 with is_nw) branches at Γ (k = 0) are always excluded.
func (s *Solver) PhysicalModes() ([]bool, error) {
	return lazy.Get(s.cache, "physical_mode", func() ([]bool, error) {
		freq, err := s.Frequencies()
		if err != nil {
			return nil, err
		}
		out := make([]bool, len(freq))
		for i, f := range freq {
			ok := f > s.cfg.FrequencyThreshold
			if s.cfg.MinFrequency != nil {
				ok = ok && f > *s.cfg.MinFrequency
			}
			if s.cfg.MaxFrequency != nil {
				ok = ok && f < *s.cfg.MaxFrequency
			}
			out[i] = ok
		}
		acoustic := 3
		if s.cfg.IsNW {
			acoustic = 4
		}
		for mu := 0; mu < acoustic && mu < s.nModes; mu++ {
			out[mu] = false
		}

		return out, nil
	})
}

// reducedTemperature returns k_B·T/h in THz.
func (s *Solver) reducedTemperature() float64 {
	return s.cfg.Temperature * units.KelvinToTHz
}

// Occupations returns Bose–Einstein 1/(exp(f/t) − 1), or t/f with is_classic,
// zero for non-physical modes.
func (s *Solver) Occupations() ([]float64, error) {
	return lazy.Get(s.cache, "population", func() ([]float64, error) {
		freq, err := s.Frequencies()
		if err != nil {
			return nil, err
		}
		phys, err := s.PhysicalModes()
		if err != nil {
			return nil, err
		}
		t := s.reducedTemperature()
		out := make([]float64, len(freq))
		for i, f := range freq {
			if !phys[i] {
				continue
			}
			out[i] = occupation(f, t, s.cfg.IsClassic)
		}

		return out, nil
	})
}

func occupation(f, t float64, classic bool) float64 {
	if classic {
		return t / f
	}

	return 1 / math.Expm1(f/t)
}

// HeatCapacities returns the per-mode heat capacity in J/K:
// k_B·(f/t)²·n(n+1), or k_B with is_classic; zero for non-physical modes.
func (s *Solver) HeatCapacities() ([]float64, error) {
	return lazy.Get(s.cache, "heat_capacity", func() ([]float64, error) {
		freq, err := s.Frequencies()
		if err != nil {
			return nil, err
		}
		pop, err := s.Occupations()
		if err != nil {
			return nil, err
		}
		phys, err := s.PhysicalModes()
		if err != nil {
			return nil, err
		}
		t := s.reducedTemperature()
		out := make([]float64, len(freq))
		for i, f := range freq {
			if !phys[i] {
				continue
			}
			if s.cfg.IsClassic {
				out[i] = units.KelvinToJoule
				continue
			}
			x := f / t
			out[i] = units.KelvinToJoule * x * x * pop[i] * (pop[i] + 1)
		}

		return out, nil
	})
}

// GeneralizedHeatCapacity returns c_mn at k-point k (J/K):
//
//	c_mn = k_B·f_m·f_n/t·(n_n − n_m)/(f_m − f_n)
//
// reducing to the heat capacity of m when f_m = f_n, and to k_B with is_classic.
// Pairs involving a non-physical mode give 0.
func (s *Solver) GeneralizedHeatCapacity(k, m, n int) (float64, error) {
	if k < 0 || k >= len(s.kpts) {
		return 0, fmt.Errorf("GeneralizedHeatCapacity(%d): %w", k, ErrKPointOutOfRange)
	}
	if m < 0 || m >= s.nModes || n < 0 || n >= s.nModes {
		return 0, fmt.Errorf("GeneralizedHeatCapacity(%d,%d): %w", m, n, ErrModeOutOfRange)
	}
	freq, err := s.Frequencies()
	if err != nil {
		return 0, err
	}
	pop, err := s.Occupations()
	if err != nil {
		return 0, err
	}
	cv, err := s.HeatCapacities()
	if err != nil {
		return 0, err
	}
	phys, err := s.PhysicalModes()
	if err != nil {
		return 0, err
	}
	im, in := k*s.nModes+m, k*s.nModes+n
	if !phys[im] || !phys[in] {
		return 0, nil
	}
	if s.cfg.IsClassic {
		return units.KelvinToJoule, nil
	}
	fm, fn := freq[im], freq[in]
	if math.Abs(fm-fn) <= degenerateRelTol*math.Max(math.Abs(fm), math.Abs(fn)) {
		return cv[im], nil
	}
	t := s.reducedTemperature()

	return units.KelvinToJoule * fm * fn / t * (pop[in] - pop[im]) / (fm - fn), nil
}
