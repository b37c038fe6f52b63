// SPDX-License-Identifier: MIT

package harmonic

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/kappa/lazy"
	"github.com/katalvlaran/kappa/logging"
)

// Eigensystem holds, per k-point, ω² in ascending order ((rad/ps)²) and the
// eigenvectors as the columns of a row-major nModes×nModes matrix.
type Eigensystem struct {
	Values  [][]float64
	Vectors [][]complex128
}

// eigen diagonalizes D(q): the real symmetric solver at Γ, the Hermitian one elsewhere.
func (s *Solver) eigen(q [3]float64) ([]float64, []complex128, error) {
	nm := s.nModes
	dm := s.DynamicalMatrix(q)
	if isGamma(q) {
		re := make([]float64, nm*nm)
		for i, v := range dm {
			re[i] = real(v)
		}
		vals, vecs, err := s.be.EigenSym(re, nm)
		if err != nil {
			return nil, nil, err
		}
		cv := make([]complex128, len(vecs))
		for i, v := range vecs {
			cv[i] = complex(v, 0)
		}

		return vals, cv, nil
	}

	return s.be.EigenHermitian(dm, nm)
}

// forEachK runs fn for every mesh point with the configured parallelism.
// Each call must write only its own k slot.
func (s *Solver) forEachK(fn func(k int) error) error {
	var g errgroup.Group
	g.SetLimit(s.cfg.WorkerLimit())
	for k := range s.kpts {
		k := k
		g.Go(func() error { return fn(k) })
	}

	return g.Wait()
}

// Eigensystem diagonalizes the dynamical matrix at every mesh point.
// Negative ω² below −instability_tolerance are recorded as Instability warnings.
func (s *Solver) Eigensystem() (*Eigensystem, error) {
	return lazy.Get(s.cache, "eigensystem", func() (*Eigensystem, error) {
		s.log.V(logging.DEBUG).Info("diagonalizing dynamical matrices", "kpoints", len(s.kpts))
		es := &Eigensystem{
			Values:  make([][]float64, len(s.kpts)),
			Vectors: make([][]complex128, len(s.kpts)),
		}
		err := s.forEachK(func(k int) error {
			vals, vecs, err := s.eigen(s.kpts[k])
			if err != nil {
				return fmt.Errorf("Eigensystem: k-point %d: %w", k, err)
			}
			es.Values[k], es.Vectors[k] = vals, vecs

			return nil
		})
		if err != nil {
			return nil, err
		}
		for k, vals := range es.Values {
			if worst := vals[0]; worst < -s.cfg.InstabilityTolerance {
				s.warn(Warning{Kind: Instability, KPoint: k, Magnitude: -worst})
			}
		}

		return es, nil
	})
}

// Frequencies returns sign(ω²)·sqrt(|ω²|)/2π in THz, flat index k·nModes + branch.
func (s *Solver) Frequencies() ([]float64, error) {
	return lazy.Get(s.cache, "frequency", func() ([]float64, error) {
		es, err := s.Eigensystem()
		if err != nil {
			return nil, err
		}
		out := make([]float64, 0, s.NPhonons())
		for _, vals := range es.Values {
			out = append(out, toFrequencies(vals)...)
		}

		return out, nil
	})
}

func toFrequencies(omega2 []float64) []float64 {
	out := make([]float64, len(omega2))
	for i, w2 := range omega2 {
		f := math.Sqrt(math.Abs(w2)) / (2 * math.Pi)
		if w2 < 0 {
			f = -f
		}
		out[i] = f
	}

	return out
}

// Omegas returns the angular frequencies 2π·f (rad/ps), flat.
func (s *Solver) Omegas() ([]float64, error) {
	f, err := s.Frequencies()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = 2 * math.Pi * v
	}

	return out, nil
}
