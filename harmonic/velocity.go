// SPDX-License-Identifier: MIT

package harmonic

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/katalvlaran/kappa/backend"
	"github.com/katalvlaran/kappa/lazy"
	"github.com/katalvlaran/kappa/logging"
)

// Derivatives holds ∂D/∂q_a per k-point: Derivatives[k][a] is row-major nModes×nModes.
type Derivatives [][3][]complex128

// Flux holds S_a = Vᴴ·(∂D/∂q_a)·V per k-point, same layout as Derivatives.
type Flux [][3][]complex128

// DynmatDerivatives returns ∂D/∂q_a at every mesh point ((rad/ps)²·Å).
func (s *Solver) DynmatDerivatives() (Derivatives, error) {
	return lazy.Get(s.cache, "dynmat_derivatives", func() (Derivatives, error) {
		if _, folded := s.fc.Cutoff(); folded {
			s.log.V(logging.DEBUG).Info("using folded flux operators")
		}
		out := make(Derivatives, len(s.kpts))
		err := s.forEachK(func(k int) error {
			out[k] = s.derivatives(s.kpts[k])

			return nil
		})

		return out, err
	})
}

// Flux returns the flux operators on the mesh. With is_antisymmetrizing_velocity
// each derivative is first projected on its Hermitian part; the removed residual
// ‖G − Gᴴ‖/2 is logged and recorded as a warning above velocity_residual_tolerance.
func (s *Solver) Flux() (Flux, error) {
	return lazy.Get(s.cache, "flux", func() (Flux, error) {
		es, err := s.Eigensystem()
		if err != nil {
			return nil, err
		}
		ddyn, err := s.DynmatDerivatives()
		if err != nil {
			return nil, err
		}
		out := make(Flux, len(s.kpts))
		residuals := make([]float64, len(s.kpts))
		err = s.forEachK(func(k int) error {
			sk, res, ferr := s.flux(ddyn[k], es.Vectors[k])
			if ferr != nil {
				return fmt.Errorf("Flux: k-point %d: %w", k, ferr)
			}
			out[k], residuals[k] = sk, res

			return nil
		})
		if err != nil {
			return nil, err
		}
		if s.cfg.IsAntisymmetrizingVelocity {
			total := 0.0
			for k, res := range residuals {
				total += res * res
				if res > s.cfg.VelocityResidualTolerance {
					s.warn(Warning{Kind: VelocityResidual, KPoint: k, Magnitude: res})
				}
			}
			s.log.V(logging.DEBUG).Info("velocity anti-symmetrization error", "error", math.Sqrt(total))
		}

		return out, nil
	})
}

// flux projects one k-point. The derivative is copied before symmetrization.
func (s *Solver) flux(g [3][]complex128, vecs []complex128) ([3][]complex128, float64, error) {
	nm := s.nModes
	var out [3][]complex128
	v := backend.CMatrix{Rows: nm, Cols: nm, Data: vecs}
	vConj := backend.NewCMatrix(nm, nm)
	for i, x := range vecs {
		vConj.Data[i] = cmplx.Conj(x)
	}

	residual := 0.0
	for a := 0; a < 3; a++ {
		ga := append([]complex128(nil), g[a]...)
		if s.cfg.IsAntisymmetrizingVelocity {
			residual += hermitianResidual(ga, nm)
			hermitize(ga, nm)
		}
		gv, err := s.be.Gemm(false, backend.CMatrix{Rows: nm, Cols: nm, Data: ga}, v)
		if err != nil {
			return out, 0, err
		}
		sa, err := s.be.Gemm(true, vConj, gv)
		if err != nil {
			return out, 0, err
		}
		out[a] = sa.Data
	}

	return out, math.Sqrt(residual) / 2, nil
}

// hermitianResidual returns Σ|m − mᴴ|² (squared Frobenius norm).
func hermitianResidual(m []complex128, n int) float64 {
	sum := 0.0
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			d := cmplx.Abs(m[i*n+j] - cmplx.Conj(m[j*n+i]))
			sum += d * d
		}
	}

	return sum
}

// Velocities returns the group velocities v_μ = Re(S_μμ)/(2ω_μ) in Å/ps, flat index.
// Modes with ω ≤ 0 get zero velocity.
func (s *Solver) Velocities() ([][3]float64, error) {
	return lazy.Get(s.cache, "velocity", func() ([][3]float64, error) {
		flux, err := s.Flux()
		if err != nil {
			return nil, err
		}
		freq, err := s.Frequencies()
		if err != nil {
			return nil, err
		}
		out := make([][3]float64, s.NPhonons())
		for k := range s.kpts {
			fillVelocities(out[k*s.nModes:(k+1)*s.nModes], flux[k], freq[k*s.nModes:(k+1)*s.nModes], s.nModes)
		}

		return out, nil
	})
}

func fillVelocities(dst [][3]float64, flux [3][]complex128, freq []float64, nm int) {
	for mu := 0; mu < nm; mu++ {
		omega := 2 * math.Pi * freq[mu]
		if omega <= 0 {
			continue
		}
		for a := 0; a < 3; a++ {
			dst[mu][a] = real(flux[a][mu*nm+mu]) / (2 * omega)
		}
	}
}
