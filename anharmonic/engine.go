// SPDX-License-Identifier: MIT

// Package anharmonic computes three-phonon scattering: per-mode phase space P,
// bandwidth Γ and, on request, the full mode-to-mode scattering tensor.
//
// For every physical mode μ at k-point k the engine sums over k′ and both
// channels:
//   - plus:  k″ = k + k′, ω + ω′ = ω″, occupation n′ − n″;
//   - minus: k″ = k − k′, ω = ω′ + ω″, occupation ½(1 + n′ + n″).
//
// Each ordered pair of physical modes (μ′, μ″) whose mismatch lies inside the
// broadening window contributes
//
//	Γ_μ += GammaToTHz·(π/4)/(N_k ω) · |V|²/(ω′ω″) · occ · δ(Δω, σ)
//	P_μ += 1/(N_k ω) · occ · δ(Δω, σ)/(ω′ω″)
//
// where V is the third order projected on mass-rescaled eigenvectors.
package anharmonic

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/harmonic"
	"github.com/katalvlaran/kappa/lazy"
	"github.com/katalvlaran/kappa/logging"
	"github.com/katalvlaran/kappa/units"
)

// Result holds per-mode scattering quantities, flat index k·nModes + branch.
// Non-physical modes are exact zeros.
type Result struct {
	PhaseSpace []float64 // P, (rad/ps)⁻⁴
	Bandwidth  []float64 // Γ, rad/ps

	// Tensor is the n_phonons × n_phonons scattering tensor, nil unless requested.
	Tensor *mat.Dense
}

// Reduced returns the n_phonons × 2 matrix with columns [P, Γ].
func (r *Result) Reduced() *mat.Dense {
	out := mat.NewDense(len(r.Bandwidth), 2, nil)
	for i := range r.Bandwidth {
		out.Set(i, 0, r.PhaseSpace[i])
		out.Set(i, 1, r.Bandwidth[i])
	}

	return out
}

// RelaxationTolerance is the fraction of the largest physical Γ at or below
// which a mode counts as non-scattering. Couplings that vanish by symmetry
// leave Γ at roundoff level.
const RelaxationTolerance = 1e-12

// Floor returns RelaxationTolerance times the largest Γ over the modes
// selected by phys, or over all modes when phys is nil.
func Floor(gamma []float64, phys []bool) float64 {
	var gmax float64
	for i, g := range gamma {
		if phys != nil && !phys[i] {
			continue
		}
		gmax = math.Max(gmax, g)
	}

	return RelaxationTolerance * gmax
}

// Engine evaluates scattering on top of a harmonic solver.
type Engine struct {
	h     *harmonic.Solver
	cache *lazy.Cache
}

// New binds an engine to h. The third order is checked on first use, so an
// engine over harmonic-only force constants is valid until scattering is requested.
func New(h *harmonic.Solver) *Engine {
	return &Engine{h: h, cache: lazy.New()}
}

// Harmonic returns the underlying solver.
func (e *Engine) Harmonic() *harmonic.Solver { return e.h }

// thirdOrder returns the (optionally momentum-conserving) third order.
func (e *Engine) thirdOrder() (*forceconstants.ThirdOrder, error) {
	return lazy.Get(e.cache, "third_order", func() (*forceconstants.ThirdOrder, error) {
		fc := e.h.ForceConstants()
		if e.h.Config().IsConservingMomentum {
			var err error
			if fc, err = fc.ConserveMomentum(); err != nil {
				return nil, err
			}
		}
		third, err := fc.ThirdOrder()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingData, err)
		}

		return third, nil
	})
}

// Scattering returns P and Γ for every mode and, when fullTensor is set, the
// scattering tensor. P and Γ are bit-identical in both cases.
func (e *Engine) Scattering(fullTensor bool) (*Result, error) {
	if fullTensor || e.cache.Has("scattering_tensor") {
		return lazy.Get(e.cache, "scattering_tensor", func() (*Result, error) { return e.compute(true) })
	}

	return lazy.Get(e.cache, "scattering", func() (*Result, error) { return e.compute(false) })
}

// Bandwidth returns Γ (rad/ps), flat index.
func (e *Engine) Bandwidth() ([]float64, error) {
	r, err := e.Scattering(false)
	if err != nil {
		return nil, err
	}

	return r.Bandwidth, nil
}

// PhaseSpace returns P, flat index.
func (e *Engine) PhaseSpace() ([]float64, error) {
	r, err := e.Scattering(false)
	if err != nil {
		return nil, err
	}

	return r.PhaseSpace, nil
}

// ScatteringMatrix returns Ω = diag(Γ) − diag(1/f)·T·diag(f) restricted to the
// physical modes, together with the flat index of each row.
//
// Errors:
//   - ErrMissingData without a third order.
//   - ErrNoPhysicalModes when every mode is masked.
func (e *Engine) ScatteringMatrix() (*mat.Dense, []int, error) {
	r, err := e.Scattering(true)
	if err != nil {
		return nil, nil, err
	}
	freq, err := e.h.Frequencies()
	if err != nil {
		return nil, nil, err
	}
	phys, err := e.h.PhysicalModes()
	if err != nil {
		return nil, nil, err
	}
	var index []int
	for i, ok := range phys {
		if ok {
			index = append(index, i)
		}
	}
	if len(index) == 0 {
		return nil, nil, fmt.Errorf("ScatteringMatrix: %w", ErrNoPhysicalModes)
	}

	omega := mat.NewDense(len(index), len(index), nil)
	for a, ia := range index {
		for b, ib := range index {
			v := -r.Tensor.At(ia, ib) * freq[ib] / freq[ia]
			if a == b {
				v += r.Bandwidth[ia]
			}
			omega.Set(a, b, v)
		}
	}

	return omega, index, nil
}

// compute runs the per-mode loop.
func (e *Engine) compute(full bool) (*Result, error) {
	third, err := e.thirdOrder()
	if err != nil {
		return nil, fmt.Errorf("Scattering: %w", err)
	}
	in, err := e.prepare()
	if err != nil {
		return nil, fmt.Errorf("Scattering: %w", err)
	}

	nph := in.nk * in.nm
	res := &Result{PhaseSpace: make([]float64, nph), Bandwidth: make([]float64, nph)}
	if full {
		res.Tensor = mat.NewDense(nph, nph, nil)
	}
	log := e.h.Logger()
	log.V(logging.DEBUG).Info("projecting third order",
		"phonons", nph, "entries", third.Len(), "full_tensor", full, "shape", in.shape.String(), "adaptive_sigma", in.sigma == 0)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(e.h.Config().WorkerLimit())
	for idx := 0; idx < nph; idx++ {
		if !in.phys[idx] {
			continue
		}
		idx := idx
		g.Go(func() error {
			var row []float64
			if full {
				row = make([]float64, nph)
			}
			ps, gamma, err := e.mode(in, third, idx/in.nm, idx%in.nm, row)
			if err != nil {
				return fmt.Errorf("Scattering: mode %d: %w", idx, err)
			}
			res.PhaseSpace[idx], res.Bandwidth[idx] = ps, gamma
			if full {
				res.Tensor.SetRow(idx, row)
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.V(logging.DEBUG).Info("scattering done", "elapsed", time.Since(start).String())

	return res, nil
}

// mode accumulates P and Γ for one physical mode; row, when non-nil, receives
// its tensor row. Accumulation order is fixed: k′, plus before minus, μ′, μ″.
func (e *Engine) mode(in *inputs, third *forceconstants.ThirdOrder, k, mu int, row []float64) (float64, float64, error) {
	nm := in.nm
	omega := in.omega[k*nm+mu]
	pref := 1 / (float64(in.nk) * omega)
	gammaPref := units.GammaToTHz * math.Pi / 4 * pref
	kernel := in.shape.Kernel()

	var ps, gamma float64
	for kp := 0; kp < in.nk; kp++ {
		for _, ch := range []channel{plus, minus} {
			kpp := in.partner(k, kp, ch)
			pairs := in.window(omega, kp, kpp, ch)
			if len(pairs) == 0 {
				continue
			}
			v, err := e.project(in, third, k, mu, kp, kpp, ch)
			if err != nil {
				return 0, 0, err
			}
			for _, p := range pairs {
				d := kernel(p.delta, p.sigma) / (in.omega[p.ip] * in.omega[p.ipp])
				ps += p.occ * d
				amp := v.Data[(p.ip-kp*nm)*nm+(p.ipp-kpp*nm)]
				w := (real(amp)*real(amp) + imag(amp)*imag(amp)) * p.occ * d
				gamma += w
				if row != nil {
					w *= gammaPref
					if ch == plus {
						row[p.ip] -= w
					} else {
						row[p.ip] += w
					}
					row[p.ipp] += w
				}
			}
		}
	}

	return ps * pref, gamma * gammaPref, nil
}
