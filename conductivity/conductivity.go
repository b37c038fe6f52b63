// SPDX-License-Identifier: MIT

package conductivity

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kappa/anharmonic"
	"github.com/katalvlaran/kappa/backend"
	"github.com/katalvlaran/kappa/diffusivity"
	"github.com/katalvlaran/kappa/harmonic"
	"github.com/katalvlaran/kappa/lazy"
	"github.com/katalvlaran/kappa/logging"
	"github.com/katalvlaran/kappa/tensor"
	"github.com/katalvlaran/kappa/units"
)

// DefaultIterations is the SC iteration count used by Compute.
const DefaultIterations = 10

// Result is a conductivity tensor with its per-mode decomposition (flat index).
type Result struct {
	PerMode [][3][3]float64
	Total   [3][3]float64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithIterations sets the SC iteration count used by Compute. Negative values
// are reported by Compute as ErrInvalidIterations.
func WithIterations(n int) Option {
	return func(e *Engine) { e.iterations = n }
}

// Engine computes each method at most once.
type Engine struct {
	h          *harmonic.Solver
	an         *anharmonic.Engine
	diff       *diffusivity.Engine
	cache      *lazy.Cache
	iterations int
}

// New binds the engine. an is needed by RTA, SC and Inverse; diff by QHGK.
func New(h *harmonic.Solver, an *anharmonic.Engine, diff *diffusivity.Engine, opts ...Option) *Engine {
	e := &Engine{h: h, an: an, diff: diff, cache: lazy.New(), iterations: DefaultIterations}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Compute dispatches on m. SC uses the configured iteration count.
func (e *Engine) Compute(m Method) (*Result, error) {
	switch m {
	case RTA:
		return e.RTA()
	case SC:
		return e.SelfConsistent(e.iterations)
	case Inverse:
		return e.Inverse()
	case QHGK:
		return e.QHGK()
	default:
		return nil, fmt.Errorf("Compute(%v): %w", m, ErrUnknownMethod)
	}
}

func (e *Engine) prefactor() float64 {
	v := e.h.ForceConstants().Atoms().Volume()

	return units.ConductivityPrefactor / (v * float64(e.h.NKPoints()))
}

// kinetic gathers c, v, Γ and the physical mask.
type kinetic struct {
	cv    []float64
	vel   [][3]float64
	gamma []float64
	phys  []bool
	floor float64 // anharmonic.Floor over physical modes
}

func (e *Engine) kinetic() (*kinetic, error) {
	if e.an == nil {
		return nil, anharmonic.ErrMissingData
	}
	cv, err := e.h.HeatCapacities()
	if err != nil {
		return nil, err
	}
	vel, err := e.h.Velocities()
	if err != nil {
		return nil, err
	}
	phys, err := e.h.PhysicalModes()
	if err != nil {
		return nil, err
	}
	gamma, err := e.an.Bandwidth()
	if err != nil {
		return nil, err
	}

	return &kinetic{cv: cv, vel: vel, gamma: gamma, phys: phys, floor: anharmonic.Floor(gamma, phys)}, nil
}

// assemble forms κ_μ = pref·c_μ v_μ ⊗ λ_μ.
func (e *Engine) assemble(kin *kinetic, lambda [][3]float64) *Result {
	pref := e.prefactor()
	res := &Result{PerMode: make([][3][3]float64, len(lambda))}
	for mu := range lambda {
		if !kin.phys[mu] {
			continue
		}
		c := pref * kin.cv[mu]
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				res.PerMode[mu][a][b] = c * kin.vel[mu][a] * lambda[mu][b]
			}
		}
	}
	res.Total = total(res.PerMode)

	return res
}

func total(perMode [][3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for _, k := range perMode {
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				out[a][b] += k[a][b]
			}
		}
	}

	return out
}

// relaxed returns λ⁰ = v/Γ on physical modes with Γ above the floor, zero elsewhere.
func relaxed(kin *kinetic) [][3]float64 {
	out := make([][3]float64, len(kin.vel))
	for mu, g := range kin.gamma {
		if !kin.phys[mu] || !(g > kin.floor) {
			continue
		}
		for a := 0; a < 3; a++ {
			out[mu][a] = kin.vel[mu][a] / g
		}
	}

	return out
}

// RTA returns the relaxation-time conductivity.
func (e *Engine) RTA() (*Result, error) {
	return lazy.Get(e.cache, "rta", func() (*Result, error) {
		kin, err := e.kinetic()
		if err != nil {
			return nil, fmt.Errorf("RTA: %w", err)
		}

		return e.assemble(kin, relaxed(kin)), nil
	})
}

// SelfConsistent runs exactly n iterations of λ ← λ⁰ + (1/Γ)·W·λ with
// W = diag(Γ) − Ω on the physical block. n = 0 is the RTA result.
func (e *Engine) SelfConsistent(n int) (*Result, error) {
	if n < 0 {
		return nil, fmt.Errorf("SelfConsistent(%d): %w", n, ErrInvalidIterations)
	}
	if n == 0 {
		return e.RTA()
	}

	return lazy.Get(e.cache, fmt.Sprintf("sc_%d", n), func() (*Result, error) {
		kin, err := e.kinetic()
		if err != nil {
			return nil, fmt.Errorf("SelfConsistent: %w", err)
		}
		omega, index, err := e.an.ScatteringMatrix()
		if err != nil {
			return nil, fmt.Errorf("SelfConsistent: %w", err)
		}
		gamma := gather(kin.gamma, index)
		lambda0 := gatherRows(relaxed(kin), index)
		w := couplings(omega, gamma)
		lambda, growth := iterate(gamma, w, lambda0, n)
		log := e.h.Logger()
		log.V(logging.DEBUG).Info("self-consistent conductivity", "iterations", n, "modes", len(index), "growth", growth)
		if growth > 1 {
			log.V(logging.WARN).Info("self-consistent iteration is not contracting",
				"warning", "sc-divergence", "iterations", n, "growth", growth)
		}

		return e.assemble(kin, scatter(lambda, index, len(kin.vel))), nil
	})
}

// Inverse solves Ω·λ = v through the backend on the physical modes whose Γ
// is above anharmonic.Floor. Modes that do not scatter keep λ = 0, as in RTA.
func (e *Engine) Inverse() (*Result, error) {
	return lazy.Get(e.cache, "inverse", func() (*Result, error) {
		kin, err := e.kinetic()
		if err != nil {
			return nil, fmt.Errorf("Inverse: %w", err)
		}
		omega, index, err := e.an.ScatteringMatrix()
		if errors.Is(err, anharmonic.ErrNoPhysicalModes) {
			return nil, fmt.Errorf("Inverse: %w: %w", ErrSingularSystem, err)
		}
		if err != nil {
			return nil, fmt.Errorf("Inverse: %w", err)
		}
		omega, index = relaxing(omega, index, kin.gamma, kin.floor)
		if len(index) == 0 {
			return nil, fmt.Errorf("Inverse: no mode with Γ > 0: %w", ErrSingularSystem)
		}
		v := gatherRows(kin.vel, index)
		lambda, err := solve(e.h.Backend(), omega, v)
		if err != nil {
			return nil, fmt.Errorf("Inverse: %w", err)
		}

		return e.assemble(kin, scatter(lambda, index, len(kin.vel))), nil
	})
}

// QHGK returns Σ_k Σ_mn c_mn D_mn, attributed to mode m.
func (e *Engine) QHGK() (*Result, error) {
	return lazy.Get(e.cache, "qhgk", func() (*Result, error) {
		if e.diff == nil {
			return nil, fmt.Errorf("QHGK: %w", diffusivity.ErrNoBandwidth)
		}
		d, err := e.diff.Diffusivity()
		if err != nil {
			return nil, fmt.Errorf("QHGK: %w", err)
		}
		nm := e.h.NModes()
		pref := e.prefactor()
		res := &Result{PerMode: make([][3][3]float64, e.h.NPhonons())}
		var cerr error
		d.Each(func(c tensor.Coord, v tensor.Block) {
			if cerr != nil {
				return
			}
			cmn, err := e.h.GeneralizedHeatCapacity(c.K, c.M, c.N)
			if err != nil {
				cerr = err
				return
			}
			if cmn == 0 {
				return
			}
			mu := c.K*nm + c.M
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					res.PerMode[mu][a][b] += pref * cmn * v[a][b]
				}
			}
		})
		if cerr != nil {
			return nil, fmt.Errorf("QHGK: %w", cerr)
		}
		res.Total = total(res.PerMode)

		return res, nil
	})
}

func gather(x []float64, index []int) []float64 {
	out := make([]float64, len(index))
	for a, i := range index {
		out[a] = x[i]
	}

	return out
}

// gatherRows packs the indexed vectors into an len(index)×3 matrix.
func gatherRows(x [][3]float64, index []int) *mat.Dense {
	out := mat.NewDense(len(index), 3, nil)
	for a, i := range index {
		out.SetRow(a, x[i][:])
	}

	return out
}

func scatter(m *mat.Dense, index []int, n int) [][3]float64 {
	out := make([][3]float64, n)
	for a, i := range index {
		for c := 0; c < 3; c++ {
			out[i][c] = m.At(a, c)
		}
	}

	return out
}

// relaxing drops the rows and columns of modes with Γ ≤ floor.
func relaxing(omega *mat.Dense, index []int, gamma []float64, floor float64) (*mat.Dense, []int) {
	var keep []int
	for a, i := range index {
		if gamma[i] > floor {
			keep = append(keep, a)
		}
	}
	if len(keep) == len(index) || len(keep) == 0 {
		return omega, subset(index, keep)
	}
	out := mat.NewDense(len(keep), len(keep), nil)
	for r, a := range keep {
		for c, b := range keep {
			out.Set(r, c, omega.At(a, b))
		}
	}

	return out, subset(index, keep)
}

func subset(index, keep []int) []int {
	out := make([]int, len(keep))
	for r, a := range keep {
		out[r] = index[a]
	}

	return out
}

// couplings returns W = diag(Γ) − Ω.
func couplings(omega *mat.Dense, gamma []float64) *mat.Dense {
	w := mat.NewDense(len(gamma), len(gamma), nil)
	w.Scale(-1, omega)
	for a, g := range gamma {
		w.Set(a, a, w.At(a, a)+g)
	}

	return w
}

// iterate runs λ ← λ⁰ + (1/Γ)·W·λ n times starting from λ⁰. Rows with
// Γ ≤ anharmonic.Floor stay zero. growth is ‖λₙ − λₙ₋₁‖/‖λ₁ − λ₀‖,
// zero when n = 0 or the first step vanishes.
func iterate(gamma []float64, w, lambda0 *mat.Dense, n int) (lambda *mat.Dense, growth float64) {
	floor := anharmonic.Floor(gamma, nil)
	rows, _ := lambda0.Dims()
	lambda = mat.DenseCopyOf(lambda0)
	var wl, step mat.Dense
	var first, last float64
	for it := 0; it < n; it++ {
		wl.Mul(w, lambda)
		next := mat.NewDense(rows, 3, nil)
		for a := 0; a < rows; a++ {
			if !(gamma[a] > floor) {
				continue
			}
			for c := 0; c < 3; c++ {
				next.Set(a, c, lambda0.At(a, c)+wl.At(a, c)/gamma[a])
			}
		}
		step.Sub(next, lambda)
		last = mat.Norm(&step, 2)
		if it == 0 {
			first = last
		}
		lambda = next
		step.Reset()
	}
	if first > 0 {
		growth = last / first
	}

	return lambda, growth
}

// solve returns Ω⁻¹·v.
func solve(be backend.Backend, omega, v *mat.Dense) (*mat.Dense, error) {
	inv, err := be.Invert(omega)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingularSystem, err)
	}
	var out mat.Dense
	out.Mul(inv, v)

	return &out, nil
}
