// SPDX-License-Identifier: MIT

// Package diffusivity computes the generalized mode-pair diffusivity used by
// the quasi-harmonic Green-Kubo conductivity:
//
//	σ_mn   = 2(b_m + b_n)
//	K_mn   = π·δ(ω_m − ω_n, σ_mn) [+ π·δ(ω_m + ω_n, σ_mn) with antiresonance]
//	D^ab_mn = Re(conj(S^a_mn)·S^b_mn) · K_mn / (4 ω_m ω_n)
//
// with b the per-mode bandwidth and S the flux operator. Pairs involving a
// non-physical mode, or with σ_mn = 0, are zero.
package diffusivity

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/kappa/anharmonic"
	"github.com/katalvlaran/kappa/broadening"
	"github.com/katalvlaran/kappa/harmonic"
	"github.com/katalvlaran/kappa/lazy"
	"github.com/katalvlaran/kappa/logging"
	"github.com/katalvlaran/kappa/tensor"
)

// ErrNoBandwidth indicates that neither diffusivity_bandwidth nor an
// anharmonic engine is available.
var ErrNoBandwidth = errors.New("diffusivity: no bandwidth source")

// Engine computes the diffusivity tensor once per instance.
type Engine struct {
	h     *harmonic.Solver
	an    *anharmonic.Engine
	cache *lazy.Cache
}

// New binds the engine. an may be nil when diffusivity_bandwidth is configured.
func New(h *harmonic.Solver, an *anharmonic.Engine) *Engine {
	return &Engine{h: h, an: an, cache: lazy.New()}
}

// Bandwidth returns b per mode (rad/ps): the configured constant, or Γ/2.
// Modes with Γ at or below anharmonic.Floor get b = 0.
//
// Errors:
//   - anharmonic.ErrMissingData when Γ is needed and no third order exists.
//   - ErrNoBandwidth when Γ is needed and no anharmonic engine was given.
func (e *Engine) Bandwidth() ([]float64, error) {
	return lazy.Get(e.cache, "diffusivity_bandwidth", func() ([]float64, error) {
		cfg := e.h.Config()
		out := make([]float64, e.h.NPhonons())
		if cfg.DiffusivityBandwidth != nil {
			for i := range out {
				out[i] = *cfg.DiffusivityBandwidth
			}

			return out, nil
		}
		if e.an == nil {
			return nil, fmt.Errorf("Bandwidth: %w", ErrNoBandwidth)
		}
		gamma, err := e.an.Bandwidth()
		if err != nil {
			return nil, fmt.Errorf("Bandwidth: %w", err)
		}
		phys, err := e.h.PhysicalModes()
		if err != nil {
			return nil, fmt.Errorf("Bandwidth: %w", err)
		}
		floor := anharmonic.Floor(gamma, phys)
		for i, g := range gamma {
			if g > floor {
				out[i] = g / 2
			}
		}

		return out, nil
	})
}

// Diffusivity returns D in Å²/ps. The storage is sparse when
// Config.SparseDiffusivity holds, keeping only pairs with
// |ω_m − ω_n| < diffusivity_threshold·σ_mn; stored values are identical to the
// dense ones.
func (e *Engine) Diffusivity() (tensor.PairTensor, error) {
	return lazy.Get(e.cache, "diffusivity", e.compute)
}

type entry struct {
	c tensor.Coord
	v tensor.Block
}

func (e *Engine) compute() (tensor.PairTensor, error) {
	cfg := e.h.Config()
	shape, err := cfg.Diffusivity()
	if err != nil {
		return nil, err
	}
	bw, err := e.Bandwidth()
	if err != nil {
		return nil, err
	}
	flux, err := e.h.Flux()
	if err != nil {
		return nil, err
	}
	omega, err := e.h.Omegas()
	if err != nil {
		return nil, err
	}
	phys, err := e.h.PhysicalModes()
	if err != nil {
		return nil, err
	}

	nk, nm := e.h.NKPoints(), e.h.NModes()
	sparse := cfg.SparseDiffusivity()
	threshold := math.Inf(1)
	if sparse {
		threshold = *cfg.DiffusivityThreshold
	}
	kernel := shape.Kernel()
	antiresonant := cfg.IsDiffusivityIncludingAntiresonant
	e.h.Logger().V(logging.DEBUG).Info("computing diffusivity",
		"shape", shape.String(), "sparse", sparse, "antiresonant", antiresonant)

	perK := make([][]entry, nk)
	var g errgroup.Group
	g.SetLimit(cfg.WorkerLimit())
	for k := 0; k < nk; k++ {
		k := k
		g.Go(func() error {
			perK[k] = pairs(k, nm, flux[k], omega, bw, phys, kernel, antiresonant, threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !sparse {
		d, err := tensor.NewDense(nk, nm)
		if err != nil {
			return nil, err
		}
		for _, list := range perK {
			for _, en := range list {
				if err := d.Set(en.c.K, en.c.M, en.c.N, en.v); err != nil {
					return nil, err
				}
			}
		}

		return d, nil
	}

	var (
		coords []tensor.Coord
		values []tensor.Block
	)
	for _, list := range perK {
		for _, en := range list {
			coords = append(coords, en.c)
			values = append(values, en.v)
		}
	}
	e.h.Logger().V(logging.DEBUG).Info("sparse diffusivity", "stored", len(coords), "pairs", nk*nm*nm)

	return tensor.NewSparse(nk, nm, coords, values)
}

// pairs evaluates every physical pair at k whose mismatch lies below threshold·σ.
func pairs(k, nm int, s [3][]complex128, omega, bw []float64, phys []bool,
	kernel broadening.Kernel, antiresonant bool, threshold float64) []entry {
	var out []entry
	base := k * nm
	for m := 0; m < nm; m++ {
		if !phys[base+m] {
			continue
		}
		for n := 0; n < nm; n++ {
			if !phys[base+n] {
				continue
			}
			wm, wn := omega[base+m], omega[base+n]
			sigma := 2 * (bw[base+m] + bw[base+n])
			if !(sigma > 0) {
				continue
			}
			delta := wm - wn
			// Window is threshold·σ_mn, symmetric in m and n, rather than threshold·2π·b_m.
			if !(math.Abs(delta) < threshold*sigma) {
				continue
			}
			weight := math.Pi * kernel(delta, sigma)
			if antiresonant {
				weight += math.Pi * kernel(wm+wn, sigma)
			}
			scale := weight / (4 * wm * wn)

			var v tensor.Block
			idx := m*nm + n
			for a := 0; a < 3; a++ {
				sa := s[a][idx]
				for b := 0; b < 3; b++ {
					sb := s[b][idx]
					// Re(conj(sa)·sb)
					v[a][b] = (real(sa)*real(sb) + imag(sa)*imag(sb)) * scale
				}
			}
			out = append(out, entry{c: tensor.Coord{K: k, M: m, N: n}, v: v})
		}
	}

	return out
}
