// SPDX-License-Identifier: MIT

package anharmonic

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/kappa/backend"
	"github.com/katalvlaran/kappa/broadening"
	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/harmonic"
)

type channel int

const (
	plus channel = iota
	minus
)

// inputs gathers the harmonic data shared by every mode task. Read-only once built.
type inputs struct {
	nk, nm, nA int
	kpts       [3]int
	amorphous  bool

	omega []float64    // rad/ps, flat
	pop   []float64    // flat
	phys  []bool       // flat
	vel   [][3]float64 // Å/ps, flat

	evec     [][]complex128 // per k: e_I(μ)/sqrt(m_i), row-major (I, μ)
	evecConj [][]complex128
	phases   [][]complex128 // per k: χ_r(q_k) = exp(i2π q_k·n_r)

	shape   broadening.Shape
	sigma   float64       // fixed width, rad/ps; 0 selects the adaptive width
	recip   [3][3]float64 // b_i/n_i
	spacing []float64     // amorphous local level spacing, flat
}

func (e *Engine) prepare() (*inputs, error) {
	h := e.h
	cfg := h.Config()
	shape, err := cfg.Broadening()
	if err != nil {
		return nil, err
	}
	es, err := h.Eigensystem()
	if err != nil {
		return nil, err
	}
	omega, err := h.Omegas()
	if err != nil {
		return nil, err
	}
	pop, err := h.Occupations()
	if err != nil {
		return nil, err
	}
	phys, err := h.PhysicalModes()
	if err != nil {
		return nil, err
	}
	vel, err := h.Velocities()
	if err != nil {
		return nil, err
	}

	fc := h.ForceConstants()
	atoms := fc.Atoms()
	in := &inputs{
		nk: h.NKPoints(), nm: h.NModes(), nA: atoms.N(),
		kpts: cfg.Kpts, amorphous: h.IsAmorphous(),
		omega: omega, pop: pop, phys: phys, vel: vel,
		shape: shape,
	}
	if cfg.SigmaIn != nil {
		in.sigma = 2 * math.Pi * *cfg.SigmaIn
	}

	invSqrtMass := make([]float64, in.nA)
	for i := range invSqrtMass {
		invSqrtMass[i] = 1 / math.Sqrt(atoms.Mass(i))
	}
	in.evec = make([][]complex128, in.nk)
	in.evecConj = make([][]complex128, in.nk)
	for k, v := range es.Vectors {
		ev := make([]complex128, len(v))
		evc := make([]complex128, len(v))
		for I := 0; I < in.nm; I++ {
			s := complex(invSqrtMass[I/3], 0)
			for mu := 0; mu < in.nm; mu++ {
				x := v[I*in.nm+mu] * s
				ev[I*in.nm+mu] = x
				evc[I*in.nm+mu] = cmplx.Conj(x)
			}
		}
		in.evec[k], in.evecConj[k] = ev, evc
	}

	nR := fc.SecondOrder().NReplicas()
	kpoints := h.KPoints()
	in.phases = make([][]complex128, in.nk)
	for k, q := range kpoints {
		ph := make([]complex128, nR)
		for r := 0; r < nR; r++ {
			n := fc.ReplicaFractional(r)
			if in.amorphous {
				ph[r] = 1
				continue
			}
			ph[r] = cmplx.Exp(complex(0, 2*math.Pi*(q[0]*n[0]+q[1]*n[1]+q[2]*n[2])))
		}
		in.phases[k] = ph
	}

	for i := 0; i < 3; i++ {
		b := atoms.Reciprocal(i)
		for c := 0; c < 3; c++ {
			in.recip[i][c] = b[c] / float64(in.kpts[i])
		}
	}
	if in.amorphous && in.sigma == 0 {
		in.spacing = levelSpacing(omega, phys)
	}

	return in, nil
}

// levelSpacing returns, for each physical mode, half the gap between its
// physical neighbors (one-sided at the ends). Non-physical modes get 0.
func levelSpacing(omega []float64, phys []bool) []float64 {
	out := make([]float64, len(omega))
	var idx []int
	for i, ok := range phys {
		if ok {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return out
	}
	for p, i := range idx {
		switch p {
		case 0:
			out[i] = omega[idx[1]] - omega[i]
		case len(idx) - 1:
			out[i] = omega[i] - omega[idx[p-1]]
		default:
			out[i] = (omega[idx[p+1]] - omega[idx[p-1]]) / 2
		}
	}

	return out
}

// partner returns k″ = k ± k′ on the mesh.
func (in *inputs) partner(k, kp int, ch channel) int {
	if in.amorphous {
		return 0
	}
	a := harmonic.KPointCoords(in.kpts, k)
	b := harmonic.KPointCoords(in.kpts, kp)
	if ch == minus {
		return harmonic.KPointIndex(in.kpts, a[0]-b[0], a[1]-b[1], a[2]-b[2])
	}

	return harmonic.KPointIndex(in.kpts, a[0]+b[0], a[1]+b[1], a[2]+b[2])
}

// width returns σ (rad/ps) for the pair of flat indices.
func (in *inputs) width(ip, ipp int) float64 {
	switch {
	case in.sigma > 0:
		return in.sigma
	case in.amorphous:
		return (in.spacing[ip] + in.spacing[ipp]) / 2
	}
	var dv [3]float64
	for c := 0; c < 3; c++ {
		dv[c] = in.vel[ip][c] - in.vel[ipp][c]
	}
	sum := 0.0
	for i := 0; i < 3; i++ {
		x := dv[0]*in.recip[i][0] + dv[1]*in.recip[i][1] + dv[2]*in.recip[i][2]
		sum += x * x
	}

	return 2 * math.Pi * math.Sqrt(sum/6)
}

type pair struct {
	ip, ipp    int
	delta, occ float64
	sigma      float64
}

// window lists the physical (μ′, μ″) pairs of (k′, k″) inside the broadening window.
func (in *inputs) window(omega float64, kp, kpp int, ch channel) []pair {
	var out []pair
	nm := in.nm
	for mp := 0; mp < nm; mp++ {
		ip := kp*nm + mp
		if !in.phys[ip] {
			continue
		}
		for mpp := 0; mpp < nm; mpp++ {
			ipp := kpp*nm + mpp
			if !in.phys[ipp] {
				continue
			}
			var delta, occ float64
			if ch == plus {
				delta = omega + in.omega[ip] - in.omega[ipp]
				occ = in.pop[ip] - in.pop[ipp]
			} else {
				delta = omega - in.omega[ip] - in.omega[ipp]
				occ = 0.5 * (1 + in.pop[ip] + in.pop[ipp])
			}
			sigma := in.width(ip, ipp)
			if !broadening.InWindow(delta, sigma) {
				continue
			}
			out = append(out, pair{ip: ip, ipp: ipp, delta: delta, occ: occ, sigma: sigma})
		}
	}

	return out
}

// project returns V[μ′, μ″] for mode μ at k:
//
//	TB[(jβ), μ″] = Σ Φ[I, (r′jβ), (r″kγ)] · e_I(μ) · a(r′) · B_(kγ)(μ″)·conj χ_r″(k″)
//	V = Aᵀ · TB
//
// with a = χ(k′) and A = e(k′) for plus, both conjugated for minus, and B = conj e(k″).
func (e *Engine) project(in *inputs, third *forceconstants.ThirdOrder, k, mu, kp, kpp int, ch channel) (backend.CMatrix, error) {
	nm, nA := in.nm, in.nA
	tb := backend.NewCMatrix(nm, nm)
	ek := in.evec[k]
	bConj := in.evecConj[kpp]
	phA, phB := in.phases[kp], in.phases[kpp]

	third.Each(func(en forceconstants.Entry) {
		eI := ek[en.I*nm+mu]
		if eI == 0 {
			return
		}
		rp, j, beta := forceconstants.SplitIndex(nA, en.J)
		rpp, kk, gamma := forceconstants.SplitIndex(nA, en.K)
		a := phA[rp]
		if ch == minus {
			a = cmplx.Conj(a)
		}
		coef := complex(en.Value, 0) * eI * a * cmplx.Conj(phB[rpp])
		row := tb.Data[(3*j+beta)*nm : (3*j+beta+1)*nm]
		col := bConj[(3*kk+gamma)*nm : (3*kk+gamma+1)*nm]
		for m := range row {
			row[m] += coef * col[m]
		}
	})

	A := in.evec[kp]
	if ch == minus {
		A = in.evecConj[kp]
	}

	return e.h.Backend().Gemm(true, backend.CMatrix{Rows: nm, Cols: nm, Data: A}, tb)
}
