// SPDX-License-Identifier: MIT

package harmonic

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/kappa/logging"
)

// tieTolerance groups supercell images whose distances differ by less than this (Å).
const tieTolerance = 1e-6

// term is one weighted (i, r, j) contribution to D(q) and its derivative.
//   - d: Cartesian displacement r_j + R_r (+ image) − r_i, used by the derivative.
//   - n: lattice translation in fractional units, used by the phase exp(i2π q·n).
type term struct {
	i, j, r int
	weight  float64
	d       [3]float64
	n       [3]float64
}

// buildTerms enumerates the non-zero blocks once.
//
// Paths:
//   - amorphous: d is the minimum-image r_j − r_i in the supercell, no phase.
//   - unfolded: every replica contributes with d = r_j + R_r − r_i.
//   - folded (cutoff set): the nearest supercell image(s) within the cutoff contribute,
//     ties sharing the weight equally.
func (s *Solver) buildTerms() []term {
	atoms := s.fc.Atoms()
	second := s.fc.SecondOrder()
	nA, nR := atoms.N(), second.NReplicas()
	sc := second.Supercell()
	lattice := s.fc.SupercellLattice()
	cutoff, folded := s.fc.Cutoff()
	amorphous := s.cfg.IsAmorphous()

	var out []term
	var i, r, j int
	for i = 0; i < nA; i++ {
		ri := atoms.Position(i)
		for r = 0; r < nR; r++ {
			R := second.Replica(r)
			nr := s.fc.ReplicaFractional(r)
			for j = 0; j < nA; j++ {
				if s.blockIsZero(i, r, j) {
					continue
				}
				rj := atoms.Position(j)
				d := [3]float64{rj[0] + R[0] - ri[0], rj[1] + R[1] - ri[1], rj[2] + R[2] - ri[2]}

				switch {
				case amorphous:
					out = append(out, term{i: i, j: j, r: r, weight: 1, d: s.minimumImage(sub(rj, ri)), n: nr})
				case folded:
					out = append(out, foldedTerms(i, j, r, d, nr, lattice, sc, cutoff)...)
				default:
					out = append(out, term{i: i, j: j, r: r, weight: 1, d: d, n: nr})
				}
			}
		}
	}

	return out
}

func (s *Solver) blockIsZero(i, r, j int) bool {
	second := s.fc.SecondOrder()
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			if second.At(i, a, r, j, b) != 0 {
				return false
			}
		}
	}

	return true
}

// foldedTerms returns the tied nearest images of d over T ∈ {−1,0,1}³, or nil
// when the nearest one lies at or beyond the cutoff.
func foldedTerms(i, j, r int, d, nr [3]float64, lattice [3][3]float64, sc [3]int, cutoff float64) []term {
	type image struct {
		d    [3]float64
		t    [3]int
		dist float64
	}
	images := make([]image, 0, 27)
	best := math.Inf(1)
	for t0 := -1; t0 <= 1; t0++ {
		for t1 := -1; t1 <= 1; t1++ {
			for t2 := -1; t2 <= 1; t2++ {
				var dt [3]float64
				for c := 0; c < 3; c++ {
					dt[c] = d[c] + float64(t0)*lattice[0][c] + float64(t1)*lattice[1][c] + float64(t2)*lattice[2][c]
				}
				dist := norm(dt)
				images = append(images, image{d: dt, t: [3]int{t0, t1, t2}, dist: dist})
				if dist < best {
					best = dist
				}
			}
		}
	}
	if best >= cutoff {
		return nil
	}

	var tied []image
	for _, im := range images {
		if im.dist-best < tieTolerance {
			tied = append(tied, im)
		}
	}
	w := 1 / float64(len(tied))
	out := make([]term, 0, len(tied))
	for _, im := range tied {
		n := nr
		for c := 0; c < 3; c++ {
			n[c] += float64(im.t[c] * sc[c])
		}
		out = append(out, term{i: i, j: j, r: r, weight: w, d: im.d, n: n})
	}

	return out
}

// minimumImage wraps v into the supercell spanned by SupercellLattice.
func (s *Solver) minimumImage(v [3]float64) [3]float64 {
	sc := s.fc.SecondOrder().Supercell()
	lattice := s.fc.SupercellLattice()
	f := s.fc.Atoms().Fractional(v)
	var out [3]float64
	for c := 0; c < 3; c++ {
		f[c] /= float64(sc[c])
		f[c] -= math.Round(f[c])
	}
	for c := 0; c < 3; c++ {
		out[c] = f[0]*lattice[0][c] + f[1]*lattice[1][c] + f[2]*lattice[2][c]
	}

	return out
}

func phase(q, n [3]float64) complex128 {
	return cmplx.Exp(complex(0, 2*math.Pi*(q[0]*n[0]+q[1]*n[1]+q[2]*n[2])))
}

// DynamicalMatrix returns D(q) (row-major nModes×nModes, (rad/ps)²) at the
// fractional reciprocal point q. With is_symmetrizing_frequency the Hermitian
// part is returned and the removed residual is logged.
func (s *Solver) DynamicalMatrix(q [3]float64) []complex128 {
	nm := s.nModes
	dm := make([]complex128, nm*nm)
	second := s.fc.SecondOrder()
	var a, b int
	for _, t := range s.terms {
		ph := complex(t.weight, 0) * phase(q, t.n)
		for a = 0; a < 3; a++ {
			for b = 0; b < 3; b++ {
				v := s.dynmat[second.Offset(t.i, a, t.r, t.j, b)]
				dm[(3*t.i+a)*nm+3*t.j+b] += complex(v, 0) * ph
			}
		}
	}
	if isGamma(q) {
		// exp(0) = 1 exactly, drop any rounding in the imaginary part.
		for idx := range dm {
			dm[idx] = complex(real(dm[idx]), 0)
		}
	}
	if s.cfg.IsSymmetrizingFrequency {
		residual := hermitize(dm, nm)
		s.log.V(logging.TRACE).Info("dynamical matrix symmetrized", "q", q, "residual", residual)
	}

	return dm
}

// derivatives returns ∂D/∂q_a = Σ i·d_a·D0·weight·χ for a = x, y, z.
func (s *Solver) derivatives(q [3]float64) [3][]complex128 {
	nm := s.nModes
	var out [3][]complex128
	for c := range out {
		out[c] = make([]complex128, nm*nm)
	}
	second := s.fc.SecondOrder()
	amorphous := s.cfg.IsAmorphous()
	var a, b, c int
	for _, t := range s.terms {
		ph := complex(t.weight, 0)
		if !amorphous {
			ph *= phase(q, t.n)
		}
		for a = 0; a < 3; a++ {
			for b = 0; b < 3; b++ {
				v := complex(s.dynmat[second.Offset(t.i, a, t.r, t.j, b)], 0) * ph
				idx := (3*t.i+a)*nm + 3*t.j + b
				for c = 0; c < 3; c++ {
					out[c][idx] += complex(0, t.d[c]) * v
				}
			}
		}
	}

	return out
}

// hermitize replaces m by (m + mᴴ)/2 in place and returns Σ|m − mᴴ|/2 over all entries.
func hermitize(m []complex128, n int) float64 {
	residual := 0.0
	var i, j int
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			a, b := m[i*n+j], cmplx.Conj(m[j*n+i])
			diff := cmplx.Abs(a - b)
			if i != j {
				diff *= 2
			}
			residual += diff / 2
			avg := (a + b) / 2
			m[i*n+j] = avg
			m[j*n+i] = cmplx.Conj(avg)
		}
	}

	return residual
}

func isGamma(q [3]float64) bool { return q == [3]float64{} }

func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func norm(v [3]float64) float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }
