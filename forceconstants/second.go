// SPDX-License-Identifier: MIT

package forceconstants

import (
	"fmt"
	"math"

	"github.com/katalvlaran/kappa/units"
)

// replicaMatchTol is the distance (Å) under which two replica vectors are the same.
const replicaMatchTol = 1e-6

// SecondOrder is the raw harmonic operator D0[i,α,r,j,β] in eV/Å².
// Atom i sits in the central cell, atom j in replica r (lattice vector R_r).
//
// Layout: offset = (((i*3+α)*nReplicas + r)*nAtoms + j)*3 + β.
type SecondOrder struct {
	nAtoms    int
	replicas  [][3]float64
	supercell [3]int
	values    []float64
}

// NewSecondOrder validates and copies a second-order buffer.
//
// Errors:
//   - ErrShape (counts or len(values) inconsistent), ErrNonFinite.
func NewSecondOrder(nAtoms int, replicas [][3]float64, supercell [3]int, values []float64) (*SecondOrder, error) {
	if nAtoms <= 0 || len(replicas) == 0 {
		return nil, fmt.Errorf("NewSecondOrder: %w", ErrShape)
	}
	for i, s := range supercell {
		if s <= 0 {
			return nil, fmt.Errorf("NewSecondOrder: supercell[%d]=%d: %w", i, s, ErrShape)
		}
	}
	want := 9 * nAtoms * nAtoms * len(replicas)
	if len(values) != want {
		return nil, fmt.Errorf("NewSecondOrder: %d values, want %d: %w", len(values), want, ErrShape)
	}
	for idx, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("NewSecondOrder: value %d: %w", idx, ErrNonFinite)
		}
	}
	for r, rv := range replicas {
		for _, x := range rv {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("NewSecondOrder: replica %d: %w", r, ErrNonFinite)
			}
		}
	}

	s := &SecondOrder{
		nAtoms:    nAtoms,
		replicas:  make([][3]float64, len(replicas)),
		supercell: supercell,
		values:    make([]float64, len(values)),
	}
	copy(s.replicas, replicas)
	copy(s.values, values)

	return s, nil
}

// NAtoms returns the number of atoms in the central cell.
func (s *SecondOrder) NAtoms() int { return s.nAtoms }

// NReplicas returns the number of periodic images.
func (s *SecondOrder) NReplicas() int { return len(s.replicas) }

// Replica returns the lattice vector R_r (Å).
func (s *SecondOrder) Replica(r int) [3]float64 { return s.replicas[r] }

// Replicas returns a copy of every R_r.
func (s *SecondOrder) Replicas() [][3]float64 {
	out := make([][3]float64, len(s.replicas))
	copy(out, s.replicas)

	return out
}

// Supercell returns the supercell multiplicities used to generate the replicas.
func (s *SecondOrder) Supercell() [3]int { return s.supercell }

// Offset returns the flat offset of D0[i,α,r,j,β].
func (s *SecondOrder) Offset(i, a, r, j, b int) int {
	return (((i*3+a)*len(s.replicas)+r)*s.nAtoms+j)*3 + b
}

// At returns D0[i,α,r,j,β] in eV/Å².
func (s *SecondOrder) At(i, a, r, j, b int) float64 {
	return s.values[s.Offset(i, a, r, j, b)]
}

// DynMat returns the mass-weighted operator D0/sqrt(m_i m_j) in (rad/ps)²,
// same layout as the raw buffer.
func (s *SecondOrder) DynMat(masses []float64) ([]float64, error) {
	if len(masses) != s.nAtoms {
		return nil, fmt.Errorf("DynMat: %d masses for %d atoms: %w", len(masses), s.nAtoms, ErrShape)
	}
	out := make([]float64, len(s.values))
	nR := len(s.replicas)
	var (
		i, a, r, j, b int
		scale         float64
	)
	for i = 0; i < s.nAtoms; i++ {
		for a = 0; a < 3; a++ {
			for r = 0; r < nR; r++ {
				for j = 0; j < s.nAtoms; j++ {
					scale = units.EVToTenJOverMol / math.Sqrt(masses[i]*masses[j])
					for b = 0; b < 3; b++ {
						off := s.Offset(i, a, r, j, b)
						out[off] = s.values[off] * scale
					}
				}
			}
		}
	}

	return out, nil
}

// ZeroReplica returns the index of R = 0.
func (s *SecondOrder) ZeroReplica() (int, error) {
	return s.findReplica([3]float64{})
}

func (s *SecondOrder) findReplica(v [3]float64) (int, error) {
	for r, rv := range s.replicas {
		if math.Abs(rv[0]-v[0]) < replicaMatchTol &&
			math.Abs(rv[1]-v[1]) < replicaMatchTol &&
			math.Abs(rv[2]-v[2]) < replicaMatchTol {
			return r, nil
		}
	}

	return -1, ErrNoZeroReplica
}

// Reciprocity returns max |D0[i,α,r,j,β] − D0[j,β,r̄,i,α]| with R_r̄ = −R_r.
// A block whose inverse replica is absent counts with its own magnitude.
func (s *SecondOrder) Reciprocity() float64 {
	nR := len(s.replicas)
	worst := 0.0
	var i, a, r, j, b int
	for r = 0; r < nR; r++ {
		rv := s.replicas[r]
		inv, err := s.findReplica([3]float64{-rv[0], -rv[1], -rv[2]})
		for i = 0; i < s.nAtoms; i++ {
			for a = 0; a < 3; a++ {
				for j = 0; j < s.nAtoms; j++ {
					for b = 0; b < 3; b++ {
						v := s.At(i, a, r, j, b)
						d := math.Abs(v)
						if err == nil {
							d = math.Abs(v - s.At(j, b, inv, i, a))
						}
						if d > worst {
							worst = d
						}
					}
				}
			}
		}
	}

	return worst
}

// CheckReciprocity returns ErrReciprocity when Reciprocity exceeds tol.
func (s *SecondOrder) CheckReciprocity(tol float64) error {
	if worst := s.Reciprocity(); worst > tol {
		return fmt.Errorf("CheckReciprocity: worst %.3e > %.3e: %w", worst, tol, ErrReciprocity)
	}

	return nil
}
