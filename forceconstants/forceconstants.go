// SPDX-License-Identifier: MIT

// Package forceconstants holds the interatomic force constants consumed by the
// harmonic and anharmonic solvers, plus their YAML document codec.
//
// A ForceConstants value is immutable: the second order is mandatory, the third
// order and the distance cutoff are optional.
package forceconstants

import (
	"fmt"
	"math"

	"github.com/katalvlaran/kappa/structure"
)

// ForceConstants bundles the atoms with their second and optional third order.
type ForceConstants struct {
	atoms       *structure.Atoms
	second      *SecondOrder
	third       *ThirdOrder
	cutoff      float64
	hasCutoff   bool
	zeroReplica int
}

// Option configures New.
type Option func(*ForceConstants) error

// WithThirdOrder attaches an anharmonic tensor.
func WithThirdOrder(t *ThirdOrder) Option {
	return func(fc *ForceConstants) error {
		if t == nil {
			return nil
		}
		if t.NAtoms() != fc.second.NAtoms() || t.NReplicas() != fc.second.NReplicas() {
			return fmt.Errorf("WithThirdOrder: %w", ErrShape)
		}
		fc.third = t

		return nil
	}
}

// WithCutoff enables the folded dynamical-matrix path with the given distance (Å).
func WithCutoff(d float64) Option {
	return func(fc *ForceConstants) error {
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("WithCutoff(%g): %w", d, ErrInvalidCutoff)
		}
		fc.cutoff, fc.hasCutoff = d, true

		return nil
	}
}

// New validates that the operators match the atoms.
//
// Errors:
//   - ErrShape, ErrNoZeroReplica, ErrInvalidCutoff.
func New(atoms *structure.Atoms, second *SecondOrder, opts ...Option) (*ForceConstants, error) {
	if atoms == nil || second == nil {
		return nil, fmt.Errorf("New: nil input: %w", ErrShape)
	}
	if atoms.N() != second.NAtoms() {
		return nil, fmt.Errorf("New: %d atoms, second order for %d: %w", atoms.N(), second.NAtoms(), ErrShape)
	}
	zero, err := second.ZeroReplica()
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	fc := &ForceConstants{atoms: atoms, second: second, zeroReplica: zero}
	for _, opt := range opts {
		if err = opt(fc); err != nil {
			return nil, err
		}
	}

	return fc, nil
}

// Atoms returns the central-cell configuration.
func (fc *ForceConstants) Atoms() *structure.Atoms { return fc.atoms }

// SecondOrder returns the harmonic operator.
func (fc *ForceConstants) SecondOrder() *SecondOrder { return fc.second }

// HasThirdOrder reports whether an anharmonic tensor is attached.
func (fc *ForceConstants) HasThirdOrder() bool { return fc.third != nil }

// ThirdOrder returns the anharmonic tensor or ErrMissingThirdOrder.
func (fc *ForceConstants) ThirdOrder() (*ThirdOrder, error) {
	if fc.third == nil {
		return nil, ErrMissingThirdOrder
	}

	return fc.third, nil
}

// Cutoff returns the folding distance (Å) and whether one is configured.
func (fc *ForceConstants) Cutoff() (float64, bool) { return fc.cutoff, fc.hasCutoff }

// ZeroReplica returns the index of the central cell in the replica list.
func (fc *ForceConstants) ZeroReplica() int { return fc.zeroReplica }

// SupercellLattice returns the supercell vectors S_i·a_i as rows.
func (fc *ForceConstants) SupercellLattice() [3][3]float64 {
	cell := fc.atoms.Cell()
	sc := fc.second.Supercell()
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = float64(sc[i]) * cell[i][j]
		}
	}

	return out
}

// ReplicaFractional returns n_r = R_r·inv(cell), the replica in lattice units.
func (fc *ForceConstants) ReplicaFractional(r int) [3]float64 {
	return fc.atoms.Fractional(fc.second.Replica(r))
}

// ConserveMomentum returns a copy whose third order obeys the acoustic sum rule.
// Force constants without a third order are returned unchanged.
func (fc *ForceConstants) ConserveMomentum() (*ForceConstants, error) {
	if fc.third == nil {
		return fc, nil
	}
	t, err := fc.third.ConserveMomentum(fc.zeroReplica)
	if err != nil {
		return nil, err
	}
	cp := *fc
	cp.third = t

	return &cp, nil
}
