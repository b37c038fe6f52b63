// SPDX-License-Identifier: MIT

// Package structure holds the immutable atomic configuration consumed by the
// solvers: Cartesian positions (Å), masses (amu), cell rows (Å) and periodicity.
package structure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Atoms is a read-only atomic configuration. All accessors return copies.
type Atoms struct {
	positions [][3]float64
	masses    []float64
	cell      [3][3]float64
	cellInv   [3][3]float64
	pbc       [3]bool
}

// New validates and deep-copies the inputs.
//
// Errors:
//   - ErrEmpty, ErrShape, ErrNonPositiveMass, ErrNonFinite, ErrSingularCell.
func New(positions [][3]float64, masses []float64, cell [3][3]float64, pbc [3]bool) (*Atoms, error) {
	if len(positions) == 0 {
		return nil, ErrEmpty
	}
	if len(positions) != len(masses) {
		return nil, fmt.Errorf("New: %d positions, %d masses: %w", len(positions), len(masses), ErrShape)
	}
	for i, p := range positions {
		if !finite3(p) {
			return nil, fmt.Errorf("New: position %d: %w", i, ErrNonFinite)
		}
		if math.IsNaN(masses[i]) || math.IsInf(masses[i], 0) {
			return nil, fmt.Errorf("New: mass %d: %w", i, ErrNonFinite)
		}
		if masses[i] <= 0 {
			return nil, fmt.Errorf("New: mass %d: %w", i, ErrNonPositiveMass)
		}
	}
	for i := range cell {
		if !finite3(cell[i]) {
			return nil, fmt.Errorf("New: cell row %d: %w", i, ErrNonFinite)
		}
	}

	inv, err := invert3(cell)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}

	a := &Atoms{
		positions: make([][3]float64, len(positions)),
		masses:    make([]float64, len(masses)),
		cell:      cell,
		cellInv:   inv,
		pbc:       pbc,
	}
	copy(a.positions, positions)
	copy(a.masses, masses)

	return a, nil
}

// N returns the number of atoms.
func (a *Atoms) N() int { return len(a.masses) }

// Position returns the Cartesian position of atom i.
func (a *Atoms) Position(i int) [3]float64 { return a.positions[i] }

// Positions returns a copy of all positions.
func (a *Atoms) Positions() [][3]float64 {
	out := make([][3]float64, len(a.positions))
	copy(out, a.positions)

	return out
}

// Mass returns the mass of atom i in amu.
func (a *Atoms) Mass(i int) float64 { return a.masses[i] }

// Masses returns a copy of all masses.
func (a *Atoms) Masses() []float64 {
	out := make([]float64, len(a.masses))
	copy(out, a.masses)

	return out
}

// Cell returns the lattice vectors as rows.
func (a *Atoms) Cell() [3][3]float64 { return a.cell }

// CellInverse returns inv(Cell). Column i is the i-th reciprocal vector b_i
// (without the 2π factor), so fractional = Cartesian · CellInverse.
func (a *Atoms) CellInverse() [3][3]float64 { return a.cellInv }

// PBC returns the periodicity flags.
func (a *Atoms) PBC() [3]bool { return a.pbc }

// Volume returns |det(Cell)| in Å³.
func (a *Atoms) Volume() float64 {
	return math.Abs(mat.Det(cellDense(a.cell)))
}

// Fractional converts a Cartesian vector into cell coordinates.
func (a *Atoms) Fractional(v [3]float64) [3]float64 {
	var out [3]float64
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			out[j] += v[i] * a.cellInv[i][j]
		}
	}

	return out
}

// Reciprocal returns column i of CellInverse.
func (a *Atoms) Reciprocal(i int) [3]float64 {
	return [3]float64{a.cellInv[0][i], a.cellInv[1][i], a.cellInv[2][i]}
}

func cellDense(c [3][3]float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		c[0][0], c[0][1], c[0][2],
		c[1][0], c[1][1], c[1][2],
		c[2][0], c[2][1], c[2][2],
	})
}

// invert3 inverts a 3×3 cell through gonum, rejecting near-singular inputs.
func invert3(c [3][3]float64) ([3][3]float64, error) {
	var out [3][3]float64
	m := cellDense(c)
	if math.Abs(mat.Det(m)) < 1e-12 {
		return out, ErrSingularCell
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return out, fmt.Errorf("%v: %w", err, ErrSingularCell)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = inv.At(i, j)
		}
	}

	return out, nil
}

func finite3(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}
