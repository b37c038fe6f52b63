// SPDX-License-Identifier: MIT

// Package tensor stores per-k-point mode-pair quantities, each a 3×3 Cartesian
// block, in either dense or sparse (coordinate list) form.
//
// Both forms answer the same PairTensor queries; a sparse tensor simply reports
// absent pairs as zero with stored == false.
package tensor

import (
	"errors"
	"fmt"
	"sort"
)

// Block is one Cartesian 3×3 value.
type Block = [3][3]float64

var (
	// ErrOutOfRange indicates a (k, m, n) coordinate outside the shape.
	ErrOutOfRange = errors.New("tensor: index out of range")

	// ErrShape indicates a non-positive shape or mismatched buffers.
	ErrShape = errors.New("tensor: invalid shape")
)

// Coord addresses a mode pair at one k-point.
type Coord struct {
	K, M, N int
}

// PairTensor is a read-only nk × nm × nm field of Blocks.
type PairTensor interface {
	// Shape returns (number of k-points, modes per k-point).
	Shape() (nk, nm int)
	// At returns the value at (k, m, n) and whether it is explicitly stored.
	At(k, m, n int) (Block, bool)
	// Each visits stored entries in ascending (k, m, n) order.
	Each(fn func(c Coord, v Block))
	// NNZ returns the number of stored entries.
	NNZ() int
	// IsSparse reports the storage form.
	IsSparse() bool
}

// Dense stores every pair.
type Dense struct {
	nk, nm int
	data   []Block
}

// NewDense allocates a zero tensor.
func NewDense(nk, nm int) (*Dense, error) {
	if nk <= 0 || nm <= 0 {
		return nil, ErrShape
	}

	return &Dense{nk: nk, nm: nm, data: make([]Block, nk*nm*nm)}, nil
}

func (d *Dense) index(k, m, n int) (int, error) {
	if k < 0 || k >= d.nk || m < 0 || m >= d.nm || n < 0 || n >= d.nm {
		return 0, fmt.Errorf("(%d,%d,%d): %w", k, m, n, ErrOutOfRange)
	}

	return (k*d.nm+m)*d.nm + n, nil
}

// Set writes one block. Disjoint (k, m, n) may be written concurrently.
func (d *Dense) Set(k, m, n int, v Block) error {
	idx, err := d.index(k, m, n)
	if err != nil {
		return err
	}
	d.data[idx] = v

	return nil
}

// Shape implements PairTensor.
func (d *Dense) Shape() (int, int) { return d.nk, d.nm }

// At implements PairTensor. Out-of-range coordinates read as absent zeros.
func (d *Dense) At(k, m, n int) (Block, bool) {
	idx, err := d.index(k, m, n)
	if err != nil {
		return Block{}, false
	}

	return d.data[idx], true
}

// Each implements PairTensor.
func (d *Dense) Each(fn func(c Coord, v Block)) {
	var k, m, n int
	for k = 0; k < d.nk; k++ {
		for m = 0; m < d.nm; m++ {
			for n = 0; n < d.nm; n++ {
				fn(Coord{k, m, n}, d.data[(k*d.nm+m)*d.nm+n])
			}
		}
	}
}

// NNZ implements PairTensor.
func (d *Dense) NNZ() int { return len(d.data) }

// IsSparse implements PairTensor.
func (d *Dense) IsSparse() bool { return false }

// Sparse stores an explicit coordinate list.
type Sparse struct {
	nk, nm int
	coords []Coord
	values []Block
	index  map[Coord]int
}

// NewSparse sorts the coordinates and builds the lookup table.
// Duplicate coordinates are rejected with ErrShape.
func NewSparse(nk, nm int, coords []Coord, values []Block) (*Sparse, error) {
	if nk <= 0 || nm <= 0 || len(coords) != len(values) {
		return nil, ErrShape
	}
	order := make([]int, len(coords))
	for i, c := range coords {
		if c.K < 0 || c.K >= nk || c.M < 0 || c.M >= nm || c.N < 0 || c.N >= nm {
			return nil, fmt.Errorf("(%d,%d,%d): %w", c.K, c.M, c.N, ErrOutOfRange)
		}
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return coordLess(coords[order[a]], coords[order[b]]) })

	s := &Sparse{
		nk:     nk,
		nm:     nm,
		coords: make([]Coord, len(coords)),
		values: make([]Block, len(values)),
		index:  make(map[Coord]int, len(coords)),
	}
	for i, o := range order {
		c := coords[o]
		if _, dup := s.index[c]; dup {
			return nil, fmt.Errorf("duplicate (%d,%d,%d): %w", c.K, c.M, c.N, ErrShape)
		}
		s.coords[i] = c
		s.values[i] = values[o]
		s.index[c] = i
	}

	return s, nil
}

func coordLess(a, b Coord) bool {
	if a.K != b.K {
		return a.K < b.K
	}
	if a.M != b.M {
		return a.M < b.M
	}

	return a.N < b.N
}

// Shape implements PairTensor.
func (s *Sparse) Shape() (int, int) { return s.nk, s.nm }

// At implements PairTensor.
func (s *Sparse) At(k, m, n int) (Block, bool) {
	i, ok := s.index[Coord{k, m, n}]
	if !ok {
		return Block{}, false
	}

	return s.values[i], true
}

// Each implements PairTensor.
func (s *Sparse) Each(fn func(c Coord, v Block)) {
	for i, c := range s.coords {
		fn(c, s.values[i])
	}
}

// NNZ implements PairTensor.
func (s *Sparse) NNZ() int { return len(s.coords) }

// IsSparse implements PairTensor.
func (s *Sparse) IsSparse() bool { return true }

// Sum returns Σ over stored entries of w(c)·v, accumulated in Each order.
func Sum(t PairTensor, w func(c Coord) float64) Block {
	var out Block
	t.Each(func(c Coord, v Block) {
		f := w(c)
		if f == 0 {
			return
		}
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				out[a][b] += f * v[a][b]
			}
		}
	})

	return out
}
