// SPDX-License-Identifier: MIT

package forceconstants

import (
	"fmt"
	"math"
	"sort"
)

// Entry is one non-zero third-order coefficient Φ[I,J,K] in eV/Å³.
//   - I = 3*i + α with i in the central cell.
//   - J = (r′*nAtoms + j)*3 + β, K = (r″*nAtoms + k)*3 + γ.
type Entry struct {
	I, J, K int
	Value   float64
}

// ThirdOrder is a sparse COO third-order tensor. Entries are sorted by (I,J,K)
// with duplicates summed, so iteration order is deterministic.
type ThirdOrder struct {
	nAtoms    int
	nReplicas int
	entries   []Entry
}

// ReplicaIndex returns the J/K coordinate of (replica, atom, direction).
func ReplicaIndex(nAtoms, replica, atom, dir int) int {
	return (replica*nAtoms+atom)*3 + dir
}

// SplitIndex is the inverse of ReplicaIndex.
func SplitIndex(nAtoms, idx int) (replica, atom, dir int) {
	dir = idx % 3
	atom = (idx / 3) % nAtoms
	replica = idx / (3 * nAtoms)

	return replica, atom, dir
}

// NewThirdOrder validates, sorts and merges the entries.
//
// Errors:
//   - ErrShape, ErrIndexOutOfRange, ErrNonFinite.
func NewThirdOrder(nAtoms, nReplicas int, entries []Entry) (*ThirdOrder, error) {
	if nAtoms <= 0 || nReplicas <= 0 {
		return nil, fmt.Errorf("NewThirdOrder: %w", ErrShape)
	}
	nI := 3 * nAtoms
	nJ := nI * nReplicas
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	for idx, e := range sorted {
		if e.I < 0 || e.I >= nI || e.J < 0 || e.J >= nJ || e.K < 0 || e.K >= nJ {
			return nil, fmt.Errorf("NewThirdOrder: entry %d (%d,%d,%d): %w", idx, e.I, e.J, e.K, ErrIndexOutOfRange)
		}
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return nil, fmt.Errorf("NewThirdOrder: entry %d: %w", idx, ErrNonFinite)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool { return less(sorted[a], sorted[b]) })

	merged := sorted[:0]
	for _, e := range sorted {
		last := len(merged) - 1
		if last >= 0 && merged[last].I == e.I && merged[last].J == e.J && merged[last].K == e.K {
			merged[last].Value += e.Value
			continue
		}
		merged = append(merged, e)
	}

	return &ThirdOrder{nAtoms: nAtoms, nReplicas: nReplicas, entries: merged}, nil
}

func less(a, b Entry) bool {
	if a.I != b.I {
		return a.I < b.I
	}
	if a.J != b.J {
		return a.J < b.J
	}

	return a.K < b.K
}

// NAtoms returns the number of atoms in the central cell.
func (t *ThirdOrder) NAtoms() int { return t.nAtoms }

// NReplicas returns the number of periodic images.
func (t *ThirdOrder) NReplicas() int { return t.nReplicas }

// Len returns the number of stored coefficients.
func (t *ThirdOrder) Len() int { return len(t.entries) }

// Entries returns a copy of the sorted coefficients.
func (t *ThirdOrder) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)

	return out
}

// Each visits the coefficients in (I,J,K) order.
func (t *ThirdOrder) Each(fn func(e Entry)) {
	for _, e := range t.entries {
		fn(e)
	}
}

// ConserveMomentum returns a copy obeying the acoustic sum rule on the last index:
// for every (I, J, γ) the sum over (r″, k) of Φ[I, J, (r″kγ)] vanishes. The
// correction is placed on the self term (zeroReplica, i, γ) with i the atom of I.
func (t *ThirdOrder) ConserveMomentum(zeroReplica int) (*ThirdOrder, error) {
	if zeroReplica < 0 || zeroReplica >= t.nReplicas {
		return nil, fmt.Errorf("ConserveMomentum: %w", ErrNoZeroReplica)
	}
	type key struct{ i, j, dir int }
	sums := make(map[key]float64)
	order := make([]key, 0)
	for _, e := range t.entries {
		k := key{e.I, e.J, e.K % 3}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += e.Value
	}

	out := make([]Entry, len(t.entries), len(t.entries)+len(order))
	copy(out, t.entries)
	for _, k := range order {
		if sums[k] == 0 {
			continue
		}
		self := ReplicaIndex(t.nAtoms, zeroReplica, k.i/3, k.dir)
		out = append(out, Entry{I: k.i, J: k.j, K: self, Value: -sums[k]})
	}

	return NewThirdOrder(t.nAtoms, t.nReplicas, out)
}
