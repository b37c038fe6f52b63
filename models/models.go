// SPDX-License-Identifier: MIT

// Package models builds small reference force-constant sets with known
// harmonic properties: a monoatomic simple-cubic crystal with nearest-neighbor
// springs and a compact amorphous cluster.
//
// Both carry an optional cubic pair-stretch third order, which obeys the
// acoustic sum rule by construction.
package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/structure"
)

// ErrInvalidParams indicates a model parameter outside its valid range.
var ErrInvalidParams = errors.New("models: invalid parameters")

// CubicParams describes the simple-cubic lattice.
type CubicParams struct {
	A         float64 // lattice constant, Å
	Mass      float64 // amu
	KL        float64 // longitudinal nearest-neighbor spring, eV/Å²
	KT        float64 // transverse nearest-neighbor spring, eV/Å²
	Cubic     float64 // pair-stretch third-order coefficient, eV/Å³ (0 = harmonic only)
	Supercell int     // odd replica multiplicity per axis, ≥ 3
}

// DefaultCubic returns a silicon-like mass on a 2.5 Å lattice.
func DefaultCubic() CubicParams {
	return CubicParams{A: 2.5, Mass: 28, KL: 1, KT: 0.25, Cubic: 2, Supercell: 3}
}

// SimpleCubic builds the crystal. Replicas run over the centered supercell in C order.
func SimpleCubic(p CubicParams) (*forceconstants.ForceConstants, error) {
	if p.A <= 0 || p.Mass <= 0 || p.KL <= 0 || p.KT < 0 || p.Supercell < 3 || p.Supercell%2 == 0 {
		return nil, fmt.Errorf("SimpleCubic: %+v: %w", p, ErrInvalidParams)
	}
	cell := [3][3]float64{{p.A, 0, 0}, {0, p.A, 0}, {0, 0, p.A}}
	atoms, err := structure.New([][3]float64{{0, 0, 0}}, []float64{p.Mass}, cell, [3]bool{true, true, true})
	if err != nil {
		return nil, err
	}

	h := p.Supercell / 2
	var (
		replicas [][3]float64
		cells    [][3]int
	)
	for a := -h; a <= h; a++ {
		for b := -h; b <= h; b++ {
			for c := -h; c <= h; c++ {
				replicas = append(replicas, [3]float64{float64(a) * p.A, float64(b) * p.A, float64(c) * p.A})
				cells = append(cells, [3]int{a, b, c})
			}
		}
	}
	nR := len(replicas)
	zero := (h*p.Supercell+h)*p.Supercell + h
	values := make([]float64, 9*nR)
	offset := func(a, r, b int) int { return (a*nR+r)*3 + b }

	var entries []forceconstants.Entry
	for r, n := range cells {
		if r == zero {
			for a := 0; a < 3; a++ {
				values[offset(a, r, a)] = 2*p.KL + 4*p.KT
			}
			continue
		}
		axis, sign := nearestNeighbor(n)
		if axis < 0 {
			continue
		}
		for a := 0; a < 3; a++ {
			k := p.KT
			if a == axis {
				k = p.KL
			}
			values[offset(a, r, a)] = -k
		}
		if p.Cubic != 0 {
			entries = append(entries, bondEntries(p.Cubic, axis, sign, zero, r)...)
		}
	}

	second, err := forceconstants.NewSecondOrder(1, replicas, [3]int{p.Supercell, p.Supercell, p.Supercell}, values)
	if err != nil {
		return nil, err
	}
	var opts []forceconstants.Option
	if p.Cubic != 0 {
		third, err := forceconstants.NewThirdOrder(1, nR, entries)
		if err != nil {
			return nil, err
		}
		opts = append(opts, forceconstants.WithThirdOrder(third))
	}

	return forceconstants.New(atoms, second, opts...)
}

// nearestNeighbor returns the axis and sign of a unit replica offset, or -1.
func nearestNeighbor(n [3]int) (int, int) {
	axis, sign, count := -1, 0, 0
	for d, v := range n {
		switch v {
		case 0:
		case 1, -1:
			axis, sign = d, v
			count++
		default:
			return -1, 0
		}
	}
	if count != 1 {
		return -1, 0
	}

	return axis, sign
}

// bondEntries returns the central-atom coefficients of c/6·(e·(u_R − u_0))³ for
// the bond to replica r along axis with the given sign.
func bondEntries(c float64, axis, sign, zero, r int) []forceconstants.Entry {
	e := float64(sign) // e_axis³ keeps the sign
	ends := []int{zero, r}
	out := make([]forceconstants.Entry, 0, 4)
	for _, x := range ends {
		for _, y := range ends {
			v := -c * endSign(x, r) * endSign(y, r) * e
			out = append(out, forceconstants.Entry{
				I:     axis,
				J:     forceconstants.ReplicaIndex(1, x, 0, axis),
				K:     forceconstants.ReplicaIndex(1, y, 0, axis),
				Value: v,
			})
		}
	}

	return out
}

func endSign(x, far int) float64 {
	if x == far {
		return 1
	}

	return -1
}

// ClusterParams describes the amorphous cluster.
type ClusterParams struct {
	Mass   float64 // amu
	K      float64 // central spring, eV/Å²
	KIso   float64 // isotropic spring, eV/Å²
	Cubic  float64 // pair-stretch third order, eV/Å³
	Cutoff float64 // bond cutoff, Å
	Box    float64 // cubic box edge, Å
}

// DefaultCluster returns an eight-atom distorted cube in a 20 Å box.
func DefaultCluster() ClusterParams {
	return ClusterParams{Mass: 28, K: 1.5, KIso: 0.2, Cubic: 1, Cutoff: 4.5, Box: 20}
}

// clusterOffsets distorts the cube so that no accidental degeneracies remain.
var clusterOffsets = [8][3]float64{
	{0.00, 0.00, 0.00},
	{0.11, -0.07, 0.05},
	{-0.06, 0.13, -0.02},
	{0.04, 0.09, 0.12},
	{-0.10, -0.03, 0.08},
	{0.07, -0.12, -0.09},
	{0.02, 0.05, -0.13},
	{-0.08, 0.10, 0.03},
}

const clusterEdge = 2.35

// Cluster builds the non-periodic cluster: one k-point, one replica.
func Cluster(p ClusterParams) (*forceconstants.ForceConstants, error) {
	if p.Mass <= 0 || p.K <= 0 || p.KIso <= 0 || p.Cutoff <= 0 || p.Box <= 4*clusterEdge {
		return nil, fmt.Errorf("Cluster: %+v: %w", p, ErrInvalidParams)
	}
	n := len(clusterOffsets)
	positions := make([][3]float64, n)
	masses := make([]float64, n)
	for i := range positions {
		for d := 0; d < 3; d++ {
			positions[i][d] = p.Box/2 + float64((i>>d)&1)*clusterEdge + clusterOffsets[i][d]
		}
		masses[i] = p.Mass
	}
	cell := [3][3]float64{{p.Box, 0, 0}, {0, p.Box, 0}, {0, 0, p.Box}}
	atoms, err := structure.New(positions, masses, cell, [3]bool{})
	if err != nil {
		return nil, err
	}

	values := make([]float64, 9*n*n)
	offset := func(i, a, j, b int) int { return ((i*3+a)*n+j)*3 + b }
	var entries []forceconstants.Entry
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var u [3]float64
			dist := 0.0
			for d := 0; d < 3; d++ {
				u[d] = positions[j][d] - positions[i][d]
				dist += u[d] * u[d]
			}
			dist = math.Sqrt(dist)
			if dist >= p.Cutoff {
				continue
			}
			for d := range u {
				u[d] /= dist
			}
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					phi := -p.K * u[a] * u[b]
					if a == b {
						phi -= p.KIso
					}
					values[offset(i, a, j, b)] += phi
					values[offset(j, b, i, a)] += phi
					values[offset(i, a, i, b)] -= phi
					values[offset(j, a, j, b)] -= phi
				}
			}
			if p.Cubic != 0 {
				entries = append(entries, pairEntries(p.Cubic, i, j, u)...)
			}
		}
	}

	second, err := forceconstants.NewSecondOrder(n, [][3]float64{{}}, [3]int{1, 1, 1}, values)
	if err != nil {
		return nil, err
	}
	var opts []forceconstants.Option
	if p.Cubic != 0 {
		third, err := forceconstants.NewThirdOrder(n, 1, entries)
		if err != nil {
			return nil, err
		}
		opts = append(opts, forceconstants.WithThirdOrder(third))
	}

	return forceconstants.New(atoms, second, opts...)
}

// pairEntries returns every coefficient of c/6·(u·(x_j − x_i))³.
func pairEntries(c float64, i, j int, u [3]float64) []forceconstants.Entry {
	sign := map[int]float64{i: -1, j: 1}
	atoms := []int{i, j}
	out := make([]forceconstants.Entry, 0, 8*27)
	for _, p := range atoms {
		for _, q := range atoms {
			for _, r := range atoms {
				s := c * sign[p] * sign[q] * sign[r]
				for a := 0; a < 3; a++ {
					for b := 0; b < 3; b++ {
						for g := 0; g < 3; g++ {
							v := s * u[a] * u[b] * u[g]
							if v == 0 {
								continue
							}
							out = append(out, forceconstants.Entry{I: 3*p + a, J: 3*q + b, K: 3*r + g, Value: v})
						}
					}
				}
			}
		}
	}

	return out
}
