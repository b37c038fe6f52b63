// SPDX-License-Identifier: MIT

package backend

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kappa/matrix"
)

// ReferenceName selects Reference.
const ReferenceName = "reference"

const (
	// jacobiRelTol is the off-diagonal convergence threshold relative to max |a_ij|.
	jacobiRelTol = 1e-13
	// jacobiSweeps bounds the rotations at jacobiSweeps·n².
	jacobiSweeps = 50
	// inverseResidualTol bounds max |A·A⁻¹ − I| for an accepted unpivoted inverse.
	inverseResidualTol = 1e-8
)

// Reference runs the deterministic kernels of package matrix.
type Reference struct{}

// Name implements Backend.
func (Reference) Name() string { return ReferenceName }

// EigenSym implements Backend with classical Jacobi on the symmetric part of a.
func (Reference) EigenSym(a []float64, n int) ([]float64, []float64, error) {
	if n <= 0 || len(a) != n*n {
		return nil, nil, fmt.Errorf("EigenSym: %w", ErrShape)
	}
	sym := make([]float64, n*n)
	scale := 0.0
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			sym[i*n+j] = (a[i*n+j] + a[j*n+i]) / 2
			scale = math.Max(scale, math.Abs(sym[i*n+j]))
		}
	}
	m, err := matrix.NewDenseFrom(n, n, sym)
	if err != nil {
		return nil, nil, fmt.Errorf("EigenSym: %v: %w", err, ErrEigen)
	}
	vals, vecs, err := matrix.EigenSorted(m, jacobiRelTol*math.Max(scale, 1), jacobiSweeps*n*n)
	if err != nil {
		return nil, nil, fmt.Errorf("EigenSym: %v: %w", err, ErrEigen)
	}

	return vals, vecs.RawData(), nil
}

// EigenHermitian implements Backend through the real 2n×2n embedding.
func (Reference) EigenHermitian(h []complex128, n int) ([]float64, []complex128, error) {
	if n <= 0 || len(h) != n*n {
		return nil, nil, fmt.Errorf("EigenHermitian: %w", ErrShape)
	}
	hp := hermitianPart(h, n)
	scale := 0.0
	for _, v := range hp {
		scale = math.Max(scale, math.Max(math.Abs(real(v)), math.Abs(imag(v))))
	}
	vals, vecs, err := matrix.EigenHermitian(hp, n, jacobiRelTol*math.Max(scale, 1), jacobiSweeps*4*n*n)
	if err != nil {
		return nil, nil, fmt.Errorf("EigenHermitian: %v: %w", err, ErrEigen)
	}

	return vals, vecs, nil
}

// Invert implements Backend with Doolittle LU (no pivoting). Inverses whose
// residual A·A⁻¹ − I exceeds inverseResidualTol are rejected as singular.
func (Reference) Invert(a *mat.Dense) (*mat.Dense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("Invert: %w", ErrShape)
	}
	m, err := matrix.NewDenseFrom(r, c, mat.DenseCopyOf(a).RawMatrix().Data)
	if err != nil {
		return nil, fmt.Errorf("Invert: %v: %w", err, ErrSingular)
	}
	inv, err := matrix.Inverse(m)
	if err != nil {
		return nil, fmt.Errorf("Invert: %v: %w", err, ErrSingular)
	}
	data := inv.RawData()
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("Invert: non-finite inverse: %w", ErrSingular)
		}
	}
	// Without pivoting a tiny leading pivot passes LU but ruins the inverse.
	check, err := matrix.Mul(m, inv)
	if err != nil {
		return nil, fmt.Errorf("Invert: %v: %w", err, ErrSingular)
	}
	for i, v := range check.RawData() {
		want := 0.0
		if i/r == i%r {
			want = 1
		}
		if d := math.Abs(v - want); d > inverseResidualTol {
			return nil, fmt.Errorf("Invert: residual %.3e at (%d,%d): %w", d, i/r, i%r, ErrSingular)
		}
	}

	return mat.NewDense(r, c, data), nil
}

// Gemm implements Backend with a fixed i→l→j loop order.
func (Reference) Gemm(transA bool, a, b CMatrix) (CMatrix, error) {
	m, k, n, err := gemmShape(transA, a, b)
	if err != nil {
		return CMatrix{}, err
	}
	out := NewCMatrix(m, n)
	var (
		i, l, j int
		av      complex128
	)
	for i = 0; i < m; i++ {
		for l = 0; l < k; l++ {
			if transA {
				av = a.Data[l*a.Cols+i]
			} else {
				av = a.Data[i*a.Cols+l]
			}
			if av == 0 {
				continue
			}
			for j = 0; j < n; j++ {
				out.Data[i*n+j] += av * b.Data[l*n+j]
			}
		}
	}

	return out, nil
}
