// SPDX-License-Identifier: MIT

// Package backend isolates the dense linear algebra used by the solvers behind
// one strategy interface.
//
// Two implementations are interchangeable and cross-checked by tests:
//   - Reference: the Jacobi / Doolittle kernels of package matrix and naive loops.
//   - Gonum: LAPACK-backed gonum/mat factorizations and cblas128 GEMM.
package backend

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownBackend indicates an unsupported backend name.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrEigen indicates a failed eigen-decomposition.
	ErrEigen = errors.New("backend: eigen decomposition failed")

	// ErrSingular indicates a matrix that could not be inverted.
	ErrSingular = errors.New("backend: singular matrix")

	// ErrShape indicates inconsistent operand shapes.
	ErrShape = errors.New("backend: shape mismatch")
)

// CMatrix is a row-major complex matrix.
type CMatrix struct {
	Rows, Cols int
	Data       []complex128
}

// NewCMatrix allocates a zero rows×cols matrix.
func NewCMatrix(rows, cols int) CMatrix {
	return CMatrix{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// At returns element (i, j).
func (m CMatrix) At(i, j int) complex128 { return m.Data[i*m.Cols+j] }

// Backend is the linear-algebra strategy.
type Backend interface {
	// Name returns the configuration name.
	Name() string

	// EigenSym diagonalizes a row-major real symmetric n×n matrix.
	// Eigenvalues ascend; column μ of the row-major vectors is eigenvector μ.
	EigenSym(a []float64, n int) ([]float64, []float64, error)

	// EigenHermitian diagonalizes a row-major Hermitian n×n matrix
	// with the same ordering conventions as EigenSym.
	EigenHermitian(h []complex128, n int) ([]float64, []complex128, error)

	// Invert returns a⁻¹ or an error wrapping ErrSingular.
	Invert(a *mat.Dense) (*mat.Dense, error)

	// Gemm returns op(a)·b where op transposes (without conjugation) when transA is set.
	Gemm(transA bool, a, b CMatrix) (CMatrix, error)
}

// New returns the backend registered under name.
func New(name string) (Backend, error) {
	switch name {
	case ReferenceName:
		return Reference{}, nil
	case GonumName:
		return Gonum{}, nil
	default:
		return nil, fmt.Errorf("New(%q): %w", name, ErrUnknownBackend)
	}
}

func gemmShape(transA bool, a, b CMatrix) (m, k, n int, err error) {
	m, k = a.Rows, a.Cols
	if transA {
		m, k = k, m
	}
	if k != b.Rows || len(a.Data) != a.Rows*a.Cols || len(b.Data) != b.Rows*b.Cols {
		return 0, 0, 0, fmt.Errorf("Gemm: %dx%d · %dx%d: %w", m, k, b.Rows, b.Cols, ErrShape)
	}

	return m, k, b.Cols, nil
}

// hermitianPart returns (h + hᴴ)/2 so both backends see an exactly Hermitian input.
func hermitianPart(h []complex128, n int) []complex128 {
	out := make([]complex128, n*n)
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			c := h[j*n+i]
			out[i*n+j] = (h[i*n+j] + complex(real(c), -imag(c))) / 2
		}
	}

	return out
}
