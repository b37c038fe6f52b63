// SPDX-License-Identifier: MIT

package backend

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kappa/matrix"
)

// GonumName selects Gonum.
const GonumName = "gonum"

// Gonum runs LAPACK-backed gonum factorizations.
type Gonum struct{}

// Name implements Backend.
func (Gonum) Name() string { return GonumName }

// EigenSym implements Backend with mat.EigenSym (upper triangle of a).
func (Gonum) EigenSym(a []float64, n int) ([]float64, []float64, error) {
	if n <= 0 || len(a) != n*n {
		return nil, nil, fmt.Errorf("EigenSym: %w", ErrShape)
	}
	sym := mat.NewSymDense(n, append([]float64(nil), a...))
	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return nil, nil, fmt.Errorf("EigenSym: %w", ErrEigen)
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	return es.Values(nil), mat.DenseCopyOf(&vecs).RawMatrix().Data, nil
}

// EigenHermitian implements Backend: mat.EigenSym on the real embedding,
// then the shared complex extraction of package matrix.
func (g Gonum) EigenHermitian(h []complex128, n int) ([]float64, []complex128, error) {
	if n <= 0 || len(h) != n*n {
		return nil, nil, fmt.Errorf("EigenHermitian: %w", ErrShape)
	}
	hp := hermitianPart(h, n)
	emb, err := matrix.EmbedHermitian(hp, n)
	if err != nil {
		return nil, nil, fmt.Errorf("EigenHermitian: %v: %w", err, ErrEigen)
	}
	vals, vecs, err := g.EigenSym(emb.RawData(), 2*n)
	if err != nil {
		return nil, nil, err
	}
	vd, err := matrix.NewDenseFrom(2*n, 2*n, vecs)
	if err != nil {
		return nil, nil, fmt.Errorf("EigenHermitian: %v: %w", err, ErrEigen)
	}
	outVals, outVecs, err := matrix.ExtractHermitian(hp, n, vals, vd)
	if err != nil {
		return nil, nil, fmt.Errorf("EigenHermitian: %v: %w", err, ErrEigen)
	}

	return outVals, outVecs, nil
}

// Invert implements Backend with mat.Dense.Inverse (partial pivoting).
func (Gonum) Invert(a *mat.Dense) (*mat.Dense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("Invert: %w", ErrShape)
	}
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		// gonum still returns ill-conditioned inverses along with a finite Condition;
		// an infinite one means the LU factorization met an exact zero pivot.
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("Invert: %v: %w", err, ErrSingular)
		}
	}
	for _, v := range inv.RawMatrix().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("Invert: non-finite inverse: %w", ErrSingular)
		}
	}

	return &inv, nil
}

// Gemm implements Backend with cblas128.Gemm.
func (Gonum) Gemm(transA bool, a, b CMatrix) (CMatrix, error) {
	m, _, n, err := gemmShape(transA, a, b)
	if err != nil {
		return CMatrix{}, err
	}
	out := NewCMatrix(m, n)
	tA := blas.NoTrans
	if transA {
		tA = blas.Trans
	}
	cblas128.Gemm(tA, blas.NoTrans, 1,
		cblas128.General{Rows: a.Rows, Cols: a.Cols, Stride: a.Cols, Data: a.Data},
		cblas128.General{Rows: b.Rows, Cols: b.Cols, Stride: b.Cols, Data: b.Data},
		0,
		cblas128.General{Rows: out.Rows, Cols: out.Cols, Stride: out.Cols, Data: out.Data},
	)

	return out, nil
}
