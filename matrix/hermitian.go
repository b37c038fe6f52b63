// SPDX-License-Identifier: MIT
// Package matrix - Hermitian eigenproblems through the real symmetric embedding.
//
// Purpose:
//   - Diagonalize H = A + iB (n×n, Hermitian) with a real symmetric solver by
//     working on the 2n×2n matrix [[A, -B], [B, A]].
//   - Every eigenvalue of H appears twice in the embedding, with real eigenvectors
//     (u; v) and (-v; u) that both map to the same complex line u + i·v.
//   - ExtractHermitian recovers n orthonormal complex vectors by pivoted
//     Gram–Schmidt inside each cluster of equal eigenvalues.

package matrix

import (
	"math"
	"math/cmplx"
)

const (
	opEmbed   = "EmbedHermitian"
	opExtract = "ExtractHermitian"

	// clusterRelTol groups sorted embedding eigenvalues that belong to the same
	// complex eigenspace (relative to the spectral scale).
	clusterRelTol = 1e-8

	// acceptResidual is the minimum squared norm a candidate must keep after
	// projection before it is accepted as a new complex direction.
	acceptResidual = 1e-4
)

// EmbedHermitian builds the 2n×2n real symmetric embedding of a row-major n×n
// complex matrix h. The imaginary diagonal is ignored (zero for Hermitian input).
//
// Errors:
//   - ErrInvalidDimensions (n<=0), ErrDimensionMismatch (len(h) != n*n), ErrNaNInf.
func EmbedHermitian(h []complex128, n int) (*Dense, error) {
	if n <= 0 {
		return nil, matrixErrorf(opEmbed, ErrInvalidDimensions)
	}
	if len(h) != n*n {
		return nil, matrixErrorf(opEmbed, ErrDimensionMismatch)
	}
	m := 2 * n
	out, err := NewDense(m, m)
	if err != nil {
		return nil, matrixErrorf(opEmbed, err)
	}
	var (
		i, j   int
		re, im float64
	)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			re, im = real(h[i*n+j]), imag(h[i*n+j])
			if math.IsNaN(re) || math.IsNaN(im) || math.IsInf(re, 0) || math.IsInf(im, 0) {
				return nil, matrixErrorf(opEmbed, ErrNaNInf)
			}
			if i == j {
				im = 0
			}
			out.data[i*m+j] = re
			out.data[(i+n)*m+j+n] = re
			out.data[i*m+j+n] = -im
			out.data[(i+n)*m+j] = im
		}
	}

	return out, nil
}

// ExtractHermitian turns an ascending eigen-decomposition of the embedding
// (vals, columns of vecs) into n complex eigenpairs of h.
//
// Implementation:
//   - Stage 1: Walk the sorted spectrum in clusters of equal eigenvalues.
//   - Stage 2: Inside a cluster, repeatedly take the candidate z = u + i·v with
//     the largest residual after complex projection on the accepted vectors;
//     accept it while the residual stays above acceptResidual.
//   - Stage 3: Eigenvalue = Re(zᴴ H z) (Rayleigh quotient), clamped to the embedding order.
//
// Returns:
//   - []float64: n eigenvalues, ascending.
//   - []complex128: row-major n×n, column μ is the unit eigenvector of eigenvalue μ.
//
// Errors:
//   - ErrDimensionMismatch on inconsistent shapes, ErrMatrixEigenFailed when fewer
//     than n independent directions could be recovered.
func ExtractHermitian(h []complex128, n int, vals []float64, vecs *Dense) ([]float64, []complex128, error) {
	if err := ValidateNotNil(vecs); err != nil {
		return nil, nil, matrixErrorf(opExtract, err)
	}
	m := 2 * n
	if n <= 0 || len(h) != n*n || len(vals) != m || vecs.r != m || vecs.c != m {
		return nil, nil, matrixErrorf(opExtract, ErrDimensionMismatch)
	}

	scale := 1.0
	for _, v := range vals {
		if math.Abs(v) > scale {
			scale = math.Abs(v)
		}
	}
	gap := clusterRelTol * scale

	accepted := make([][]complex128, 0, n)
	outVals := make([]float64, 0, n)
	used := make([]bool, m)

	candidate := func(col int) []complex128 {
		z := make([]complex128, n)
		for i := 0; i < n; i++ {
			z[i] = complex(vecs.data[i*m+col], vecs.data[(i+n)*m+col])
		}

		return z
	}

	start := 0
	for start < m && len(accepted) < n {
		end := start + 1
		for end < m && vals[end]-vals[end-1] <= gap {
			end++
		}
		for len(accepted) < n {
			bestCol, bestRes := -1, 0.0
			var bestZ []complex128
			for col := start; col < end; col++ {
				if used[col] {
					continue
				}
				z := candidate(col)
				res := projectOut(z, accepted)
				if res > bestRes {
					bestCol, bestRes, bestZ = col, res, z
				}
			}
			if bestCol < 0 || bestRes <= acceptResidual {
				break
			}
			used[bestCol] = true
			norm := complex(math.Sqrt(bestRes), 0)
			for i := range bestZ {
				bestZ[i] /= norm
			}
			accepted = append(accepted, bestZ)
			outVals = append(outVals, rayleigh(h, n, bestZ))
		}
		start = end
	}
	if len(accepted) < n {
		return nil, nil, matrixErrorf(opExtract, ErrMatrixEigenFailed)
	}

	out := make([]complex128, n*n)
	for mu, z := range accepted {
		for i := 0; i < n; i++ {
			out[i*n+mu] = z[i]
		}
	}
	// Rayleigh quotients inside a cluster may differ in the last bits; keep them ascending.
	for mu := 1; mu < n; mu++ {
		if outVals[mu] < outVals[mu-1] {
			outVals[mu] = outVals[mu-1]
		}
	}

	return outVals, out, nil
}

// EigenHermitian diagonalizes a row-major Hermitian matrix with the Jacobi kernel.
// tol and maxIter are forwarded to Eigen on the 2n×2n embedding.
func EigenHermitian(h []complex128, n int, tol float64, maxIter int) ([]float64, []complex128, error) {
	emb, err := EmbedHermitian(h, n)
	if err != nil {
		return nil, nil, err
	}
	vals, vecs, err := EigenSorted(emb, tol, maxIter)
	if err != nil {
		return nil, nil, err
	}

	return ExtractHermitian(h, n, vals, vecs)
}

// projectOut removes from z its components along the accepted unit vectors
// (in place) and returns the squared norm of what is left.
func projectOut(z []complex128, basis [][]complex128) float64 {
	var (
		i    int
		proj complex128
	)
	for _, b := range basis {
		proj = 0
		for i = range z {
			proj += cmplx.Conj(b[i]) * z[i]
		}
		for i = range z {
			z[i] -= proj * b[i]
		}
	}
	norm := ZeroSum
	for i = range z {
		norm += real(z[i])*real(z[i]) + imag(z[i])*imag(z[i])
	}

	return norm
}

// rayleigh returns Re(zᴴ H z) for a unit vector z.
func rayleigh(h []complex128, n int, z []complex128) float64 {
	var (
		i, j int
		acc  complex128
		hz   complex128
	)
	for i = 0; i < n; i++ {
		hz = 0
		for j = 0; j < n; j++ {
			hz += h[i*n+j] * z[j]
		}
		acc += cmplx.Conj(z[i]) * hz
	}

	return real(acc)
}
