// SPDX-License-Identifier: MIT
package backend_test

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kappa/backend"
)

func backends(t *testing.T) []backend.Backend {
	t.Helper()
	var out []backend.Backend
	for _, name := range []string{backend.ReferenceName, backend.GonumName} {
		b, err := backend.New(name)
		require.NoError(t, err)
		require.Equal(t, name, b.Name())
		out = append(out, b)
	}

	return out
}

func randomHermitian(rng *rand.Rand, n int) []complex128 {
	h := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		h[i*n+i] = complex(rng.NormFloat64()*10, 0)
		for j := i + 1; j < n; j++ {
			v := complex(rng.NormFloat64(), rng.NormFloat64())
			h[i*n+j] = v
			h[j*n+i] = cmplx.Conj(v)
		}
	}

	return h
}

func TestNew_Unknown(t *testing.T) {
	t.Parallel()

	_, err := backend.New("cuda")
	require.ErrorIs(t, err, backend.ErrUnknownBackend)
}

func TestEigenSym_Equivalence(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	const n = 6
	a := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := rng.NormFloat64()
			a[i*n+j], a[j*n+i] = v, v
		}
	}

	bs := backends(t)
	var ref []float64
	for _, b := range bs {
		vals, vecs, err := b.EigenSym(a, n)
		require.NoError(t, err, b.Name())
		// A·v = λ·v per column.
		for k := 0; k < n; k++ {
			for i := 0; i < n; i++ {
				sum := 0.0
				for j := 0; j < n; j++ {
					sum += a[i*n+j] * vecs[j*n+k]
				}
				require.InDelta(t, vals[k]*vecs[i*n+k], sum, 1e-9, b.Name())
			}
		}
		if ref == nil {
			ref = vals
			continue
		}
		require.InDeltaSlice(t, ref, vals, 1e-9)
	}
}

func TestEigenHermitian_Equivalence(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	const n = 5
	h := randomHermitian(rng, n)

	var ref []float64
	for _, b := range backends(t) {
		vals, vecs, err := b.EigenHermitian(h, n)
		require.NoError(t, err, b.Name())
		for i := 1; i < n; i++ {
			require.LessOrEqual(t, vals[i-1], vals[i])
		}
		// Unitary and eigen-equation.
		for p := 0; p < n; p++ {
			for q := 0; q < n; q++ {
				var dot complex128
				for i := 0; i < n; i++ {
					dot += cmplx.Conj(vecs[i*n+p]) * vecs[i*n+q]
				}
				want := complex(0, 0)
				if p == q {
					want = 1
				}
				require.InDelta(t, 0.0, cmplx.Abs(dot-want), 1e-9)
			}
			for i := 0; i < n; i++ {
				var hv complex128
				for j := 0; j < n; j++ {
					hv += h[i*n+j] * vecs[j*n+p]
				}
				require.InDelta(t, 0.0, cmplx.Abs(hv-complex(vals[p], 0)*vecs[i*n+p]), 1e-8)
			}
		}
		if ref == nil {
			ref = vals
			continue
		}
		require.InDeltaSlice(t, ref, vals, 1e-9)
	}
}

func TestInvert_Equivalence(t *testing.T) {
	t.Parallel()

	a := mat.NewDense(3, 3, []float64{
		5, -1, 0.5,
		-1, 4, -0.25,
		0.5, -0.25, 3,
	})
	var ref *mat.Dense
	for _, b := range backends(t) {
		inv, err := b.Invert(a)
		require.NoError(t, err, b.Name())
		var id mat.Dense
		id.Mul(a, inv)
		require.True(t, mat.EqualApprox(&id, eye(3), 1e-12), b.Name())
		if ref == nil {
			ref = inv
			continue
		}
		require.True(t, mat.EqualApprox(ref, inv, 1e-12))
	}
}

func TestInvert_Singular(t *testing.T) {
	t.Parallel()

	a := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
	for _, b := range backends(t) {
		_, err := b.Invert(a)
		require.ErrorIs(t, err, backend.ErrSingular, b.Name())
	}
}

func TestInvert_TinyPivot(t *testing.T) {
	t.Parallel()

	a := mat.NewDense(2, 2, []float64{1e-20, 1, 1, 1})
	_, err := backend.Reference{}.Invert(a)
	require.ErrorIs(t, err, backend.ErrSingular)

	inv, err := backend.Gonum{}.Invert(a)
	require.NoError(t, err)
	var id mat.Dense
	id.Mul(a, inv)
	require.True(t, mat.EqualApprox(&id, eye(2), 1e-12))
}

func TestGemm_Equivalence(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	fill := func(r, c int) backend.CMatrix {
		m := backend.NewCMatrix(r, c)
		for i := range m.Data {
			m.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		}

		return m
	}
	a := fill(4, 3)
	b := fill(4, 5)
	c := fill(3, 5)

	bs := backends(t)
	var refT, refN backend.CMatrix
	for idx, be := range bs {
		outT, err := be.Gemm(true, a, b)
		require.NoError(t, err)
		require.Equal(t, 3, outT.Rows)
		require.Equal(t, 5, outT.Cols)
		outN, err := be.Gemm(false, a, c)
		require.NoError(t, err)
		require.Equal(t, 4, outN.Rows)

		_, err = be.Gemm(false, a, b)
		require.ErrorIs(t, err, backend.ErrShape)

		if idx == 0 {
			refT, refN = outT, outN
			continue
		}
		for i := range outT.Data {
			require.InDelta(t, 0.0, cmplx.Abs(outT.Data[i]-refT.Data[i]), 1e-12)
		}
		for i := range outN.Data {
			require.InDelta(t, 0.0, cmplx.Abs(outN.Data[i]-refN.Data[i]), 1e-12)
		}
	}

	// Spot-check one transposed entry by hand.
	var want complex128
	for l := 0; l < 4; l++ {
		want += a.At(l, 1) * b.At(l, 2)
	}
	require.InDelta(t, 0.0, cmplx.Abs(refT.At(1, 2)-want), 1e-12)
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}

	return m
}
