// SPDX-License-Identifier: MIT
package conductivity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kappa/anharmonic"
	"github.com/katalvlaran/kappa/backend"
	"github.com/katalvlaran/kappa/config"
	"github.com/katalvlaran/kappa/harmonic"
	"github.com/katalvlaran/kappa/models"
)

func system(eps float64) ([]float64, *mat.Dense, *mat.Dense, *mat.Dense) {
	gamma := []float64{2, 3, 5}
	w := mat.NewDense(3, 3, []float64{
		0, 1, 0.5,
		0.3, 0, 0.2,
		0.1, 0.4, 0,
	})
	w.Scale(eps, w)
	omega := mat.NewDense(3, 3, nil)
	omega.Scale(-1, w)
	for a, g := range gamma {
		omega.Set(a, a, omega.At(a, a)+g)
	}
	v := mat.NewDense(3, 3, []float64{
		1, -2, 0.5,
		0.25, 3, -1,
		-4, 0.5, 2,
	})
	lambda0 := mat.NewDense(3, 3, nil)
	for a, g := range gamma {
		for c := 0; c < 3; c++ {
			lambda0.Set(a, c, v.At(a, c)/g)
		}
	}

	return gamma, omega, v, lambda0
}

func TestCouplings_RecoverW(t *testing.T) {
	t.Parallel()

	gamma, omega, _, _ := system(0.1)
	w := couplings(omega, gamma)
	require.InDelta(t, 0, w.At(0, 0), 1e-15)
	require.InDelta(t, 0.1, w.At(0, 1), 1e-15)
	require.InDelta(t, 0.04, w.At(2, 1), 1e-15)
}

func TestIterate_UncoupledIsRelaxed(t *testing.T) {
	t.Parallel()

	gamma, omega, v, lambda0 := system(0)
	w := couplings(omega, gamma)
	for _, n := range []int{0, 1, 7} {
		got, growth := iterate(gamma, w, lambda0, n)
		require.True(t, mat.Equal(lambda0, got), "n=%d", n)
		require.Zero(t, growth)
	}
	for _, name := range []string{backend.ReferenceName, backend.GonumName} {
		be, err := backend.New(name)
		require.NoError(t, err)
		lambda, err := solve(be, omega, v)
		require.NoError(t, err)
		require.True(t, mat.EqualApprox(lambda0, lambda, 1e-14), name)
	}
}

func TestIterate_ConvergesToInverse(t *testing.T) {
	t.Parallel()

	gamma, omega, v, lambda0 := system(0.5)
	w := couplings(omega, gamma)
	be, err := backend.New(backend.GonumName)
	require.NoError(t, err)
	want, err := solve(be, omega, v)
	require.NoError(t, err)

	prev := math.Inf(1)
	for _, n := range []int{1, 5, 80} {
		got, growth := iterate(gamma, w, lambda0, n)
		require.LessOrEqual(t, growth, 1.0, "n=%d", n)
		var diff mat.Dense
		diff.Sub(got, want)
		dist := mat.Norm(&diff, 2)
		require.Less(t, dist, prev, "n=%d", n)
		prev = dist
	}
	require.Less(t, prev, 1e-12)
}

func TestSolve_Singular(t *testing.T) {
	t.Parallel()

	for _, name := range []string{backend.ReferenceName, backend.GonumName} {
		be, err := backend.New(name)
		require.NoError(t, err)
		_, err = solve(be, mat.NewDense(2, 2, nil), mat.NewDense(2, 3, nil))
		require.ErrorIs(t, err, ErrSingularSystem, name)
		require.ErrorIs(t, err, backend.ErrSingular, name)
	}
}

func TestIterate_RoundoffBandwidthStaysZero(t *testing.T) {
	t.Parallel()

	gamma := []float64{2, 1e-32, 5}
	w := mat.NewDense(3, 3, []float64{
		0, 1, 0.5,
		0.3, 0, 0.2,
		0.1, 0.4, 0,
	})
	lambda0 := mat.NewDense(3, 3, []float64{
		0.5, -1, 0.25,
		0, 0, 0,
		-0.8, 0.1, 0.4,
	})
	got, _ := iterate(gamma, w, lambda0, 25)
	require.Equal(t, []float64{0, 0, 0}, mat.Row(nil, 1, got))

	omega := mat.NewDense(3, 3, nil)
	omega.Scale(-1, w)
	for a, g := range gamma {
		omega.Set(a, a, omega.At(a, a)+g)
	}
	kept, index := relaxing(omega, []int{0, 1, 2}, gamma, anharmonic.Floor(gamma, nil))
	require.Equal(t, []int{0, 2}, index)
	require.Equal(t, 5.0, kept.At(1, 1))
	require.Equal(t, -0.5, kept.At(0, 1))
}

func TestCrystal_WeakCouplingLimit(t *testing.T) {
	t.Parallel()

	fc, err := models.SimpleCubic(models.DefaultCubic())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Kpts = [3]int{3, 3, 3}
	s := 5.0
	cfg.SigmaIn = &s
	h, err := harmonic.New(fc, cfg)
	require.NoError(t, err)
	e := New(h, anharmonic.New(h), nil)

	kin, err := e.kinetic()
	require.NoError(t, err)
	omega, index, err := e.an.ScatteringMatrix()
	require.NoError(t, err)
	omega, index = relaxing(omega, index, kin.gamma, kin.floor)
	require.NotEmpty(t, index)
	gamma := gather(kin.gamma, index)
	w := couplings(omega, gamma)
	lambda0 := gatherRows(relaxed(kin), index)
	v := gatherRows(kin.vel, index)
	ref := mat.Norm(lambda0, 2)
	require.Greater(t, ref, 0.0)

	be, err := backend.New(backend.GonumName)
	require.NoError(t, err)
	prev := math.Inf(1)
	for _, eps := range []float64{1e-3, 1e-4, 1e-5} {
		var weak mat.Dense
		weak.Scale(eps, w)
		scaled := couplings(&weak, gamma) // diag(Γ) − εW
		want, err := solve(be, scaled, v)
		require.NoError(t, err)

		var diff mat.Dense
		diff.Sub(want, lambda0)
		dist := mat.Norm(&diff, 2) / ref
		require.Less(t, dist, prev/5, "eps=%g", eps)
		prev = dist

		sc, growth := iterate(gamma, &weak, lambda0, 40)
		require.Less(t, growth, 1.0, "eps=%g", eps)
		require.True(t, mat.EqualApprox(want, sc, 1e-10*ref), "eps=%g", eps)
	}
	require.Less(t, prev, 1e-3)
}
