// SPDX-License-Identifier: MIT
package anharmonic_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kappa/anharmonic"
	"github.com/katalvlaran/kappa/config"
	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/harmonic"
	"github.com/katalvlaran/kappa/models"
)

func sigma(thz float64) *float64 { return &thz }

func clusterEngine(t *testing.T, mutate func(*config.Config)) *anharmonic.Engine {
	t.Helper()
	fc, err := models.Cluster(models.DefaultCluster())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.SigmaIn = sigma(0.5)
	if mutate != nil {
		mutate(&cfg)
	}
	h, err := harmonic.New(fc, cfg)
	require.NoError(t, err)

	return anharmonic.New(h)
}

func cubicEngine(t *testing.T, mutate func(*config.Config)) *anharmonic.Engine {
	t.Helper()
	fc, err := models.SimpleCubic(models.DefaultCubic())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Kpts = [3]int{3, 3, 3}
	cfg.SigmaIn = sigma(5)
	if mutate != nil {
		mutate(&cfg)
	}
	h, err := harmonic.New(fc, cfg)
	require.NoError(t, err)

	return anharmonic.New(h)
}

func TestScattering_MissingData(t *testing.T) {
	t.Parallel()

	p := models.DefaultCubic()
	p.Cubic = 0
	fc, err := models.SimpleCubic(p)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Kpts = [3]int{3, 3, 3}
	h, err := harmonic.New(fc, cfg)
	require.NoError(t, err)

	_, err = anharmonic.New(h).Bandwidth()
	require.ErrorIs(t, err, anharmonic.ErrMissingData)
	require.ErrorIs(t, err, forceconstants.ErrMissingThirdOrder)
}

func TestScattering_NonNegative(t *testing.T) {
	t.Parallel()

	for _, shape := range []string{"gauss", "triangle"} {
		shape := shape
		t.Run(shape, func(t *testing.T) {
			t.Parallel()

			e := clusterEngine(t, func(c *config.Config) { c.BroadeningShape = shape })
			r, err := e.Scattering(false)
			require.NoError(t, err)
			require.Nil(t, r.Tensor)
			phys, err := e.Harmonic().PhysicalModes()
			require.NoError(t, err)

			for i, g := range r.Bandwidth {
				if !phys[i] {
					require.Zero(t, g)
					require.Zero(t, r.PhaseSpace[i])
					continue
				}
				require.GreaterOrEqual(t, g, 0.0, "mode %d", i)
				require.GreaterOrEqual(t, r.PhaseSpace[i], 0.0, "mode %d", i)
			}
			require.Greater(t, floats.Max(r.Bandwidth), 0.0)
		})
	}
}

func TestScattering_ReducedIdenticalWithTensor(t *testing.T) {
	t.Parallel()

	for name, build := range map[string]func(*testing.T, func(*config.Config)) *anharmonic.Engine{
		"cluster": clusterEngine,
		"cubic":   cubicEngine,
	} {
		build := build
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reduced, err := build(t, nil).Scattering(false)
			require.NoError(t, err)
			full, err := build(t, nil).Scattering(true)
			require.NoError(t, err)
			require.NotNil(t, full.Tensor)
			require.True(t, mat.Equal(reduced.Reduced(), full.Reduced()))
		})
	}
}

func TestScattering_Cached(t *testing.T) {
	t.Parallel()

	e := clusterEngine(t, nil)
	full, err := e.Scattering(true)
	require.NoError(t, err)
	again, err := e.Scattering(false)
	require.NoError(t, err)
	require.Same(t, full, again)
}

func TestScattering_BackendsAgree(t *testing.T) {
	t.Parallel()

	// The cluster has no degenerate branches, so Γ per mode is gauge independent.
	var results [][]float64
	for _, name := range []string{config.BackendReference, config.BackendGonum} {
		name := name
		e := clusterEngine(t, func(c *config.Config) { c.Backend = name })
		g, err := e.Bandwidth()
		require.NoError(t, err)
		results = append(results, g)
	}
	scale := floats.Norm(results[1], math.Inf(1))
	require.Greater(t, scale, 0.0)
	for i := range results[0] {
		require.InDelta(t, results[1][i], results[0][i], 1e-8*scale, "mode %d", i)
	}
}

func TestScattering_ConservingMomentumIsStable(t *testing.T) {
	t.Parallel()

	want, err := clusterEngine(t, nil).Bandwidth()
	require.NoError(t, err)
	got, err := clusterEngine(t, func(c *config.Config) { c.IsConservingMomentum = true }).Bandwidth()
	require.NoError(t, err)
	scale := floats.Max(want)
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-9*scale)
	}
}

func TestScattering_AdaptiveWidth(t *testing.T) {
	t.Parallel()

	for name, e := range map[string]*anharmonic.Engine{
		"cluster": clusterEngine(t, func(c *config.Config) { c.SigmaIn = nil }),
		"cubic":   cubicEngine(t, func(c *config.Config) { c.SigmaIn = nil }),
	} {
		r, err := e.Scattering(false)
		require.NoError(t, err, name)
		for i := range r.Bandwidth {
			require.False(t, math.IsNaN(r.Bandwidth[i]) || math.IsInf(r.Bandwidth[i], 0), "%s mode %d", name, i)
			require.False(t, math.IsNaN(r.PhaseSpace[i]) || math.IsInf(r.PhaseSpace[i], 0), "%s mode %d", name, i)
		}
	}
}

func TestScatteringMatrix(t *testing.T) {
	t.Parallel()

	e := clusterEngine(t, nil)
	omega, index, err := e.ScatteringMatrix()
	require.NoError(t, err)
	r, err := e.Scattering(true)
	require.NoError(t, err)
	freq, err := e.Harmonic().Frequencies()
	require.NoError(t, err)

	rows, cols := omega.Dims()
	require.Equal(t, len(index), rows)
	require.Equal(t, rows, cols)
	require.Equal(t, 21, rows)
	for a, ia := range index {
		require.InDelta(t, r.Bandwidth[ia]-r.Tensor.At(ia, ia), omega.At(a, a), 1e-12*math.Max(1, r.Bandwidth[ia]))
		for b, ib := range index {
			if a == b {
				continue
			}
			require.InDelta(t, -r.Tensor.At(ia, ib)*freq[ib]/freq[ia], omega.At(a, b), 1e-12)
		}
	}
}
