// SPDX-License-Identifier: MIT
package conductivity_test

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/kappa/anharmonic"
	"github.com/katalvlaran/kappa/conductivity"
	"github.com/katalvlaran/kappa/config"
	"github.com/katalvlaran/kappa/diffusivity"
	"github.com/katalvlaran/kappa/harmonic"
	"github.com/katalvlaran/kappa/models"
	"github.com/katalvlaran/kappa/tensor"
	"github.com/katalvlaran/kappa/units"
)

func ptr(v float64) *float64 { return &v }

func cubicEngine(t testing.TB, opts ...conductivity.Option) (*conductivity.Engine, *harmonic.Solver) {
	t.Helper()

	return cubicEngineLogged(t, logr.Discard(), opts...)
}

func cubicEngineLogged(t testing.TB, log logr.Logger, opts ...conductivity.Option) (*conductivity.Engine, *harmonic.Solver) {
	t.Helper()
	fc, err := models.SimpleCubic(models.DefaultCubic())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Kpts = [3]int{3, 3, 3}
	cfg.SigmaIn = ptr(5)
	h, err := harmonic.New(fc, cfg, harmonic.WithLogger(log))
	require.NoError(t, err)
	an := anharmonic.New(h)

	return conductivity.New(h, an, diffusivity.New(h, an), opts...), h
}

func clusterEngine(t *testing.T, mutate func(*config.Config)) (*conductivity.Engine, *harmonic.Solver) {
	t.Helper()
	fc, err := models.Cluster(models.DefaultCluster())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.SigmaIn = ptr(0.5)
	if mutate != nil {
		mutate(&cfg)
	}
	h, err := harmonic.New(fc, cfg)
	require.NoError(t, err)
	an := anharmonic.New(h)

	return conductivity.New(h, an, diffusivity.New(h, an)), h
}

func requireConsistent(t *testing.T, r *conductivity.Result, phys []bool) {
	t.Helper()
	var sum [3][3]float64
	for mu, k := range r.PerMode {
		if !phys[mu] {
			require.Equal(t, [3][3]float64{}, k, "mode %d", mu)
		}
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				require.False(t, math.IsNaN(k[a][b]) || math.IsInf(k[a][b], 0))
				sum[a][b] += k[a][b]
			}
		}
	}
	require.Equal(t, sum, r.Total)
}

func TestRTA_SelfConsistentZero(t *testing.T) {
	t.Parallel()

	e, h := cubicEngine(t)
	rta, err := e.RTA()
	require.NoError(t, err)
	sc0, err := e.SelfConsistent(0)
	require.NoError(t, err)
	require.Same(t, rta, sc0)

	phys, err := h.PhysicalModes()
	require.NoError(t, err)
	requireConsistent(t, rta, phys)

	_, err = e.SelfConsistent(-1)
	require.ErrorIs(t, err, conductivity.ErrInvalidIterations)
}

func TestMethods_Crystal(t *testing.T) {
	t.Parallel()

	e, h := cubicEngine(t, conductivity.WithIterations(3))
	phys, err := h.PhysicalModes()
	require.NoError(t, err)
	for _, m := range conductivity.Methods() {
		r, err := e.Compute(m)
		require.NoError(t, err, m.String())
		requireConsistent(t, r, phys)
	}

	sc, err := e.Compute(conductivity.SC)
	require.NoError(t, err)
	sc3, err := e.SelfConsistent(3)
	require.NoError(t, err)
	require.Same(t, sc, sc3)

	_, err = e.Compute(conductivity.Method(42))
	require.ErrorIs(t, err, conductivity.ErrUnknownMethod)
}

// maxConductivity bounds every component of the crystal tensors, W/(m·K).
const maxConductivity = 1e3

func requireBounded(t *testing.T, name string, r *conductivity.Result) {
	t.Helper()
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			require.Less(t, math.Abs(r.Total[a][b]), maxConductivity, "%s κ[%d][%d]", name, a, b)
		}
	}
}

func TestMethods_CrystalMagnitudes(t *testing.T) {
	t.Parallel()

	e, _ := cubicEngine(t, conductivity.WithIterations(3))
	results := make(map[conductivity.Method]*conductivity.Result)
	for _, m := range conductivity.Methods() {
		r, err := e.Compute(m)
		require.NoError(t, err, m.String())
		requireBounded(t, m.String(), r)
		results[m] = r
	}

	rta, inv := results[conductivity.RTA].Total, results[conductivity.Inverse].Total
	for a := 0; a < 3; a++ {
		require.Greater(t, rta[a][a], 0.0)
		require.Greater(t, inv[a][a], 0.0)
		ratio := inv[a][a] / rta[a][a]
		require.Greater(t, ratio, 0.1, "axis %d", a)
		require.Less(t, ratio, 10.0, "axis %d", a)
	}
}

func TestMethods_RoundoffBandwidthIgnored(t *testing.T) {
	t.Parallel()

	e, h := cubicEngine(t, conductivity.WithIterations(3))
	an := anharmonic.New(h)
	gamma, err := an.Bandwidth()
	require.NoError(t, err)
	phys, err := h.PhysicalModes()
	require.NoError(t, err)
	floor := anharmonic.Floor(gamma, phys)
	require.Greater(t, floor, 0.0)

	// Modes polarized along an axis with zero wavevector component do not couple.
	var silent []int
	for mu, g := range gamma {
		if phys[mu] && g <= floor {
			silent = append(silent, mu)
		}
	}
	require.NotEmpty(t, silent)

	for _, m := range []conductivity.Method{conductivity.RTA, conductivity.SC, conductivity.Inverse} {
		r, err := e.Compute(m)
		require.NoError(t, err, m.String())
		for _, mu := range silent {
			require.Equal(t, [3][3]float64{}, r.PerMode[mu], "%s mode %d", m, mu)
		}
	}
}

func TestSelfConsistent_WarnsWhenNotContracting(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		lines []string
	)
	log := funcr.New(func(prefix, args string) {
		mu.Lock()
		lines = append(lines, args)
		mu.Unlock()
	}, funcr.Options{})

	// σ = 5 THz exceeds the whole spectrum: the iteration map has radius ≈ 2.
	e, _ := cubicEngineLogged(t, log)
	_, err := e.SelfConsistent(12)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, strings.Join(lines, "\n"), "sc-divergence")
}

func TestRTA_SymmetricPerMode(t *testing.T) {
	t.Parallel()

	e, _ := cubicEngine(t)
	r, err := e.RTA()
	require.NoError(t, err)
	for mu, k := range r.PerMode {
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				require.Equal(t, k[a][b], k[b][a], "mode %d", mu)
			}
		}
	}
}

func TestQHGK_ClassicalMatchesDiffusivitySum(t *testing.T) {
	t.Parallel()

	fc, err := models.Cluster(models.DefaultCluster())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.IsClassic = true
	cfg.DiffusivityBandwidth = ptr(2)
	h, err := harmonic.New(fc, cfg)
	require.NoError(t, err)
	diff := diffusivity.New(h, nil)
	e := conductivity.New(h, nil, diff)

	r, err := e.QHGK()
	require.NoError(t, err)
	phys, err := h.PhysicalModes()
	require.NoError(t, err)
	requireConsistent(t, r, phys)

	d, err := diff.Diffusivity()
	require.NoError(t, err)
	pref := units.ConductivityPrefactor / fc.Atoms().Volume()
	want := tensor.Sum(d, func(tensor.Coord) float64 { return pref * units.KelvinToJoule })
	for a := 0; a < 3; a++ {
		require.Greater(t, r.Total[a][a], 0.0)
		for b := 0; b < 3; b++ {
			require.InDelta(t, want[a][b], r.Total[a][b], 1e-9*math.Abs(want[a][a]))
			require.InDelta(t, r.Total[a][b], r.Total[b][a], 1e-9*r.Total[a][a])
		}
	}

	_, err = e.RTA()
	require.ErrorIs(t, err, anharmonic.ErrMissingData)
}

func TestQHGK_QuantumBelowClassical(t *testing.T) {
	t.Parallel()

	quantum, _ := clusterEngine(t, func(c *config.Config) { c.DiffusivityBandwidth = ptr(2) })
	classic, _ := clusterEngine(t, func(c *config.Config) {
		c.DiffusivityBandwidth = ptr(2)
		c.IsClassic = true
	})
	q, err := quantum.QHGK()
	require.NoError(t, err)
	c, err := classic.QHGK()
	require.NoError(t, err)
	for a := 0; a < 3; a++ {
		require.Greater(t, q.Total[a][a], 0.0)
		require.Less(t, q.Total[a][a], c.Total[a][a])
	}
}

func TestInverse_NoPhysicalModes(t *testing.T) {
	t.Parallel()

	e, _ := clusterEngine(t, func(c *config.Config) { c.MinFrequency = ptr(1e6) })
	_, err := e.Inverse()
	require.ErrorIs(t, err, conductivity.ErrSingularSystem)
	require.ErrorIs(t, err, anharmonic.ErrNoPhysicalModes)
}

func TestQHGK_RequiresDiffusivity(t *testing.T) {
	t.Parallel()

	fc, err := models.Cluster(models.DefaultCluster())
	require.NoError(t, err)
	h, err := harmonic.New(fc, config.Default())
	require.NoError(t, err)
	_, err = conductivity.New(h, anharmonic.New(h), nil).QHGK()
	require.ErrorIs(t, err, diffusivity.ErrNoBandwidth)
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	for _, m := range conductivity.Methods() {
		got, err := conductivity.ParseMethod(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	got, err := conductivity.ParseMethod(" QHGK ")
	require.NoError(t, err)
	require.Equal(t, conductivity.QHGK, got)
	_, err = conductivity.ParseMethod("kubo")
	require.ErrorIs(t, err, conductivity.ErrUnknownMethod)
}
