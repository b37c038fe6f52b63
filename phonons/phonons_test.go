// SPDX-License-Identifier: MIT
package phonons_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/kappa/conductivity"
	"github.com/katalvlaran/kappa/config"
	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/logging"
	"github.com/katalvlaran/kappa/models"
	"github.com/katalvlaran/kappa/phonons"
	"github.com/katalvlaran/kappa/units"
)

const fixture = "testdata/si-amorphous.yaml"

func ptr(v float64) *float64 { return &v }

func TestFacade_Cluster(t *testing.T) {
	t.Parallel()

	fc, err := models.Cluster(models.DefaultCluster())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.SigmaIn = ptr(0.5)
	p, err := phonons.New(fc, cfg, phonons.WithLogger(logging.Discard()), phonons.WithIterations(2))
	require.NoError(t, err)

	freq, err := p.Frequency()
	require.NoError(t, err)
	require.Len(t, freq, 24)
	vel, err := p.Velocity()
	require.NoError(t, err)
	require.Len(t, vel, 24)
	pop, err := p.Occupation()
	require.NoError(t, err)
	cv, err := p.HeatCapacity()
	require.NoError(t, err)
	phys, err := p.PhysicalMode()
	require.NoError(t, err)
	gamma, err := p.Bandwidth()
	require.NoError(t, err)
	ps, err := p.PhaseSpace()
	require.NoError(t, err)
	for i := range freq {
		if !phys[i] {
			require.Zero(t, pop[i])
			require.Zero(t, cv[i])
			require.Zero(t, gamma[i])
			require.Zero(t, ps[i])
		}
	}

	d, err := p.Diffusivity()
	require.NoError(t, err)
	nk, nm := d.Shape()
	require.Equal(t, 1, nk)
	require.Equal(t, 24, nm)

	k, err := p.Conductivity(conductivity.QHGK)
	require.NoError(t, err)
	for a := 0; a < 3; a++ {
		require.Greater(t, k.Total[a][a], 0.0)
	}
	require.Empty(t, p.Warnings())
	require.Equal(t, cfg, p.Config())
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	fc, err := models.Cluster(models.DefaultCluster())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.BroadeningShape = "box"
	_, err = phonons.New(fc, cfg)
	require.ErrorIs(t, err, config.ErrConfiguration)
}

func TestLoad_FromFiles(t *testing.T) {
	fc, err := models.SimpleCubic(models.DefaultCubic())
	require.NoError(t, err)
	dir := t.TempDir()
	fcPath := filepath.Join(dir, "fc.yaml")
	f, err := os.Create(fcPath)
	require.NoError(t, err)
	require.NoError(t, forceconstants.Encode(f, fc))
	require.NoError(t, f.Close())

	cfgPath := filepath.Join(dir, "kappa.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("kpts: [3, 3, 3]\nsigma_in: 5\nbackend: reference\n"), 0o600))

	loaded, err := phonons.Load(fcPath, cfgPath)
	require.NoError(t, err)
	require.Equal(t, [3]int{3, 3, 3}, loaded.Config().Kpts)
	require.Equal(t, config.BackendReference, loaded.Harmonic().Backend().Name())

	cfg := config.Default()
	cfg.Kpts = [3]int{3, 3, 3}
	cfg.Backend = config.BackendReference
	direct, err := phonons.New(fc, cfg)
	require.NoError(t, err)

	want, err := direct.Frequency()
	require.NoError(t, err)
	got, err := loaded.Frequency()
	require.NoError(t, err)
	require.InDeltaSlice(t, want, got, 1e-12)

	_, err = phonons.Load(filepath.Join(dir, "missing.yaml"), cfgPath)
	require.Error(t, err)
}

// The fixture holds the 512-atom amorphous silicon force constants as a
// forceconstants document; it is large and kept out of the repository.
func loadFixture(t *testing.T, classic bool) *phonons.Phonons {
	t.Helper()
	if _, err := os.Stat(fixture); err != nil {
		t.Skipf("fixture %s not present", fixture)
	}
	fc, err := forceconstants.Load(fixture)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.IsClassic = classic
	cfg.Temperature = 300
	cfg.SigmaIn = ptr(0.05 / 4.135)
	cfg.BroadeningShape = "triangle"
	p, err := phonons.New(fc, cfg)
	require.NoError(t, err)

	return p
}

func requireSignificant(t *testing.T, want, got float64, digits int) {
	t.Helper()
	require.InDelta(t, want, got, math.Abs(want)*math.Pow(10, -float64(digits)+1)/2)
}

func TestRegression_AmorphousSiliconClassic(t *testing.T) {
	t.Parallel()

	p := loadFixture(t, true)
	gamma, err := p.Bandwidth()
	require.NoError(t, err)
	requireSignificant(t, 3.358182, gamma[250], 4)
}

func TestRegression_AmorphousSiliconQuantum(t *testing.T) {
	t.Parallel()

	p := loadFixture(t, false)
	gamma, err := p.Bandwidth()
	require.NoError(t, err)
	requireSignificant(t, 22.216, units.AngularToMeV(gamma[3]), 3)
	requireSignificant(t, 23.748, units.AngularToMeV(gamma[4]), 3)
}
