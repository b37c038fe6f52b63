// SPDX-License-Identifier: MIT
package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/kappa/broadening"
	"github.com/katalvlaran/kappa/config"
)

func ptr(v float64) *float64 { return &v }

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	require.True(t, cfg.IsAmorphous())
	require.Equal(t, 1, cfg.NKPoints())
	require.False(t, cfg.SparseDiffusivity())

	shape, err := cfg.Broadening()
	require.NoError(t, err)
	require.Equal(t, broadening.Gauss, shape)
	shape, err = cfg.Diffusivity()
	require.NoError(t, err)
	require.Equal(t, broadening.Lorentz, shape)
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		field string
		edit  func(c *config.Config)
	}{
		{"mesh", "kpts", func(c *config.Config) { c.Kpts = [3]int{4, 0, 4} }},
		{"temperature", "temperature", func(c *config.Config) { c.Temperature = -1 }},
		{"shape", "broadening_shape", func(c *config.Config) { c.BroadeningShape = "box" }},
		{"diffusivity shape", "diffusivity_shape", func(c *config.Config) { c.DiffusivityShape = "" }},
		{"sparse without threshold", "diffusivity_storage", func(c *config.Config) { c.DiffusivityStorage = config.DiffusivitySparse }},
		{"frequency window", "min_frequency", func(c *config.Config) { c.MinFrequency, c.MaxFrequency = ptr(5), ptr(1) }},
		{"sigma", "sigma_in", func(c *config.Config) { c.SigmaIn = ptr(0) }},
		{"backend", "backend", func(c *config.Config) { c.Backend = "cuda" }},
		{"storage", "storage", func(c *config.Config) { c.Storage = "hdf5" }},
		{"workers", "workers", func(c *config.Config) { c.Workers = -2 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tc.edit(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, config.ErrConfiguration)
			var fe *config.FieldError
			require.True(t, errors.As(err, &fe))
			require.Equal(t, tc.field, fe.Field)
		})
	}
}

func TestSparseDiffusivity_Selection(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.DiffusivityThreshold = ptr(2)
	require.True(t, cfg.SparseDiffusivity())
	cfg.DiffusivityStorage = config.DiffusivityDense
	require.False(t, cfg.SparseDiffusivity())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kappa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kpts: [5, 5, 5]
is_classic: true
temperature: 150
sigma_in: 0.1
broadening_shape: triangle
backend: reference
`), 0o644))
	t.Setenv("KAPPA_TEMPERATURE", "200")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, [3]int{5, 5, 5}, cfg.Kpts)
	require.True(t, cfg.IsClassic)
	require.Equal(t, 200.0, cfg.Temperature, "environment overrides the file")
	require.NotNil(t, cfg.SigmaIn)
	require.Equal(t, 0.1, *cfg.SigmaIn)
	require.Equal(t, "triangle", cfg.BroadeningShape)
	require.Equal(t, config.BackendReference, cfg.Backend)
	require.Nil(t, cfg.DiffusivityThreshold)
	require.True(t, cfg.IsSymmetrizingFrequency, "defaults survive")
	require.Equal(t, 0.001, cfg.FrequencyThreshold)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: disk\n"), 0o644))

	_, err := config.Load(path)
	require.ErrorIs(t, err, config.ErrConfiguration)
}
