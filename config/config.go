// SPDX-License-Identifier: MIT

// Package config is the single configuration record shared by every engine.
//
// Defaults live in Default; Validate rejects inconsistent records with errors
// wrapping ErrConfiguration; Load reads YAML files and KAPPA_* environment
// variables through viper.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/katalvlaran/kappa/broadening"
)

// ErrConfiguration is wrapped by every validation failure.
var ErrConfiguration = errors.New("config: invalid configuration")

// Supported backends and storage modes.
const (
	BackendReference = "reference"
	BackendGonum     = "gonum"

	StorageMemory = "memory"

	DiffusivityAuto   = ""
	DiffusivityDense  = "dense"
	DiffusivitySparse = "sparse"
)

// Config holds every recognized option. Optional values are pointers: nil means unset.
type Config struct {
	Kpts        [3]int  `mapstructure:"kpts" yaml:"kpts,flow"`
	IsClassic   bool    `mapstructure:"is_classic" yaml:"is_classic"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	FrequencyThreshold float64  `mapstructure:"frequency_threshold" yaml:"frequency_threshold"`
	MinFrequency       *float64 `mapstructure:"min_frequency" yaml:"min_frequency,omitempty"`
	MaxFrequency       *float64 `mapstructure:"max_frequency" yaml:"max_frequency,omitempty"`
	IsNW               bool     `mapstructure:"is_nw" yaml:"is_nw"`

	SigmaIn              *float64 `mapstructure:"sigma_in" yaml:"sigma_in,omitempty"`
	BroadeningShape      string   `mapstructure:"broadening_shape" yaml:"broadening_shape"`
	IsConservingMomentum bool     `mapstructure:"is_conserving_momentum" yaml:"is_conserving_momentum"`

	DiffusivityThreshold               *float64 `mapstructure:"diffusivity_threshold" yaml:"diffusivity_threshold,omitempty"`
	DiffusivityBandwidth               *float64 `mapstructure:"diffusivity_bandwidth" yaml:"diffusivity_bandwidth,omitempty"`
	DiffusivityShape                   string   `mapstructure:"diffusivity_shape" yaml:"diffusivity_shape"`
	DiffusivityStorage                 string   `mapstructure:"diffusivity_storage" yaml:"diffusivity_storage,omitempty"`
	IsDiffusivityIncludingAntiresonant bool     `mapstructure:"is_diffusivity_including_antiresonant" yaml:"is_diffusivity_including_antiresonant"`

	IsSymmetrizingFrequency    bool    `mapstructure:"is_symmetrizing_frequency" yaml:"is_symmetrizing_frequency"`
	IsAntisymmetrizingVelocity bool    `mapstructure:"is_antisymmetrizing_velocity" yaml:"is_antisymmetrizing_velocity"`
	InstabilityTolerance       float64 `mapstructure:"instability_tolerance" yaml:"instability_tolerance"`
	VelocityResidualTolerance  float64 `mapstructure:"velocity_residual_tolerance" yaml:"velocity_residual_tolerance"`

	Workers int    `mapstructure:"workers" yaml:"workers"`
	Backend string `mapstructure:"backend" yaml:"backend"`
	Storage string `mapstructure:"storage" yaml:"storage"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Kpts:                       [3]int{1, 1, 1},
		Temperature:                300,
		FrequencyThreshold:         0.001,
		BroadeningShape:            broadening.Gauss.String(),
		DiffusivityShape:           broadening.Lorentz.String(),
		IsSymmetrizingFrequency:    true,
		IsAntisymmetrizingVelocity: true,
		InstabilityTolerance:       1e-3,
		VelocityResidualTolerance:  1e-6,
		Workers:                    runtime.GOMAXPROCS(0),
		Backend:                    BackendGonum,
		Storage:                    StorageMemory,
	}
}

// FieldError names the offending key; it unwraps to ErrConfiguration.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: field %q: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *FieldError) Unwrap() error { return ErrConfiguration }

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks ranges and cross-field consistency.
func (c Config) Validate() error {
	for i, k := range c.Kpts {
		if k <= 0 {
			return fieldErr("kpts", "dimension %d is %d, want > 0", i, k)
		}
	}
	if !(c.Temperature > 0) {
		return fieldErr("temperature", "%g K, want > 0", c.Temperature)
	}
	if c.FrequencyThreshold < 0 {
		return fieldErr("frequency_threshold", "%g, want >= 0", c.FrequencyThreshold)
	}
	if c.MinFrequency != nil && c.MaxFrequency != nil && *c.MinFrequency >= *c.MaxFrequency {
		return fieldErr("min_frequency", "%g >= max_frequency %g", *c.MinFrequency, *c.MaxFrequency)
	}
	if c.SigmaIn != nil && !(*c.SigmaIn > 0) {
		return fieldErr("sigma_in", "%g, want > 0", *c.SigmaIn)
	}
	if _, err := broadening.Parse(c.BroadeningShape); err != nil {
		return fieldErr("broadening_shape", "%v", err)
	}
	if _, err := broadening.Parse(c.DiffusivityShape); err != nil {
		return fieldErr("diffusivity_shape", "%v", err)
	}
	if c.DiffusivityThreshold != nil && !(*c.DiffusivityThreshold > 0) {
		return fieldErr("diffusivity_threshold", "%g, want > 0", *c.DiffusivityThreshold)
	}
	if c.DiffusivityBandwidth != nil && !(*c.DiffusivityBandwidth > 0) {
		return fieldErr("diffusivity_bandwidth", "%g, want > 0", *c.DiffusivityBandwidth)
	}
	switch c.DiffusivityStorage {
	case DiffusivityAuto, DiffusivityDense:
	case DiffusivitySparse:
		if c.DiffusivityThreshold == nil {
			return fieldErr("diffusivity_storage", "sparse storage requires diffusivity_threshold")
		}
	default:
		return fieldErr("diffusivity_storage", "unknown mode %q", c.DiffusivityStorage)
	}
	if c.InstabilityTolerance < 0 {
		return fieldErr("instability_tolerance", "%g, want >= 0", c.InstabilityTolerance)
	}
	if c.VelocityResidualTolerance < 0 {
		return fieldErr("velocity_residual_tolerance", "%g, want >= 0", c.VelocityResidualTolerance)
	}
	if c.Workers < 0 {
		return fieldErr("workers", "%d, want >= 0", c.Workers)
	}
	switch c.Backend {
	case BackendReference, BackendGonum:
	default:
		return fieldErr("backend", "unknown backend %q", c.Backend)
	}
	if c.Storage != StorageMemory {
		return fieldErr("storage", "unsupported storage %q, only %q is available", c.Storage, StorageMemory)
	}

	return nil
}

// Broadening returns the anharmonic kernel shape.
func (c Config) Broadening() (broadening.Shape, error) {
	s, err := broadening.Parse(c.BroadeningShape)
	if err != nil {
		return 0, fieldErr("broadening_shape", "%v", err)
	}

	return s, nil
}

// Diffusivity returns the diffusivity kernel shape.
func (c Config) Diffusivity() (broadening.Shape, error) {
	s, err := broadening.Parse(c.DiffusivityShape)
	if err != nil {
		return 0, fieldErr("diffusivity_shape", "%v", err)
	}

	return s, nil
}

// NKPoints returns the mesh size.
func (c Config) NKPoints() int { return c.Kpts[0] * c.Kpts[1] * c.Kpts[2] }

// IsAmorphous reports a single-point mesh.
func (c Config) IsAmorphous() bool { return c.Kpts == [3]int{1, 1, 1} }

// SparseDiffusivity reports whether the diffusivity keeps only near-resonant pairs.
func (c Config) SparseDiffusivity() bool {
	switch c.DiffusivityStorage {
	case DiffusivitySparse:
		return true
	case DiffusivityDense:
		return false
	default:
		return c.DiffusivityThreshold != nil
	}
}

// WorkerLimit returns the errgroup limit (GOMAXPROCS when Workers is 0).
func (c Config) WorkerLimit() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}

	return c.Workers
}
