// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides (KAPPA_TEMPERATURE, ...).
const EnvPrefix = "KAPPA"

// Load reads the YAML file at path on top of Default, applies KAPPA_*
// environment overrides for scalar keys, and validates the result.
// An empty path loads defaults plus environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	cfg := Default()

	v.SetDefault("kpts", cfg.Kpts[:])
	v.SetDefault("is_classic", cfg.IsClassic)
	v.SetDefault("temperature", cfg.Temperature)
	v.SetDefault("frequency_threshold", cfg.FrequencyThreshold)
	v.SetDefault("is_nw", cfg.IsNW)
	v.SetDefault("broadening_shape", cfg.BroadeningShape)
	v.SetDefault("is_conserving_momentum", cfg.IsConservingMomentum)
	v.SetDefault("diffusivity_shape", cfg.DiffusivityShape)
	v.SetDefault("diffusivity_storage", cfg.DiffusivityStorage)
	v.SetDefault("is_diffusivity_including_antiresonant", cfg.IsDiffusivityIncludingAntiresonant)
	v.SetDefault("is_symmetrizing_frequency", cfg.IsSymmetrizingFrequency)
	v.SetDefault("is_antisymmetrizing_velocity", cfg.IsAntisymmetrizingVelocity)
	v.SetDefault("instability_tolerance", cfg.InstabilityTolerance)
	v.SetDefault("velocity_residual_tolerance", cfg.VelocityResidualTolerance)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("storage", cfg.Storage)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, key := range []string{"min_frequency", "max_frequency", "sigma_in", "diffusivity_threshold", "diffusivity_bandwidth"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("Load: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("Load: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("Load: %v: %w", err, ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}

	return cfg, nil
}
