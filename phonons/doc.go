// SPDX-License-Identifier: MIT

// Package phonons wires one configuration and one set of force constants into
// the harmonic, anharmonic, diffusivity and conductivity engines and exposes
// their results through read-only accessors.
//
// Every accessor is computed on first use and cached by the engine that owns it.
// Flat per-mode slices are indexed k·NModes + branch.
//
// Usage:
//
//	fc, _ := forceconstants.Load("fc.yaml")
//	cfg, _ := config.Load("kappa.yaml")
//	p, _ := phonons.New(fc, cfg, phonons.WithLogger(log))
//	k, _ := p.Conductivity(conductivity.Inverse)
//
// Complexity (N_k k-points, N_m modes per k-point):
//   - Frequency and Velocity: N_k eigenproblems of size N_m.
//   - Bandwidth: O(N_k²·N_m³) three-phonon terms.
//   - Diffusivity: O(N_k·N_m²) pairs.
//
// Errors:
//   - config.ErrConfiguration from New and Load.
//   - forceconstants errors from Load when the document is malformed.
//   - engine errors are returned unchanged by the accessors.
package phonons
