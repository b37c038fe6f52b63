// SPDX-License-Identifier: MIT

// Package conductivity assembles the lattice thermal conductivity tensor
// (W/(m·K)) from harmonic, anharmonic and diffusivity data.
//
// Every method returns per-mode contributions and their sum, scaled by
// ConductivityPrefactor/(V·N_k) with V the cell volume in Å³:
//   - RTA:     κ_μ = c_μ v_μ ⊗ v_μ / Γ_μ;
//   - SC(n):   κ_μ = c_μ v_μ ⊗ λ_μ after n iterations of λ ← λ⁰ + (1/Γ)·W·λ;
//   - Inverse: κ_μ = c_μ v_μ ⊗ λ_μ with Ω·λ = v;
//   - QHGK:    κ_m = Σ_n c_mn D_mn.
//
// Modes whose Γ does not exceed anharmonic.Floor do not relax: they
// contribute zero to RTA, SC and Inverse, and get no bandwidth in QHGK.
//
// SC runs exactly the requested number of iterations. When the iteration map
// is not contracting the result grows with n; the engine logs an
// "sc-divergence" warning instead of stopping early.
//
// Complexity (N physical phonons):
//   - RTA:     O(N).
//   - SC(n):   O(n·N²).
//   - Inverse: O(N³) through the configured backend.
//   - QHGK:    O(stored diffusivity pairs).
//
// Errors:
//   - anharmonic.ErrMissingData when RTA, SC or Inverse has no third order.
//   - ErrSingularSystem when Ω cannot be inverted or no mode relaxes.
//   - ErrInvalidIterations for a negative SC count.
//   - ErrUnknownMethod from Compute and ParseMethod.
//   - diffusivity.ErrNoBandwidth when QHGK has no bandwidth source.
package conductivity
