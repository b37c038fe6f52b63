// SPDX-License-Identifier: MIT

// Package units - physical constants and unit conversions shared by the solvers.
//
// Unit system used throughout the module:
//   - length: Å; mass: amu; energy: eV.
//   - frequency f: THz (cycles per ps); angular frequency ω = 2πf: rad/ps.
//   - dynamical matrix: (rad/ps)²; velocities: Å/ps (= 100 m/s).
//   - bandwidth Γ: rad/ps (inverse lifetime, τ = 1/Γ in ps).
//   - heat capacity: J/K per mode; conductivity: W/(m·K).
package units

import "math"

// SI base constants (CODATA 2018, exact where defined).
const (
	Boltzmann     = 1.380649e-23   // J/K
	Planck        = 6.62607015e-34 // J·s
	Hbar          = Planck / (2 * math.Pi)
	ElectronVolt  = 1.602176634e-19   // J
	AtomicMass    = 1.66053906660e-27 // kg
	Avogadro      = 6.02214076e23     // 1/mol
	AngstromMeter = 1e-10
	Picosecond    = 1e-12
)

// Derived conversions.
const (
	// KelvinToTHz maps a temperature to k_B·T/h in THz.
	KelvinToTHz = Boltzmann / Planck * 1e-12

	// KelvinToJoule maps a temperature in K to k_B·T in J.
	KelvinToJoule = Boltzmann

	// EVToTenJOverMol converts eV/(Å²·amu) into (rad/ps)².
	EVToTenJOverMol = Avogadro * ElectronVolt / 10

	// THzToMeV converts a cyclic frequency in THz into an energy in meV.
	THzToMeV = Planck * 1e12 / ElectronVolt * 1e3

	// GammaToTHz converts ħ·|V|²·δ/ω³, with V in eV/(Å³·amu^{3/2}),
	// ω in rad/ps and δ in ps, into rad/ps.
	GammaToTHz = Hbar * ElectronVolt * ElectronVolt /
		(AtomicMass * AtomicMass * AtomicMass) /
		(AngstromMeter * AngstromMeter * AngstromMeter * AngstromMeter * AngstromMeter * AngstromMeter) *
		(Picosecond * Picosecond * Picosecond * Picosecond) * Picosecond

	// ConductivityPrefactor turns Σ c·v·v·τ / V (J/K · Å²/ps² · ps / Å³) into W/(m·K).
	ConductivityPrefactor = 1e22
)

// AngularToMeV converts an angular frequency (rad/ps) into meV.
func AngularToMeV(omega float64) float64 {
	return omega / (2 * math.Pi) * THzToMeV
}
