// Package kappa computes phonon transport in crystalline and amorphous solids
// from interatomic force constants.
//
// What is kappa?
//
//	A pure-Go pipeline that takes second- (and optionally third-) order force
//	constants and produces:
//		• Harmonic phonons: frequencies, eigenvectors, group velocities, DOS
//		• Thermal populations: Bose–Einstein or classical occupations, heat capacity
//		• Three-phonon scattering: phase space, bandwidths, full scattering matrix
//		• Generalized mode-pair diffusivity (dense or sparse)
//		• Thermal conductivity: RTA, self-consistent, direct inversion, QHGK
//
// Packages, leaves first:
//
//	units/          physical constants and conversions
//	matrix/         dense kernels: Jacobi eigen, LU inverse, Hermitian embedding
//	backend/        linear-algebra strategy: reference (matrix) or gonum
//	structure/      immutable atoms record
//	forceconstants/ second/third order operators and their YAML document
//	broadening/     Gauss, Lorentz and triangle delta substitutes
//	lazy/           compute-once cache
//	tensor/         dense and sparse mode-pair tensors
//	config/         configuration record, validation, viper loader
//	logging/        logr over zap
//	harmonic/       dynamical matrix, eigensystem, flux, velocities, thermal
//	anharmonic/     bandwidth, phase space, scattering tensor
//	diffusivity/    generalized diffusivity
//	conductivity/   conductivity tensors
//	phonons/        facade wiring everything together
//	models/         reference force-constant sets
//	cmd/kappa/      command line
//
// Quick example:
//
//	fc, _ := models.SimpleCubic(models.DefaultCubic())
//	cfg := config.Default()
//	cfg.Kpts = [3]int{5, 5, 5}
//	p, _ := phonons.New(fc, cfg)
//	k, _ := p.Conductivity(conductivity.Inverse)
//
//	go install github.com/katalvlaran/kappa/cmd/kappa@latest
package kappa
