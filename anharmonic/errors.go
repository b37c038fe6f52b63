// SPDX-License-Identifier: MIT
// Package anharmonic: sentinel errors.

package anharmonic

import "errors"

var (
	// ErrMissingData indicates that scattering was requested without a third order.
	// Errors carrying it also match forceconstants.ErrMissingThirdOrder.
	ErrMissingData = errors.New("anharmonic: third-order force constants required")

	// ErrNoPhysicalModes indicates an empty scattering matrix.
	ErrNoPhysicalModes = errors.New("anharmonic: no physical modes")
)
