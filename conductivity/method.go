// SPDX-License-Identifier: MIT

package conductivity

import (
	"fmt"
	"strings"
)

// Method selects the conductivity solver.
type Method int

const (
	// RTA is the relaxation-time approximation.
	RTA Method = iota
	// SC iterates the linearized Boltzmann equation a fixed number of times.
	SC
	// Inverse solves the linearized Boltzmann equation by direct inversion.
	Inverse
	// QHGK is the quasi-harmonic Green-Kubo sum over mode pairs.
	QHGK
)

// Methods lists every method in declaration order.
func Methods() []Method { return []Method{RTA, SC, Inverse, QHGK} }

func (m Method) String() string {
	switch m {
	case RTA:
		return "rta"
	case SC:
		return "sc"
	case Inverse:
		return "inverse"
	case QHGK:
		return "qhgk"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a name (case-insensitive) to a Method.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods() {
		if strings.EqualFold(strings.TrimSpace(name), m.String()) {
			return m, nil
		}
	}

	return 0, fmt.Errorf("ParseMethod(%q): %w", name, ErrUnknownMethod)
}
