// SPDX-License-Identifier: MIT

// Package harmonic solves the harmonic lattice-dynamics problem on a k-point mesh:
// dynamical matrices, eigensystems, frequencies, flux operators, group
// velocities, physical-mode masks, occupations and heat capacities.
//
// Every mesh quantity is computed at most once per Solver and cached.
// Loops over k-points run in parallel with a bounded errgroup.
package harmonic

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/kappa/backend"
	"github.com/katalvlaran/kappa/config"
	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/lazy"
	"github.com/katalvlaran/kappa/logging"
)

// Option customizes a Solver.
type Option func(*Solver)

// WithBackend overrides the backend named in the configuration.
func WithBackend(b backend.Backend) Option {
	return func(s *Solver) { s.be = b }
}

// WithLogger injects a logger. The default discards everything.
func WithLogger(l logr.Logger) Option {
	return func(s *Solver) { s.log = l }
}

// Solver computes harmonic properties for one set of force constants and one configuration.
type Solver struct {
	fc     *forceconstants.ForceConstants
	cfg    config.Config
	be     backend.Backend
	log    logr.Logger
	cache  *lazy.Cache
	dynmat []float64 // mass-weighted D0, (rad/ps)²
	terms  []term
	kpts   [][3]float64
	nModes int

	warnMu   sync.Mutex
	warnings []Warning
}

// New validates the configuration and prepares the real-space terms.
//
// Errors:
//   - config.ErrConfiguration from Validate or an unknown backend name.
//   - forceconstants.ErrShape when the masses do not match the operator.
func New(fc *forceconstants.ForceConstants, cfg config.Config, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		fc:     fc,
		cfg:    cfg,
		log:    logging.Discard(),
		cache:  lazy.New(),
		nModes: 3 * fc.Atoms().N(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.be == nil {
		be, err := backend.New(cfg.Backend)
		if err != nil {
			return nil, fmt.Errorf("harmonic.New: %v: %w", err, config.ErrConfiguration)
		}
		s.be = be
	}

	dyn, err := fc.SecondOrder().DynMat(fc.Atoms().Masses())
	if err != nil {
		return nil, fmt.Errorf("harmonic.New: %w", err)
	}
	s.dynmat = dyn
	s.kpts = Mesh(cfg.Kpts)
	s.terms = s.buildTerms()

	cutoff, folded := fc.Cutoff()
	s.log.V(logging.DEBUG).Info("harmonic solver ready",
		"atoms", fc.Atoms().N(), "replicas", fc.SecondOrder().NReplicas(), "kpoints", len(s.kpts),
		"amorphous", cfg.IsAmorphous(), "folded", folded, "cutoff", cutoff, "backend", s.be.Name())

	return s, nil
}

// Mesh returns the C-ordered fractional mesh: index (a·n2 + b)·n3 + c maps to (a/n1, b/n2, c/n3).
func Mesh(kpts [3]int) [][3]float64 {
	out := make([][3]float64, 0, kpts[0]*kpts[1]*kpts[2])
	for a := 0; a < kpts[0]; a++ {
		for b := 0; b < kpts[1]; b++ {
			for c := 0; c < kpts[2]; c++ {
				out = append(out, [3]float64{
					float64(a) / float64(kpts[0]),
					float64(b) / float64(kpts[1]),
					float64(c) / float64(kpts[2]),
				})
			}
		}
	}

	return out
}

// KPointIndex maps integer mesh coordinates (taken modulo the mesh) to the flat index.
func KPointIndex(kpts [3]int, a, b, c int) int {
	a = ((a % kpts[0]) + kpts[0]) % kpts[0]
	b = ((b % kpts[1]) + kpts[1]) % kpts[1]
	c = ((c % kpts[2]) + kpts[2]) % kpts[2]

	return (a*kpts[1]+b)*kpts[2] + c
}

// KPointCoords is the inverse of KPointIndex.
func KPointCoords(kpts [3]int, k int) [3]int {
	c := k % kpts[2]
	b := (k / kpts[2]) % kpts[1]
	a := k / (kpts[1] * kpts[2])

	return [3]int{a, b, c}
}

// KPoints returns a copy of the mesh.
func (s *Solver) KPoints() [][3]float64 {
	out := make([][3]float64, len(s.kpts))
	copy(out, s.kpts)

	return out
}

// NKPoints returns the mesh size.
func (s *Solver) NKPoints() int { return len(s.kpts) }

// NModes returns the branches per k-point (3·atoms).
func (s *Solver) NModes() int { return s.nModes }

// NPhonons returns NKPoints·NModes.
func (s *Solver) NPhonons() int { return len(s.kpts) * s.nModes }

// Config returns the configuration record.
func (s *Solver) Config() config.Config { return s.cfg }

// ForceConstants returns the input force constants.
func (s *Solver) ForceConstants() *forceconstants.ForceConstants { return s.fc }

// Backend returns the linear-algebra backend in use.
func (s *Solver) Backend() backend.Backend { return s.be }

// Logger returns the injected logger.
func (s *Solver) Logger() logr.Logger { return s.log }

// IsAmorphous reports the single-k-point path.
func (s *Solver) IsAmorphous() bool { return s.cfg.IsAmorphous() }

// Warnings returns the recorded warnings ordered by (k-point, kind).
func (s *Solver) Warnings() []Warning {
	s.warnMu.Lock()
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	s.warnMu.Unlock()
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].KPoint != out[b].KPoint {
			return out[a].KPoint < out[b].KPoint
		}

		return out[a].Kind < out[b].Kind
	})

	return out
}

func (s *Solver) warn(w Warning) {
	s.warnMu.Lock()
	s.warnings = append(s.warnings, w)
	s.warnMu.Unlock()
	s.log.V(logging.WARN).Info("numerical warning", "warning", w.Kind.String(), "kpoint", w.KPoint, "magnitude", w.Magnitude)
}
