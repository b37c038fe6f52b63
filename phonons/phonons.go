// SPDX-License-Identifier: MIT

package phonons

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/kappa/anharmonic"
	"github.com/katalvlaran/kappa/backend"
	"github.com/katalvlaran/kappa/conductivity"
	"github.com/katalvlaran/kappa/config"
	"github.com/katalvlaran/kappa/diffusivity"
	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/harmonic"
	"github.com/katalvlaran/kappa/logging"
	"github.com/katalvlaran/kappa/tensor"
)

type options struct {
	log        logr.Logger
	be         backend.Backend
	iterations int
}

// Option customizes New.
type Option func(*options)

// WithLogger injects a logger into every engine. Default: discard.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithBackend overrides the backend named in the configuration.
func WithBackend(b backend.Backend) Option {
	return func(o *options) { o.be = b }
}

// WithIterations sets the self-consistent iteration count.
// Default: conductivity.DefaultIterations.
func WithIterations(n int) Option {
	return func(o *options) { o.iterations = n }
}

// Phonons is the facade over one calculation.
type Phonons struct {
	h    *harmonic.Solver
	an   *anharmonic.Engine
	diff *diffusivity.Engine
	cond *conductivity.Engine
}

// New validates cfg and builds the engines. Nothing is computed yet.
//
// Errors:
//   - config.ErrConfiguration for an invalid record or backend name.
func New(fc *forceconstants.ForceConstants, cfg config.Config, opts ...Option) (*Phonons, error) {
	o := options{log: logging.Discard(), iterations: conductivity.DefaultIterations}
	for _, opt := range opts {
		opt(&o)
	}
	hopts := []harmonic.Option{harmonic.WithLogger(o.log)}
	if o.be != nil {
		hopts = append(hopts, harmonic.WithBackend(o.be))
	}
	h, err := harmonic.New(fc, cfg, hopts...)
	if err != nil {
		return nil, fmt.Errorf("phonons.New: %w", err)
	}
	an := anharmonic.New(h)
	diff := diffusivity.New(h, an)

	return &Phonons{
		h:    h,
		an:   an,
		diff: diff,
		cond: conductivity.New(h, an, diff, conductivity.WithIterations(o.iterations)),
	}, nil
}

// Load reads a force-constant document and a configuration file (empty path:
// defaults plus KAPPA_* environment) and calls New.
func Load(fcPath, cfgPath string, opts ...Option) (*Phonons, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	fc, err := forceconstants.Load(fcPath)
	if err != nil {
		return nil, err
	}

	return New(fc, cfg, opts...)
}

// Harmonic returns the harmonic solver.
func (p *Phonons) Harmonic() *harmonic.Solver { return p.h }

// Anharmonic returns the scattering engine.
func (p *Phonons) Anharmonic() *anharmonic.Engine { return p.an }

// Config returns the configuration record.
func (p *Phonons) Config() config.Config { return p.h.Config() }

// Frequency returns the signed frequencies in THz.
func (p *Phonons) Frequency() ([]float64, error) { return p.h.Frequencies() }

// Velocity returns the group velocities in Å/ps.
func (p *Phonons) Velocity() ([][3]float64, error) { return p.h.Velocities() }

// Occupation returns the Bose-Einstein (or classical) occupations.
func (p *Phonons) Occupation() ([]float64, error) { return p.h.Occupations() }

// HeatCapacity returns the per-mode heat capacity in J/K.
func (p *Phonons) HeatCapacity() ([]float64, error) { return p.h.HeatCapacities() }

// PhysicalMode returns the physical-mode mask.
func (p *Phonons) PhysicalMode() ([]bool, error) { return p.h.PhysicalModes() }

// Bandwidth returns Γ in rad/ps.
func (p *Phonons) Bandwidth() ([]float64, error) { return p.an.Bandwidth() }

// PhaseSpace returns the three-phonon phase space.
func (p *Phonons) PhaseSpace() ([]float64, error) { return p.an.PhaseSpace() }

// Diffusivity returns the generalized diffusivity tensor.
func (p *Phonons) Diffusivity() (tensor.PairTensor, error) { return p.diff.Diffusivity() }

// Conductivity returns κ for the selected method.
func (p *Phonons) Conductivity(m conductivity.Method) (*conductivity.Result, error) {
	return p.cond.Compute(m)
}

// Warnings returns the numerical warnings recorded so far.
func (p *Phonons) Warnings() []harmonic.Warning { return p.h.Warnings() }
