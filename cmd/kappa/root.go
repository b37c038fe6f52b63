// SPDX-License-Identifier: MIT

package main

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/kappa/logging"
	"github.com/katalvlaran/kappa/phonons"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	fcPath     string
	logLevel   string
	dev        bool

	log logr.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{log: logging.Discard()}
	root := &cobra.Command{
		Use:   "kappa",
		Short: "Phonon thermal conductivity from interatomic force constants",
		Long: `kappa solves the harmonic lattice-dynamics problem on a k-point mesh,
evaluates three-phonon scattering and assembles the thermal conductivity with
the relaxation-time, self-consistent, direct-inversion or QHGK methods.

Options are read from a YAML file (--config) and KAPPA_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(g.logLevel, g.dev)
			if err != nil {
				return err
			}
			g.log = l

			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML configuration file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&g.fcPath, "fc", "", "force-constant document (YAML)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: error, info, debug, trace")
	root.PersistentFlags().BoolVar(&g.dev, "dev", false, "Human-readable console logs")

	root.AddCommand(newConductivityCmd(g), newDOSCmd(g), newModelCmd())

	return root
}

func (g *globals) open(extra ...phonons.Option) (*phonons.Phonons, error) {
	opts := append([]phonons.Option{phonons.WithLogger(g.log)}, extra...)

	return phonons.Load(g.fcPath, g.configPath, opts...)
}
