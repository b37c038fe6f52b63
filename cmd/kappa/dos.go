// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDOSCmd(g *globals) *cobra.Command {
	var (
		bins  int
		sigma float64
	)
	cmd := &cobra.Command{
		Use:   "dos",
		Short: "Print the Gaussian-smeared phonon density of states",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.open()
			if err != nil {
				return err
			}
			grid, dos, err := p.Harmonic().DensityOfStates(bins, sigma)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "# frequency (THz)  states/THz")
			for i := range grid {
				fmt.Fprintf(out, "%12.6f %14.6e\n", grid[i], dos[i])
			}

			return nil
		},
	}
	cmd.Flags().IntVar(&bins, "bins", 200, "Number of frequency bins")
	cmd.Flags().Float64Var(&sigma, "sigma", 0.1, "Gaussian width in THz")

	return cmd
}
