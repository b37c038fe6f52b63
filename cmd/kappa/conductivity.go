// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/kappa/conductivity"
	"github.com/katalvlaran/kappa/phonons"
)

func newConductivityCmd(g *globals) *cobra.Command {
	var (
		methods    []string
		iterations int
		perMode    bool
	)
	cmd := &cobra.Command{
		Use:   "conductivity",
		Short: "Print the conductivity tensor in W/(m·K)",
		Long: `Compute the lattice thermal conductivity with one or more methods.

Examples:
  kappa conductivity --fc fc.yaml
  kappa conductivity --fc fc.yaml --config kappa.yaml --method sc --iterations 20
  kappa conductivity --fc fc.yaml --method rta --method qhgk --per-mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := make([]conductivity.Method, 0, len(methods))
			for _, name := range methods {
				m, err := conductivity.ParseMethod(name)
				if err != nil {
					return err
				}
				selected = append(selected, m)
			}
			p, err := g.open(phonons.WithIterations(iterations))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range selected {
				r, err := p.Conductivity(m)
				if err != nil {
					return fmt.Errorf("%s: %w", m, err)
				}
				printTensor(out, m.String(), r.Total)
				if perMode {
					printPerMode(out, r.PerMode)
				}
			}
			for _, w := range p.Warnings() {
				g.log.Info("numerical warning", "warning", w.String())
			}

			return nil
		},
	}
	cmd.Flags().StringSliceVar(&methods, "method", []string{"rta"}, "Method(s): rta, sc, inverse, qhgk")
	cmd.Flags().IntVar(&iterations, "iterations", conductivity.DefaultIterations, "Self-consistent iterations")
	cmd.Flags().BoolVar(&perMode, "per-mode", false, "Also print the trace of every per-mode contribution")

	return cmd
}

func printTensor(w io.Writer, label string, k [3][3]float64) {
	fmt.Fprintf(w, "%s (W/(m·K)):\n", label)
	for a := 0; a < 3; a++ {
		fmt.Fprintf(w, "  %14.6e %14.6e %14.6e\n", k[a][0], k[a][1], k[a][2])
	}
}

func printPerMode(w io.Writer, perMode [][3][3]float64) {
	for mu, k := range perMode {
		fmt.Fprintf(w, "  mode %6d  trace/3 %14.6e\n", mu, (k[0][0]+k[1][1]+k[2][2])/3)
	}
}
