// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/kappa/forceconstants"
	"github.com/katalvlaran/kappa/models"
)

func newModelCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:       "model {cubic|cluster}",
		Short:     "Write a reference force-constant document",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"cubic", "cluster"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				fc  *forceconstants.ForceConstants
				err error
			)
			switch args[0] {
			case "cubic":
				fc, err = models.SimpleCubic(models.DefaultCubic())
			case "cluster":
				fc, err = models.Cluster(models.DefaultCluster())
			default:
				return fmt.Errorf("unknown model %q", args[0])
			}
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return forceconstants.Encode(w, fc)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")

	return cmd
}
