// SPDX-License-Identifier: MIT

// Command kappa computes phonon thermal conductivity from a force-constant document.
//
// Examples:
//
//	kappa model cubic --out fc.yaml
//	kappa conductivity --fc fc.yaml --config kappa.yaml --method rta --method inverse
//	kappa dos --fc fc.yaml --config kappa.yaml --bins 200 --sigma 0.1
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
