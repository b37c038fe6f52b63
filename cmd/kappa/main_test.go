// SPDX-License-Identifier: MIT
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), err
}

func TestCLI_ModelThenConductivity(t *testing.T) {
	dir := t.TempDir()
	fcPath := filepath.Join(dir, "cluster.yaml")
	_, err := run(t, "model", "cluster", "--out", fcPath, "--log-level", "error")
	require.NoError(t, err)
	_, err = os.Stat(fcPath)
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "kappa.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sigma_in: 0.5\n"), 0o600))

	out, err := run(t, "conductivity", "--fc", fcPath, "--config", cfgPath, "--method", "qhgk", "--log-level", "error")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "qhgk (W/(m·K)):"), out)
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)

	out, err = run(t, "dos", "--fc", fcPath, "--config", cfgPath, "--bins", "50", "--log-level", "error")
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 51)
}

func TestCLI_Errors(t *testing.T) {
	_, err := run(t, "model", "graphene")
	require.Error(t, err)

	_, err = run(t, "conductivity", "--fc", "missing.yaml", "--method", "kubo", "--log-level", "error")
	require.ErrorContains(t, err, "unknown method")

	_, err = run(t, "dos", "--log-level", "loud")
	require.ErrorContains(t, err, "unknown level")
}
