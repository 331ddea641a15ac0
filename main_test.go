package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestDemoWalksThePath(t *testing.T) {
	out, stderr, err := execute(t, "demo", "--interval", "0", "--format", "json")
	require.NoError(t, err, stderr)

	assert.Contains(t, out, "edge drawn: 0 - 1\nedge drawn: 1 - 2\n")
	assert.Contains(t, out, "step 0: start at 0\n")
	assert.Contains(t, out, "step 1: visit 1 via 0 (depth 1)\n")
	assert.Contains(t, out, "step 2: visit 2 via 1 (depth 2)\n")
	assert.Contains(t, out, "order: 0 1 2\n")
	assert.Contains(t, out, "edges: (0,1) (1,2)\n")
	assert.Contains(t, out, `"nodeCount": 3`)
	assert.Contains(t, out, `"color": "green"`)
	assert.Contains(t, stderr, "traversal finished")
}

func TestDemoWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.svg")
	out, _, err := execute(t, "demo", "--interval", "0", "-f", "svg", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestDemoHonorsConfigAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphsketch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("traversal:\n  visited_color: red\n  step_interval: 0s\n"), 0o644))

	out, stderr, err := execute(t, "demo", "--config", path, "--log-level", "error", "-f", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, `color="#ff0000"`)
	assert.NotContains(t, stderr, "traversal finished", "info logs filtered")
}

func TestDemoRejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "demo", "--format", "png")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestBadConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interaction: {id_scheme: nope}\n"), 0o644))

	_, _, err := execute(t, "demo", "--config", path)
	assert.ErrorContains(t, err, "IDScheme")
}
