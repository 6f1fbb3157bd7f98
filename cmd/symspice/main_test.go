package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edp1096/symspice/internal/cli"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Act ---
	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_InvalidProject(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "project.hcl")
	require.NoError(t, os.WriteFile(path, []byte("project {\n"), 0o600))

	// --- Act ---
	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"-project", path})

	// --- Assert ---
	require.ErrorContains(t, err, "failed to parse HCL file")
}

func TestRun_DefaultWorkflow(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	outDir := t.TempDir()
	args := []string{"-out", outDir, "../../examples/hearing_loop/SLiCAPReceiver.asc"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "V_out/V_1 = 1/(C*R*s + 1)")
	require.FileExists(t, filepath.Join(outDir, "html", "index.html"))
	require.FileExists(t, filepath.Join(outDir, "cir", "SLiCAPReceiver.cir"))
	require.FileExists(t, filepath.Join(outDir, "img", "SLiCAPReceiver.svg"))
}
