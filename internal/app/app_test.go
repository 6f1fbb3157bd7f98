package app

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/symspice/pkg/instruction"
)

func TestRun_Project(t *testing.T) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	outDir := t.TempDir()

	a, err := NewApp(out, logs, &AppConfig{
		ProjectFile: filepath.Join("testdata", "project.hcl"),
		OutputDir:   outDir,
		LogFormat:   "text",
		LogLevel:    "info",
	})
	require.NoError(t, err)

	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, summary.Netlist)
	assert.FileExists(t, summary.Image)
	assert.FileExists(t, summary.Bode)
	assert.Equal(t, filepath.Join(outDir, "cir", "rc.cir"), summary.Netlist)

	wantPages := [][2]string{
		{"Circuit data", "01-circuit-data.html"},
		{"Matrix equations", "02-matrix-equations.html"},
		{"Transfer", "03-transfer.html"},
		{"Poles and zeros", "04-poles-and-zeros.html"},
		{"Frequency response", "05-frequency-response.html"},
	}
	require.Equal(t, wantPages, summary.Pages)
	for _, p := range summary.Pages {
		assert.FileExists(t, filepath.Join(outDir, "html", p[1]))
	}
	assert.FileExists(t, filepath.Join(outDir, "html", "index.html"))

	assert.Equal(t, []string{"V1"}, summary.IndepVars)
	assert.Equal(t, []string{"V_in", "V_out", "I_V1"}, summary.DepVars)

	gain := summary.Results["gain"]
	require.NotNil(t, gain)
	assert.Equal(t, instruction.Laplace, gain.DataType)
	assert.Equal(t, "1/(C*R*s + 1)", gain.Laplace.String())

	pz := summary.Results["pz"]
	require.NotNil(t, pz)
	require.Len(t, pz.Poles, 1)
	assert.InDelta(t, -1e4, real(pz.Poles[0]), 1e-6)
	assert.Empty(t, pz.Zeros)

	console := out.String()
	assert.Contains(t, console, "Laplace variable: s")
	assert.Contains(t, console, "Parameters: [C R]")
	assert.Contains(t, console, "Independent variables: [V1]")
	assert.Contains(t, console, "V_out/V_1 = 1/(C*R*s + 1)")
	assert.Contains(t, logs.String(), "Report written.")
}

func TestRun_DefaultWorkflow(t *testing.T) {
	out := &bytes.Buffer{}
	outDir := t.TempDir()

	a, err := NewApp(out, &bytes.Buffer{}, &AppConfig{
		Schematic: filepath.Join("testdata", "rc.asc"),
		OutputDir: outDir,
		LogFormat: "json",
		LogLevel:  "error",
	})
	require.NoError(t, err)

	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Pages, 2)
	assert.Equal(t, "01-circuit-data.html", summary.Pages[0][1])
	assert.Equal(t, "02-matrix-equations.html", summary.Pages[1][1])
	assert.Empty(t, summary.Bode)
	assert.Contains(t, out.String(), "V_out/V_1 = 1/(C*R*s + 1)")
}

func TestNewApp_Errors(t *testing.T) {
	_, err := NewApp(&bytes.Buffer{}, &bytes.Buffer{}, &AppConfig{LogFormat: "text", LogLevel: "info"})
	require.Error(t, err)

	_, err = NewApp(&bytes.Buffer{}, &bytes.Buffer{}, &AppConfig{
		ProjectFile: filepath.Join("testdata", "missing.hcl"),
		LogFormat:   "text",
		LogLevel:    "info",
	})
	require.ErrorContains(t, err, "failed to read project file")
}

func runDefault(t *testing.T, outDir string) (*Summary, string) {
	t.Helper()
	out := &bytes.Buffer{}
	a, err := NewApp(out, &bytes.Buffer{}, &AppConfig{
		Schematic: filepath.Join("testdata", "rc.asc"),
		OutputDir: outDir,
		LogFormat: "text",
		LogLevel:  "error",
	})
	require.NoError(t, err)
	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	return summary, out.String()
}

// readPage returns a page as MathJax sees it, with entities decoded.
func readPage(t *testing.T, dir, file string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "html", file))
	require.NoError(t, err)
	return html.UnescapeString(string(b))
}

func TestRun_ReportSections(t *testing.T) {
	outDir := t.TempDir()
	summary, console := runDefault(t, outDir)

	circuitPage := readPage(t, outDir, "01-circuit-data.html")
	assert.Contains(t, circuitPage, `<figure>`)
	assert.Contains(t, circuitPage, `<img src="../img/rc.svg"`)
	assert.Contains(t, circuitPage, `fig_receiver_network:`)
	assert.Contains(t, circuitPage, "<pre>")
	assert.Contains(t, circuitPage, "R1 out in R")
	assert.Contains(t, circuitPage, `<h3>Expanded netlist</h3>`)
	assert.Contains(t, circuitPage, `<td>C1</td><td>out 0</td>`)
	assert.Contains(t, circuitPage, `<h3>Parameter definitions</h3>`)
	assert.Contains(t, circuitPage, `<h3>Undefined parameters</h3>`)
	assert.Contains(t, circuitPage, `<p>\(C\), \(R\)</p>`)

	matrixPage := readPage(t, outDir, "02-matrix-equations.html")
	for _, label := range []string{"MNA", "Iv", "M", "Dv", "gainLaplace"} {
		assert.Contains(t, matrixPage, `\label{`+label+`}`, "equation %s", label)
		assert.Contains(t, matrixPage, `id="`+label+`"`, "anchor %s", label)
	}
	assert.Contains(t, matrixPage, `\frac{V_{out}}{V_{1}} = \frac{1}{C R s + 1}`)

	require.Contains(t, summary.IndepVars, "V1")
	require.Contains(t, summary.DepVars, "V_out")
	assert.Contains(t, console, "Independent variables: [V1]")
	assert.Contains(t, console, "Dependent variables: [V_in V_out I_V1]")
}

func TestRun_Deterministic(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	first, _ := runDefault(t, dirA)
	second, _ := runDefault(t, dirB)

	cirA, err := os.ReadFile(first.Netlist)
	require.NoError(t, err)
	cirB, err := os.ReadFile(second.Netlist)
	require.NoError(t, err)
	assert.Equal(t, cirA, cirB)

	gainA, gainB := first.Results["gain"].Laplace, second.Results["gain"].Laplace
	assert.True(t, gainA.Equal(gainB), "%s != %s", gainA, gainB)
	assert.Equal(t, first.Results["mna"].M.LaTeX(), second.Results["mna"].M.LaTeX())
	assert.Equal(t, readPage(t, dirA, "02-matrix-equations.html"), readPage(t, dirB, "02-matrix-equations.html"))
}

const swapProject = `
project {
  name      = "Swap"
  schematic = %q
}

analysis "mna" {
  page      = "Matrix equations"
  sim_type  = "symbolic"
  gain_type = "vi"
  data_type = "matrix"
  label     = "MNA"
}

analysis "gain" {
  gain_type = "gain"
  source    = "V1"
  detector  = ["V_out"]
  data_type = "laplace"
  lhs       = "V_out/V_1"
  label     = "gainOut"
}
%s`

const swapAnalysis = `
analysis "input" {
  page      = "Input"
  detector  = ["V_in"]
  data_type = "laplace"
  lhs       = "V_in/V_1"
  label     = "gainIn"
}
`

func runProject(t *testing.T, extra string) (*Summary, string, string) {
	t.Helper()
	asc, err := filepath.Abs(filepath.Join("testdata", "rc.asc"))
	require.NoError(t, err)
	dir := t.TempDir()
	path := filepath.Join(dir, "project.hcl")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(swapProject, asc, extra)), 0o600))

	out := &bytes.Buffer{}
	a, err := NewApp(out, &bytes.Buffer{}, &AppConfig{ProjectFile: path, LogFormat: "text", LogLevel: "error"})
	require.NoError(t, err)
	summary, err := a.Run(context.Background())
	require.NoError(t, err)
	return summary, out.String(), filepath.Join(dir, "out")
}

func TestRun_DetectorChangeKeepsMatrixPage(t *testing.T) {
	base, _, baseDir := runProject(t, "")
	swapped, console, swappedDir := runProject(t, swapAnalysis)

	assert.Equal(t, "1/(C*R*s + 1)", swapped.Results["gain"].Laplace.String())
	assert.Equal(t, "1", swapped.Results["input"].Laplace.String())
	assert.Contains(t, console, "V_out/V_1 = 1/(C*R*s + 1)")
	assert.Contains(t, console, "V_in/V_1 = 1")

	assert.Equal(t,
		readPage(t, baseDir, "01-matrix-equations.html"),
		readPage(t, swappedDir, "01-matrix-equations.html"))
	assert.Equal(t, base.Results["mna"].M.LaTeX(), swapped.Results["mna"].M.LaTeX())
	assert.Len(t, swapped.Pages, 2)
}
