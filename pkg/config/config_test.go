package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	src := `
project {
  name       = upper("rc")
  title      = format("%s network, rev %d", "RC", 2)
  schematic  = "rc.asc"
  output_dir = "${project_dir}/build"
  parameters = {
    R = "1k"
  }
}

circuit_page {
  caption = join(" ", ["RC", "network"])
}

analysis "mna" {
  data_type = "matrix"
  label     = "MNA"
}

analysis "gain" {
  gain_type = "gain"
  source    = "V1"
  detector  = ["V_out"]
  data_type = "laplace"
}

sweep {
  start  = 10
  stop   = 1e6
  points = 41
}
`
	cfg, err := Parse([]byte(src), "project.hcl", "/work/rc")
	require.NoError(t, err)

	assert.Equal(t, "RC", cfg.Project.Name)
	assert.Equal(t, "RC network, rev 2", cfg.Project.Title)
	assert.Equal(t, filepath.Join("/work/rc", "rc.asc"), cfg.Project.Schematic)
	assert.Equal(t, "/work/rc/build", cfg.Project.OutputDir)
	assert.Equal(t, 250, cfg.Project.ImageWidth)
	assert.Equal(t, map[string]string{"R": "1k"}, cfg.Project.Parameters)

	require.NotNil(t, cfg.CircuitPage)
	assert.Equal(t, "RC network", cfg.CircuitPage.Caption)
	assert.Equal(t, "Circuit data", cfg.CircuitPage.Title)
	assert.Equal(t, "Circuit diagram", cfg.CircuitPage.Heading)

	require.Len(t, cfg.Analyses, 2)
	assert.Equal(t, "mna", cfg.Analyses[0].Name)
	assert.Equal(t, []string{"V_out"}, cfg.Analyses[1].Detector)
	assert.Empty(t, cfg.Analyses[1].SimType)

	require.NotNil(t, cfg.Sweep)
	assert.Equal(t, "DEC", cfg.Sweep.Type)
	assert.Equal(t, 1e6, cfg.Sweep.Stop)
}

func TestParse_DefaultOutputDir(t *testing.T) {
	cfg, err := Parse([]byte(`project {
  name      = "x"
  schematic = "/abs/x.asc"
}`), "p.hcl", "/work")
	require.NoError(t, err)
	assert.Equal(t, "/abs/x.asc", cfg.Project.Schematic)
	assert.Equal(t, filepath.Join("/work", "out"), cfg.Project.OutputDir)
	assert.Nil(t, cfg.CircuitPage)
	assert.Nil(t, cfg.Sweep)
}

func TestParse_Errors(t *testing.T) {
	project := "project {\n  name = \"x\"\n  schematic = \"x.asc\"\n}\n"
	tests := map[string]string{
		"syntax":             "project {",
		"missing project":    `analysis "a" { data_type = "matrix" }`,
		"missing data type":  project + `analysis "a" { sim_type = "symbolic" }`,
		"unknown attribute":  project + "analysis \"a\" {\n data_type = \"matrix\"\n colour = \"red\"\n}",
		"duplicate analysis": project + `analysis "a" { data_type = "matrix" }` + "\n" + `analysis "a" { data_type = "laplace" }`,
		"three detectors":    project + "analysis \"a\" {\n data_type = \"laplace\"\n detector = [\"V_a\", \"V_b\", \"V_c\"]\n}",
		"one point":          project + "sweep {\n start = 1\n stop = 10\n points = 1\n}",
		"reversed range":     project + "sweep {\n start = 10\n stop = 1\n points = 5\n}",
		"sweep type":         project + "sweep {\n start = 1\n stop = 10\n points = 5\n type = \"LOG\"\n}",
		"unknown variable":   "project {\n name = \"x\"\n schematic = \"${nowhere}/x.asc\"\n}",
		"empty name":         "project {\n name = \"\"\n schematic = \"x.asc\"\n}",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "p.hcl", "/work")
			require.Error(t, err)
		})
	}
}

func TestLoad_Example(t *testing.T) {
	cfg, err := Load(context.Background(), "../../examples/hearing_loop/project.hcl")
	require.NoError(t, err)

	dir, err := filepath.Abs("../../examples/hearing_loop")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "SLiCAPReceiver.asc"), cfg.Project.Schematic)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Project.OutputDir)

	def := Default(cfg.Project.Schematic, cfg.Project.OutputDir)
	require.Len(t, cfg.Analyses, len(def.Analyses))
	for i, a := range def.Analyses {
		assert.Equal(t, *a, *cfg.Analyses[i], a.Name)
	}
	assert.Equal(t, *def.CircuitPage, *cfg.CircuitPage)
	require.NotNil(t, cfg.Sweep)
	assert.Equal(t, map[string]string{"R": "1k", "C": "100n"}, cfg.Sweep.Parameters)

	_, err = Load(context.Background(), "testdata/missing.hcl")
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default("rc.asc", "out")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Hearing Loop Project", cfg.Project.Name)
	require.Len(t, cfg.Analyses, 2)
	assert.Equal(t, "matrix", cfg.Analyses[0].DataType)
	assert.Equal(t, "laplace", cfg.Analyses[1].DataType)
}
