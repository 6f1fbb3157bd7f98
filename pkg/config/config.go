// Package config loads the HCL project file that describes the report
// workflow: the schematic, the circuit page, the ordered analyses and an
// optional frequency sweep.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/edp1096/symspice/internal/ctxlog"
)

// Config is the decoded project file.
type Config struct {
	Project     Project      `hcl:"project,block"`
	CircuitPage *CircuitPage `hcl:"circuit_page,block"`
	Analyses    []*Analysis  `hcl:"analysis,block"`
	Sweep       *Sweep       `hcl:"sweep,block"`
}

type Project struct {
	Name       string            `hcl:"name"`
	Schematic  string            `hcl:"schematic"`
	Title      string            `hcl:"title,optional"`
	OutputDir  string            `hcl:"output_dir,optional"`
	ImageWidth int               `hcl:"image_width,optional"`
	Parameters map[string]string `hcl:"parameters,optional"`
}

// CircuitPage describes the page with the diagram, netlist, element data
// and parameters.
type CircuitPage struct {
	Title      string `hcl:"title,optional"`
	Heading    string `hcl:"heading,optional"`
	Caption    string `hcl:"caption,optional"`
	ImageLabel string `hcl:"image_label,optional"`
}

// Analysis is one execution of the instruction. Unset fields keep the
// value of the previous analysis.
type Analysis struct {
	Name      string   `hcl:"name,label"`
	Page      string   `hcl:"page,optional"`
	Text      string   `hcl:"text,optional"`
	SimType   string   `hcl:"sim_type,optional"`
	GainType  string   `hcl:"gain_type,optional"`
	DataType  string   `hcl:"data_type"`
	Source    string   `hcl:"source,optional"`
	Detector  []string `hcl:"detector,optional"`
	LHS       string   `hcl:"lhs,optional"`
	Label     string   `hcl:"label,optional"`
	LabelText string   `hcl:"label_text,optional"`
}

// Sweep is a numeric frequency response of the last analysis settings.
type Sweep struct {
	Page       string            `hcl:"page,optional"`
	Start      float64           `hcl:"start"`
	Stop       float64           `hcl:"stop"`
	Points     int               `hcl:"points"`
	Type       string            `hcl:"type,optional"`
	Parameters map[string]string `hcl:"parameters,optional"`
	Label      string            `hcl:"label,optional"`
}

var functions = map[string]function.Function{
	"format": stdlib.FormatFunc,
	"join":   stdlib.JoinFunc,
	"lower":  stdlib.LowerFunc,
	"upper":  stdlib.UpperFunc,
}

// Load reads and decodes a project file. Relative paths are resolved
// against the directory of the file, which is also available to
// expressions as project_dir.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(src, path, dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Project file loaded.", "path", path, "analyses", len(cfg.Analyses), "sweep", cfg.Sweep != nil)
	return cfg, nil
}

// Parse decodes project file source.
func Parse(src []byte, filename, projectDir string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"project_dir": cty.StringVal(projectDir),
		},
		Functions: functions,
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	cfg.resolvePaths(projectDir)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Project.Schematic = abs(c.Project.Schematic)
	if c.Project.OutputDir == "" {
		c.Project.OutputDir = "out"
	}
	c.Project.OutputDir = abs(c.Project.OutputDir)
}

func (c *Config) applyDefaults() {
	if c.Project.Title == "" {
		c.Project.Title = c.Project.Name
	}
	if c.Project.ImageWidth == 0 {
		c.Project.ImageWidth = 250
	}
	if c.CircuitPage != nil {
		if c.CircuitPage.Title == "" {
			c.CircuitPage.Title = "Circuit data"
		}
		if c.CircuitPage.Heading == "" {
			c.CircuitPage.Heading = "Circuit diagram"
		}
	}
	if c.Sweep != nil && c.Sweep.Type == "" {
		c.Sweep.Type = "DEC"
	}
}

// Validate checks what can be checked without a circuit. Analysis settings
// are validated by the instruction when they are applied.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project name is empty")
	}
	if c.Project.Schematic == "" {
		return fmt.Errorf("project schematic is empty")
	}
	if c.Project.ImageWidth < 0 {
		return fmt.Errorf("image_width must be positive")
	}
	seen := make(map[string]bool)
	for _, a := range c.Analyses {
		if seen[a.Name] {
			return fmt.Errorf("duplicate analysis %q", a.Name)
		}
		seen[a.Name] = true
		if len(a.Detector) > 2 {
			return fmt.Errorf("analysis %q: detector takes one or two names", a.Name)
		}
	}
	if s := c.Sweep; s != nil {
		if s.Points < 2 {
			return fmt.Errorf("sweep needs at least 2 points")
		}
		if s.Start <= 0 || s.Stop <= s.Start {
			return fmt.Errorf("sweep range %g..%g is invalid", s.Start, s.Stop)
		}
		switch strings.ToUpper(s.Type) {
		case "DEC", "OCT", "LIN":
		default:
			return fmt.Errorf("sweep type %q is not DEC, OCT or LIN", s.Type)
		}
	}
	return nil
}

// Default returns the hearing loop receiver workflow for a schematic.
func Default(schematic, outputDir string) *Config {
	return &Config{
		Project: Project{
			Name:       "Hearing Loop Project",
			Schematic:  schematic,
			Title:      "Hearing Loop Project",
			OutputDir:  outputDir,
			ImageWidth: 250,
		},
		CircuitPage: &CircuitPage{
			Title:      "Circuit data",
			Heading:    "Circuit diagram",
			Caption:    "Circuit diagram of the receiver network.",
			ImageLabel: "fig_receiver_network",
		},
		Analyses: []*Analysis{
			{
				Name:      "mna",
				Page:      "Matrix equations",
				Text:      "The MNA matrix equation for the RC network is:",
				SimType:   "symbolic",
				GainType:  "vi",
				DataType:  "matrix",
				Label:     "MNA",
				LabelText: "MNA equation of the network",
			},
			{
				Name:      "gain",
				SimType:   "symbolic",
				GainType:  "gain",
				DataType:  "laplace",
				Source:    "V1",
				Detector:  []string{"V_out"},
				LHS:       "V_out/V_1",
				Label:     "gainLaplace",
				LabelText: "Laplace transfer function",
			},
		},
	}
}
