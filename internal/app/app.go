package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"strings"

	"github.com/edp1096/symspice/internal/consts"
	"github.com/edp1096/symspice/internal/ctxlog"
	"github.com/edp1096/symspice/pkg/analysis"
	"github.com/edp1096/symspice/pkg/circuit"
	"github.com/edp1096/symspice/pkg/config"
	"github.com/edp1096/symspice/pkg/instruction"
	"github.com/edp1096/symspice/pkg/netlist"
	"github.com/edp1096/symspice/pkg/plot"
	"github.com/edp1096/symspice/pkg/report"
	"github.com/edp1096/symspice/pkg/schematic"
	"github.com/edp1096/symspice/pkg/util"
)

// AppConfig holds the command line settings.
type AppConfig struct {
	ProjectFile string // HCL project file; empty for the built-in workflow
	Schematic   string // overrides the project schematic
	OutputDir   string // overrides the project output directory
	LogFormat   string
	LogLevel    string
}

// App runs one report workflow.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *config.Config
}

// Summary lists what a run produced.
type Summary struct {
	Netlist   string
	Image     string
	Bode      string
	Pages     [][2]string
	Results   map[string]*instruction.Result
	IndepVars []string
	DepVars   []string
}

// NewApp loads the project configuration. Console output goes to outW,
// logs to logW.
func NewApp(outW, logW io.Writer, appConfig *AppConfig) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	var cfg *config.Config
	if appConfig.ProjectFile != "" {
		var err error
		cfg, err = config.Load(ctx, appConfig.ProjectFile)
		if err != nil {
			return nil, err
		}
	} else {
		if appConfig.Schematic == "" {
			return nil, fmt.Errorf("no project file or schematic given")
		}
		cfg = config.Default(appConfig.Schematic, "out")
	}
	if appConfig.Schematic != "" {
		cfg.Project.Schematic = appConfig.Schematic
	}
	if appConfig.OutputDir != "" {
		cfg.Project.OutputDir = appConfig.OutputDir
	}
	logger.Debug("Configuration ready.", "project", cfg.Project.Name, "schematic", cfg.Project.Schematic, "output", cfg.Project.OutputDir)

	return &App{outW: outW, logger: logger, config: cfg}, nil
}

// Run executes the workflow: netlist, circuit page, analyses, sweep.
func (a *App) Run(ctx context.Context) (*Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cfg := a.config
	base := strings.TrimSuffix(filepath.Base(cfg.Project.Schematic), filepath.Ext(cfg.Project.Schematic))
	summary := &Summary{Results: make(map[string]*instruction.Result)}

	// 1. Project
	prj, err := report.InitProject(cfg.Project.Name, cfg.Project.OutputDir)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Project initialized.", "name", prj.Name, "dir", prj.Dir)

	// 2. Netlist and schematic image
	sch, err := schematic.Load(cfg.Project.Schematic)
	if err != nil {
		return nil, fmt.Errorf("loading schematic: %w", err)
	}
	summary.Netlist = prj.CirPath(base + ".cir")
	text, err := sch.WriteNetlist(cfg.Project.Title, summary.Netlist)
	if err != nil {
		return nil, fmt.Errorf("making netlist: %w", err)
	}
	summary.Image = prj.ImgPath(base + ".svg")
	if err := writeFile(summary.Image, sch.RenderSVG); err != nil {
		return nil, fmt.Errorf("rendering schematic: %w", err)
	}
	a.logger.Info("Netlist created.", "netlist", summary.Netlist, "image", summary.Image)

	// 3. Circuit and instruction
	data, err := netlist.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing netlist: %w", err)
	}
	ckt, err := circuit.New(data)
	if err != nil {
		return nil, fmt.Errorf("building circuit: %w", err)
	}
	in := instruction.New()
	in.SetCircuit(ckt)
	if err := in.DefPars(cfg.Project.Parameters); err != nil {
		return nil, err
	}
	a.printParams(ckt)

	// 4. Circuit page
	if cp := cfg.CircuitPage; cp != nil {
		if err := a.circuitPage(prj, ckt, cp, base, summary.Netlist); err != nil {
			return nil, err
		}
	}

	// 5. Analyses
	matrixCount := 0
	for _, an := range cfg.Analyses {
		res, err := a.runAnalysis(ctx, prj, in, an, &matrixCount)
		if err != nil {
			return nil, fmt.Errorf("analysis %s: %w", an.Name, err)
		}
		summary.Results[an.Name] = res
	}
	if summary.IndepVars, err = in.IndepVars(); err != nil {
		return nil, err
	}
	if summary.DepVars, err = in.DepVars(); err != nil {
		return nil, err
	}

	// 6. Frequency response
	if cfg.Sweep != nil {
		summary.Bode = prj.ImgPath(base + "_bode.svg")
		if err := a.sweep(ctx, prj, in, cfg.Sweep, summary.Bode); err != nil {
			return nil, fmt.Errorf("sweep: %w", err)
		}
	}

	fmt.Fprintln(a.outW, "Laplace variable:", consts.LaplaceVariable)

	if err := prj.Close(); err != nil {
		return nil, err
	}
	summary.Pages = prj.Pages()
	a.logger.Info("Report written.", "pages", len(summary.Pages), "index", prj.HTMLPath("index.html"))
	return summary, nil
}

func (a *App) printParams(ckt *circuit.Circuit) {
	var names []string
	defs := ckt.ParDefs()
	for _, d := range defs {
		names = append(names, d.Name)
	}
	names = append(names, ckt.Params()...)
	fmt.Fprintln(a.outW, "Parameters:", names)

	fmt.Fprintln(a.outW, "Parameter definitions:")
	for _, d := range defs {
		fmt.Fprintf(a.outW, "  %s = %s\n", d.Name, d.Value)
	}
}

func (a *App) circuitPage(prj *report.Project, ckt *circuit.Circuit, cp *config.CircuitPage, base, cirPath string) error {
	steps := []func() error{
		func() error { return prj.Page(cp.Title) },
		func() error { return prj.Head2(cp.Heading) },
		func() error {
			return prj.Image(base+".svg", a.config.Project.ImageWidth, cp.Caption, cp.ImageLabel)
		},
		func() error { return prj.Netlist(cirPath, "netlist") },
		func() error { return prj.ElementData(ckt, "elementData") },
		func() error { return prj.Params(ckt, "params") },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("circuit page: %w", err)
		}
	}
	return nil
}

// apply copies the settings of an analysis block into the instruction.
func apply(in *instruction.Instruction, an *config.Analysis) error {
	if an.SimType != "" {
		if err := in.SetSimType(an.SimType); err != nil {
			return err
		}
	}
	if an.GainType != "" {
		if err := in.SetGainType(an.GainType); err != nil {
			return err
		}
	}
	if err := in.SetDataType(an.DataType); err != nil {
		return err
	}
	if an.Source != "" {
		if err := in.SetSource(an.Source); err != nil {
			return err
		}
	}
	if len(an.Detector) > 0 {
		if err := in.SetDetector(an.Detector[0], an.Detector[1:]...); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runAnalysis(ctx context.Context, prj *report.Project, in *instruction.Instruction, an *config.Analysis, matrixCount *int) (*instruction.Result, error) {
	if err := apply(in, an); err != nil {
		return nil, err
	}
	res, err := in.Execute(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Instruction executed.", "analysis", an.Name, "data_type", res.DataType, "gain_type", res.GainType)

	if an.Page != "" {
		if err := prj.Page(an.Page); err != nil {
			return nil, err
		}
	}
	if an.Text != "" {
		if err := prj.Text(an.Text); err != nil {
			return nil, err
		}
	}

	switch res.DataType {
	case instruction.Matrix:
		*matrixCount++
		if err := a.matrixReport(prj, res, an, *matrixCount); err != nil {
			return nil, err
		}
		fmt.Fprintln(a.outW, "Independent variables:", in.Circuit().IndepVars())
		fmt.Fprintln(a.outW, "Dependent variables:", in.Circuit().DepVars())
	case instruction.Laplace, instruction.Numer, instruction.Denom:
		var value report.LaTeXer = res.Laplace
		switch res.DataType {
		case instruction.Numer:
			value = res.Numer
		case instruction.Denom:
			value = res.Denom
		}
		if err := prj.Equation(lhs(an, res), value, an.Label, an.LabelText); err != nil {
			return nil, err
		}
		fmt.Fprintf(a.outW, "%s = %s\n", lhs(an, res), value)
	case instruction.Poles, instruction.Zeros, instruction.PZ:
		title := an.LabelText
		if title == "" {
			title = "Poles and zeros of " + lhs(an, res)
		}
		if err := prj.PoleZero(res, title, an.Label); err != nil {
			return nil, err
		}
		for _, p := range res.Poles {
			fmt.Fprintf(a.outW, "pole: %v (%s)\n", p, strings.TrimSpace(util.FormatFrequency(cmplxFreq(p))))
		}
		for _, z := range res.Zeros {
			fmt.Fprintf(a.outW, "zero: %v (%s)\n", z, strings.TrimSpace(util.FormatFrequency(cmplxFreq(z))))
		}
	case instruction.Solve:
		if err := prj.Equation("D_v", res.Solve, an.Label, an.LabelText); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// matrixReport writes the MNA equation followed by its three parts.
func (a *App) matrixReport(prj *report.Project, res *instruction.Result, an *config.Analysis, n int) error {
	prefix := ""
	if n > 1 {
		prefix = an.Name + "_"
	}
	steps := []func() error{
		func() error { return prj.Matrices(res, an.Label, an.LabelText) },
		func() error { return prj.Text("The vector with independent variables is:") },
		func() error {
			return prj.Equation("I_v", res.Iv, prefix+"Iv", "Vector with independent variables")
		},
		func() error { return prj.Text("The MNA matrix is:") },
		func() error { return prj.Equation("M", res.M, prefix+"M", "MNA matrix") },
		func() error { return prj.Text("The vector with dependent variables is:") },
		func() error {
			return prj.Equation("D_v", res.DvSymbols(), prefix+"Dv", "Vector with dependent variables")
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func lhs(an *config.Analysis, res *instruction.Result) string {
	if an.LHS != "" {
		return an.LHS
	}
	det := res.Detector.Pos
	if res.Detector.Neg != "" {
		det = "(" + res.Detector.String() + ")"
	}
	switch {
	case res.DataType == instruction.Numer:
		return "N"
	case res.DataType == instruction.Denom:
		return "D"
	case res.GainType == instruction.Gain:
		return det + "/" + res.Source
	}
	return det
}

func (a *App) sweep(ctx context.Context, prj *report.Project, in *instruction.Instruction, sw *config.Sweep, out string) error {
	if err := in.DefPars(sw.Parameters); err != nil {
		return err
	}
	ac := analysis.NewAC(sw.Start, sw.Stop, sw.Points, sw.Type)
	if err := ac.Setup(in); err != nil {
		return err
	}
	if err := ac.Execute(ctx); err != nil {
		return err
	}

	results := ac.GetResults()
	name := ac.Name()
	if err := writeFile(out, func(w io.Writer) error {
		return plot.Bode(w, name, results["FREQ"], results[name+"_DB"], results[name+"_PHASE"])
	}); err != nil {
		return err
	}

	// Pass band and end of the sweep on the console
	for _, i := range []int{0, len(results["FREQ"]) - 1} {
		fmt.Fprintf(a.outW, "%s: %s\n", util.FormatFrequency(results["FREQ"][i]),
			util.FormatMagnitudePhase(name, results[name+"_MAG"][i], results[name+"_PHASE"][i]))
	}

	if sw.Page != "" {
		if err := prj.Page(sw.Page); err != nil {
			return err
		}
	}
	caption := fmt.Sprintf("Frequency response of %s.", name)
	return prj.Image(filepath.Base(out), 2*a.config.Project.ImageWidth, caption, sw.Label)
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmplxFreq(r complex128) float64 {
	return cmplx.Abs(r) / (2 * math.Pi)
}
