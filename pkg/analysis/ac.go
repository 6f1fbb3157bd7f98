package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/symspice/internal/consts"
	"github.com/edp1096/symspice/internal/ctxlog"
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/instruction"
	"github.com/edp1096/symspice/pkg/matrix"
)

// ACAnalysis evaluates the MNA system of an instruction at s = j*2*pi*f
// and solves it numerically for every frequency point.
type ACAnalysis struct {
	BaseAnalysis
	startFreq   float64
	stopFreq    float64
	numPoints   int
	pointsType  string // "DEC", "OCT", "LIN"
	frequencies []float64
	name        string
	detector    [2]int // 1-based MNA indices, 0 when unused
	mat         *matrix.ComplexMatrix
}

func NewAC(fStart, fStop float64, nPoints int, pType string) *ACAnalysis {
	return &ACAnalysis{
		BaseAnalysis: *NewBaseAnalysis(),
		startFreq:    fStart,
		stopFreq:     fStop,
		numPoints:    nPoints,
		pointsType:   strings.ToUpper(pType),
	}
}

// Setup stamps the instruction's equations with all parameter values
// substituted. Every symbol other than the Laplace variable must be defined.
func (ac *ACAnalysis) Setup(in *instruction.Instruction) error {
	if err := ac.generateFrequencyPoints(); err != nil {
		return err
	}

	eq, err := in.Equations(true)
	if err != nil {
		return err
	}
	if !eq.Detector.IsSet() {
		return fmt.Errorf("%w: none selected", instruction.ErrUnknownDetector)
	}
	if err := checkNumeric(eq); err != nil {
		return err
	}

	for i, name := range []string{eq.Detector.Pos, eq.Detector.Neg} {
		if name == "" {
			continue
		}
		idx := -1
		for k, v := range eq.Dv {
			if v == name {
				idx = k + 1
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", instruction.ErrUnknownDetector, name)
		}
		ac.detector[i] = idx
	}

	ac.name = eq.Detector.String()
	if in.GainType() == instruction.Gain {
		ac.name = "(" + ac.name + ")/" + in.Source()
	}
	ac.Equations = eq
	return nil
}

// Name is the key prefix of the stored results.
func (ac *ACAnalysis) Name() string { return ac.name }

// checkNumeric requires numeric matrix entries. Source values may stay
// symbolic; they are swept with unit amplitude.
func checkNumeric(eq *instruction.Equations) error {
	for _, row := range eq.MNA.Matrix() {
		for _, e := range row {
			for _, sym := range e.Symbols() {
				if sym != consts.LaplaceVariable {
					return fmt.Errorf("%w: parameter %s has no value", expr.ErrNotNumeric, sym)
				}
			}
		}
	}
	return nil
}

func unitSymbols(eq *instruction.Equations) map[string]complex128 {
	vals := make(map[string]complex128)
	for _, e := range append(eq.MNA.RHS(), eq.Source) {
		for _, sym := range e.Symbols() {
			if sym != consts.LaplaceVariable {
				vals[sym] = 1
			}
		}
	}
	return vals
}

func (ac *ACAnalysis) Execute(ctx context.Context) error {
	if ac.Equations == nil {
		return fmt.Errorf("analysis not set up")
	}
	logger := ctxlog.FromContext(ctx)

	var err error
	ac.mat, err = matrix.NewComplexMatrix(ac.Equations.MNA.Size)
	if err != nil {
		return err
	}
	defer ac.mat.Destroy()

	m := ac.Equations.MNA.Matrix()
	rhs := ac.Equations.MNA.RHS()
	vals := unitSymbols(ac.Equations)
	for _, freq := range ac.frequencies {
		if err := ctx.Err(); err != nil {
			return err
		}
		vals[consts.LaplaceVariable] = complex(0, 2*math.Pi*freq)

		if err := ac.mat.Clear(); err != nil {
			return err
		}
		if err := ac.stamp(m, rhs, vals); err != nil {
			return fmt.Errorf("stamping error at f=%g: %w", freq, err)
		}
		if err := ac.mat.Solve(); err != nil {
			return fmt.Errorf("matrix solve error at f=%g: %w", freq, err)
		}

		out := ac.mat.Solution(ac.detector[0])
		if ac.detector[1] != 0 {
			out -= ac.mat.Solution(ac.detector[1])
		}
		src, err := ac.Equations.Source.Eval(vals)
		if err != nil {
			return fmt.Errorf("source value at f=%g: %w", freq, err)
		}
		ac.StoreACResult(freq, map[string]complex128{ac.name: out / src})
	}

	logger.Debug("AC sweep finished.", "points", len(ac.frequencies), "from", ac.startFreq, "to", ac.stopFreq)
	return nil
}

func (ac *ACAnalysis) stamp(m expr.Matrix, rhs expr.Vector, vals map[string]complex128) error {
	for i, row := range m {
		for j, e := range row {
			if e.IsZero() {
				continue
			}
			v, err := e.Eval(vals)
			if err != nil {
				return err
			}
			if err := ac.mat.AddElement(i+1, j+1, v); err != nil {
				return err
			}
		}
	}
	for i, e := range rhs {
		if e.IsZero() {
			continue
		}
		v, err := e.Eval(vals)
		if err != nil {
			return err
		}
		if err := ac.mat.AddRHS(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

// Frequencies returns the sweep points.
func (ac *ACAnalysis) Frequencies() []float64 {
	return ac.frequencies
}

func (ac *ACAnalysis) generateFrequencyPoints() error {
	if ac.numPoints < 2 {
		return fmt.Errorf("AC sweep needs at least 2 points, got %d", ac.numPoints)
	}
	if ac.startFreq <= 0 || ac.stopFreq <= ac.startFreq {
		return fmt.Errorf("invalid AC sweep range %g..%g", ac.startFreq, ac.stopFreq)
	}
	ac.frequencies = make([]float64, ac.numPoints)

	switch ac.pointsType {
	case "DEC", "OCT": // Logarithmic
		floats.LogSpan(ac.frequencies, ac.startFreq, ac.stopFreq)
	case "LIN": // Linear
		floats.Span(ac.frequencies, ac.startFreq, ac.stopFreq)
	default:
		return fmt.Errorf("unknown AC sweep type %q", ac.pointsType)
	}
	return nil
}
