package instruction

import (
	"context"
	"errors"
	"fmt"

	"github.com/edp1096/symspice/internal/consts"
	"github.com/edp1096/symspice/internal/ctxlog"
	"github.com/edp1096/symspice/pkg/device"
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

// Result of one Execute call. Only the fields belonging to the data type
// are filled.
type Result struct {
	SimType  SimType
	GainType GainType
	DataType DataType
	Source   string
	Detector Detector

	Iv expr.Vector // independent variables
	Dv []string    // dependent variable names
	M  expr.Matrix // MNA matrix, Iv = M . Dv

	Laplace expr.Rational
	Numer   expr.Poly
	Denom   expr.Poly
	Poles   []complex128
	Zeros   []complex128
	DCValue *expr.Rational // nil when the transfer has a pole at s=0
	Solve   expr.Vector
}

// DvSymbols returns the dependent variables as symbols, for rendering.
func (r *Result) DvSymbols() expr.Vector {
	return expr.Symbols(r.Dv)
}

// Equations is the MNA system stamped for the current settings.
type Equations struct {
	MNA      *matrix.MNA
	Dv       []string
	Source   expr.Rational // value of the gain source; one for gain type vi
	Detector Detector
}

// Execute runs the instruction on the bound circuit.
func (in *Instruction) Execute(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	if err := in.check(); err != nil {
		return nil, err
	}
	logger.Debug("Executing instruction.",
		"sim_type", in.simType, "gain_type", in.gainType, "data_type", in.dataType,
		"source", in.source, "detector", in.detector.String())

	eq, err := in.Equations(in.simType == Numeric || in.needsNumbers())
	if err != nil {
		return nil, err
	}

	res := &Result{
		SimType:  in.simType,
		GainType: in.gainType,
		DataType: in.dataType,
		Source:   in.source,
		Detector: in.detector,
		Dv:       eq.Dv,
	}

	if in.dataType == Matrix {
		res.Iv = eq.MNA.RHS()
		res.M = eq.MNA.Matrix()
		return res, nil
	}

	solver, err := matrix.NewSolver(eq.MNA.Matrix(), eq.MNA.RHS())
	if err != nil {
		return nil, fmt.Errorf("solving MNA: %w", err)
	}
	logger.Debug("MNA determinant computed.", "size", eq.MNA.Size, "det_terms", solver.Det().Len())

	if in.dataType == Solve {
		sol, err := solveAll(ctx, solver, len(eq.Dv))
		if err != nil {
			return nil, err
		}
		res.Solve = sol
		return res, nil
	}

	tf, err := in.detectorResponse(solver, eq)
	if err != nil {
		return nil, err
	}
	res.Laplace = tf
	res.Numer, res.Denom = tf.Num, tf.Den
	if tf.Den.IsZero() {
		res.Denom = expr.Int(1)
	}

	switch in.dataType {
	case Poles, PZ:
		res.Poles, err = expr.Roots(res.Denom, consts.LaplaceVariable)
		if err != nil {
			return nil, fmt.Errorf("poles: %w", err)
		}
	}
	switch in.dataType {
	case Zeros, PZ:
		if !res.Numer.IsZero() {
			res.Zeros, err = expr.Roots(res.Numer, consts.LaplaceVariable)
			if err != nil {
				return nil, fmt.Errorf("zeros: %w", err)
			}
		}
	}

	if in.dataType == PZ {
		dc, err := tf.Subst(map[string]expr.Rational{consts.LaplaceVariable: expr.Zero()})
		if err == nil {
			res.DCValue = &dc
		} else if !errors.Is(err, expr.ErrDivByZero) {
			return nil, err
		}
	}
	return res, nil
}

// needsNumbers reports whether the data type requires numeric coefficients.
func (in *Instruction) needsNumbers() bool {
	switch in.dataType {
	case Poles, Zeros, PZ:
		return true
	}
	return false
}

// Equations stamps the MNA system for the current settings. With
// substitute set, parameter definitions are substituted into the element
// values first.
func (in *Instruction) Equations(substitute bool) (*Equations, error) {
	if in.circuit == nil {
		return nil, ErrNoCircuit
	}

	status := &device.CircuitStatus{
		Mode:    device.AllSources,
		Laplace: expr.Symbol(consts.LaplaceVariable),
	}
	if in.gainType == Gain {
		status.Mode = device.SingleSource
		status.Source = in.source
	}
	if substitute {
		values, err := in.circuit.ResolvedValues()
		if err != nil {
			return nil, err
		}
		status.Values = values
	}

	mna, err := in.circuit.Stamp(status)
	if err != nil {
		return nil, err
	}

	eq := &Equations{
		MNA:      mna,
		Dv:       in.circuit.DepVars(),
		Source:   expr.One(),
		Detector: in.detector,
	}
	if in.gainType == Gain {
		dev, ok := in.circuit.GetDevice(in.source)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, in.source)
		}
		eq.Source = dev.GetValue()
		if v, ok := status.Values[in.source]; ok {
			eq.Source = v
		}
		if eq.Source.IsZero() {
			return nil, fmt.Errorf("%w: source %s has zero value", ErrUnsupported, in.source)
		}
	}
	return eq, nil
}

// detectorResponse returns the detector value, divided by the source for
// gain type gain.
func (in *Instruction) detectorResponse(solver *matrix.Solver, eq *Equations) (expr.Rational, error) {
	out := expr.Zero()
	for i, name := range []string{eq.Detector.Pos, eq.Detector.Neg} {
		if name == "" {
			continue
		}
		k, ok := in.circuit.VarIndex(name)
		if !ok {
			return expr.Rational{}, fmt.Errorf("%w: %s", ErrUnknownDetector, name)
		}
		v, err := solver.Unknown(k - 1)
		if err != nil {
			return expr.Rational{}, err
		}
		if i == 1 {
			v = v.Neg()
		}
		out = out.Add(v)
	}
	return out.Div(eq.Source)
}

func solveAll(ctx context.Context, solver *matrix.Solver, n int) (expr.Vector, error) {
	out := make(expr.Vector, n)
	for k := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := solver.Unknown(k)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
