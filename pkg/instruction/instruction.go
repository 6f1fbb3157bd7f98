// Package instruction holds the analysis settings applied to a circuit and
// executes them.
package instruction

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/edp1096/symspice/pkg/circuit"
	"github.com/edp1096/symspice/pkg/expr"
)

var (
	ErrNoCircuit       = errors.New("no circuit defined")
	ErrUnknownSource   = errors.New("unknown source")
	ErrUnknownDetector = errors.New("unknown detector")
	ErrUnsupported     = errors.New("unsupported instruction")
	ErrInvalidSetting  = errors.New("invalid instruction setting")
)

type SimType string

const (
	Symbolic SimType = "symbolic"
	Numeric  SimType = "numeric"
)

type GainType string

const (
	VI   GainType = "vi"   // detector response to all sources
	Gain GainType = "gain" // detector response divided by the source
)

type DataType string

const (
	Matrix  DataType = "matrix"
	Laplace DataType = "laplace"
	Numer   DataType = "numer"
	Denom   DataType = "denom"
	Poles   DataType = "poles"
	Zeros   DataType = "zeros"
	PZ      DataType = "pz"
	Solve   DataType = "solve"
)

var (
	simTypes  = []SimType{Symbolic, Numeric}
	gainTypes = []GainType{VI, Gain}
	dataTypes = []DataType{Matrix, Laplace, Numer, Denom, Poles, Zeros, PZ, Solve}
)

// Detector is a dependent variable, or the difference of two of the same
// kind when Neg is set.
type Detector struct {
	Pos string
	Neg string
}

func (d Detector) String() string {
	if d.Neg == "" {
		return d.Pos
	}
	return d.Pos + " - " + d.Neg
}

// IsSet reports whether a detector has been chosen.
func (d Detector) IsSet() bool { return d.Pos != "" || d.Neg != "" }

type Instruction struct {
	circuit  *circuit.Circuit
	simType  SimType
	gainType GainType
	dataType DataType
	source   string
	detector Detector
}

// New returns an instruction with symbolic simulation and gain type vi.
func New() *Instruction {
	return &Instruction{simType: Symbolic, gainType: VI}
}

func (in *Instruction) SetCircuit(c *circuit.Circuit) {
	in.circuit = c
}

func (in *Instruction) Circuit() *circuit.Circuit { return in.circuit }

func (in *Instruction) SetSimType(t string) error {
	for _, v := range simTypes {
		if string(v) == strings.ToLower(t) {
			in.simType = v
			return nil
		}
	}
	return fmt.Errorf("%w: simulation type %q", ErrInvalidSetting, t)
}

func (in *Instruction) SimType() SimType { return in.simType }

func (in *Instruction) SetGainType(t string) error {
	for _, v := range gainTypes {
		if string(v) == strings.ToLower(t) {
			in.gainType = v
			return nil
		}
	}
	return fmt.Errorf("%w: gain type %q", ErrInvalidSetting, t)
}

func (in *Instruction) GainType() GainType { return in.gainType }

func (in *Instruction) SetDataType(t string) error {
	for _, v := range dataTypes {
		if string(v) == strings.ToLower(t) {
			in.dataType = v
			return nil
		}
	}
	return fmt.Errorf("%w: data type %q", ErrInvalidSetting, t)
}

func (in *Instruction) DataType() DataType { return in.dataType }

// SetSource selects the independent source used for gain calculations.
func (in *Instruction) SetSource(name string) error {
	if in.circuit == nil {
		return ErrNoCircuit
	}
	if !in.circuit.IsSource(name) {
		return fmt.Errorf("%w: %s, available: %v", ErrUnknownSource, name, in.circuit.IndepVars())
	}
	in.source = name
	return nil
}

func (in *Instruction) Source() string { return in.source }

// SetDetector selects the detector. A second name makes it differential.
func (in *Instruction) SetDetector(pos string, neg ...string) error {
	if in.circuit == nil {
		return ErrNoCircuit
	}
	if len(neg) > 1 {
		return fmt.Errorf("%w: too many detector names", ErrInvalidSetting)
	}
	d := Detector{Pos: pos}
	if len(neg) == 1 {
		d.Neg = neg[0]
	}
	if err := in.checkDetector(d); err != nil {
		return err
	}
	in.detector = d
	return nil
}

func (in *Instruction) Detector() Detector { return in.detector }

func (in *Instruction) checkDetector(d Detector) error {
	if !d.IsSet() {
		return fmt.Errorf("%w: none selected", ErrUnknownDetector)
	}
	var kind byte
	for _, name := range []string{d.Pos, d.Neg} {
		if name == "" {
			continue
		}
		if _, ok := in.circuit.VarIndex(name); !ok {
			return fmt.Errorf("%w: %s, available: %v", ErrUnknownDetector, name, in.circuit.DepVars())
		}
		if kind != 0 && name[0] != kind {
			return fmt.Errorf("%w: %s mixes voltage and current", ErrUnknownDetector, d)
		}
		kind = name[0]
	}
	return nil
}

// DefPar parses text and defines parameter name.
func (in *Instruction) DefPar(name, text string) error {
	if in.circuit == nil {
		return ErrNoCircuit
	}
	value, err := expr.Parse(text)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", name, err)
	}
	in.circuit.DefPar(name, value)
	return nil
}

// DefPars defines several parameters in name order.
func (in *Instruction) DefPars(defs map[string]string) error {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := in.DefPar(name, defs[name]); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instruction) DelPar(name string) error {
	if in.circuit == nil {
		return ErrNoCircuit
	}
	return in.circuit.DelPar(name)
}

// GetParValue returns the fully substituted value of a parameter.
func (in *Instruction) GetParValue(name string) (expr.Rational, error) {
	if in.circuit == nil {
		return expr.Rational{}, ErrNoCircuit
	}
	return in.circuit.GetParValue(name)
}

// IndepVars returns the independent variables of the bound circuit.
func (in *Instruction) IndepVars() ([]string, error) {
	if in.circuit == nil {
		return nil, ErrNoCircuit
	}
	return in.circuit.IndepVars(), nil
}

// DepVars returns the dependent variables of the bound circuit.
func (in *Instruction) DepVars() ([]string, error) {
	if in.circuit == nil {
		return nil, ErrNoCircuit
	}
	return in.circuit.DepVars(), nil
}

// check validates the complete setting before execution.
func (in *Instruction) check() error {
	if in.circuit == nil {
		return ErrNoCircuit
	}
	if in.dataType == "" {
		return fmt.Errorf("%w: no data type", ErrUnsupported)
	}
	if in.gainType == Gain {
		if in.source == "" {
			return fmt.Errorf("%w: gain type %s needs a source", ErrUnknownSource, in.gainType)
		}
		if !in.circuit.IsSource(in.source) {
			return fmt.Errorf("%w: %s", ErrUnknownSource, in.source)
		}
	}
	switch in.dataType {
	case Matrix, Solve:
	default:
		if err := in.checkDetector(in.detector); err != nil {
			return err
		}
	}
	return nil
}
