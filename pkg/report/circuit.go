package report

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/edp1096/symspice/pkg/circuit"
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/instruction"
	"github.com/edp1096/symspice/pkg/util"
)

// LaTeXer is anything that renders itself as LaTeX.
type LaTeXer interface {
	LaTeX() string
}

// ElementData shows the expanded netlist of a circuit.
func (p *Project) ElementData(c *circuit.Circuit, label string) error {
	type row struct{ Name, Nodes, Refs, Type, Value string }
	rows := make([]row, len(c.Elements))
	for i, e := range c.Elements {
		rows[i] = row{
			Name:  e.Name,
			Nodes: strings.Join(e.Nodes, " "),
			Refs:  strings.Join(e.Refs, " "),
			Type:  e.Type,
			Value: e.Value.LaTeX(),
		}
	}
	data := struct {
		Label string
		Rows  []row
	}{label, rows}
	return p.add("elements", data, label, "elementdata", "Element data of "+c.Title)
}

// Params shows the parameter definitions and the undefined parameters.
func (p *Project) Params(c *circuit.Circuit, label string) error {
	type def struct{ Name, Symbolic, Numeric string }
	var defs []def
	for _, d := range c.ParDefs() {
		numeric := "-"
		if v, err := c.GetParValue(d.Name); err == nil {
			numeric = v.LaTeX()
			if f, err := v.Float(); err == nil {
				numeric = util.FormatValueFactor(f, "")
			}
		}
		defs = append(defs, def{expr.SymbolLaTeX(d.Name), d.Value.LaTeX(), numeric})
	}
	var undefined []string
	for _, name := range c.Params() {
		undefined = append(undefined, expr.SymbolLaTeX(name))
	}
	data := struct {
		Label     string
		Defs      []def
		Undefined []string
	}{label, defs, undefined}
	return p.add("params", data, label, "params", "Parameters of "+c.Title)
}

// Equation shows lhs = rhs. The left-hand side is parsed as an expression
// so that "V_out/V_1" renders as a fraction.
func (p *Project) Equation(lhs string, rhs LaTeXer, label, labelText string) error {
	left := lhs
	if r, err := expr.Parse(lhs); err == nil {
		left = r.LaTeX()
	}
	return p.equation(left+" = "+rhs.LaTeX(), label, labelText)
}

// Matrices shows the MNA equation Iv = M . Dv of a matrix result.
func (p *Project) Matrices(res *instruction.Result, label, labelText string) error {
	if res.M == nil {
		return fmt.Errorf("result of data type %s has no matrix", res.DataType)
	}
	eq := res.Iv.LaTeX() + " = " + res.M.LaTeX() + ` \cdot ` + res.DvSymbols().LaTeX()
	return p.equation(eq, label, labelText)
}

func (p *Project) equation(latex, label, text string) error {
	data := struct{ LaTeX, Label, Text string }{latex, label, text}
	return p.add("equation", data, label, "eqn", text)
}

// PoleZero shows the poles, zeros and DC value of a pz, poles or zeros result.
func (p *Project) PoleZero(res *instruction.Result, title, label string) error {
	type root struct{ Re, Im, Freq string }
	type table struct {
		Name string
		Rows []root
	}
	rows := func(roots []complex128) []root {
		out := make([]root, len(roots))
		for i, r := range roots {
			out[i] = root{
				Re:   util.FormatValueFactor(real(r), ""),
				Im:   util.FormatValueFactor(imag(r), ""),
				Freq: strings.TrimSpace(util.FormatFrequency(cmplx.Abs(r) / (2 * math.Pi))),
			}
		}
		return out
	}

	var tables []table
	switch res.DataType {
	case instruction.Poles:
		tables = []table{{"Poles", rows(res.Poles)}}
	case instruction.Zeros:
		tables = []table{{"Zeros", rows(res.Zeros)}}
	case instruction.PZ:
		tables = []table{{"Poles", rows(res.Poles)}, {"Zeros", rows(res.Zeros)}}
	default:
		return fmt.Errorf("result of data type %s has no poles or zeros", res.DataType)
	}

	dc := ""
	if res.DCValue != nil {
		dc = res.DCValue.LaTeX()
	}
	data := struct {
		Title, Label, DC string
		Tables           []table
	}{title, label, dc, tables}
	return p.add("pz", data, label, "pz", title)
}
