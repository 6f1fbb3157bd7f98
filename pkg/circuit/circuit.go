package circuit

import (
	"errors"
	"fmt"
	"sort"

	"github.com/edp1096/symspice/internal/consts"
	"github.com/edp1096/symspice/pkg/device"
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
	"github.com/edp1096/symspice/pkg/netlist"
)

var ErrUnknownParam = errors.New("unknown parameter")

type Circuit struct {
	Title     string
	Elements  []netlist.Element
	nodeMap   map[string]int
	nodes     []string
	branchMap map[string]int
	branches  []string
	devices   []device.Device
	sources   []string
	parDefs   map[string]expr.Rational
	parOrder  []string
	parText   map[string]string
}

// New builds a circuit from a parsed netlist.
func New(data *netlist.NetlistData) (*Circuit, error) {
	c := &Circuit{
		Title:     data.Title,
		Elements:  data.Elements,
		nodeMap:   make(map[string]int),
		branchMap: make(map[string]int),
		parDefs:   make(map[string]expr.Rational),
		parText:   make(map[string]string),
	}
	for _, def := range data.ParDefs {
		c.setPar(def.Name, def.Value, def.Text)
	}

	if err := c.SetupDevices(data.Elements); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Circuit) SetupDevices(elements []netlist.Element) error {
	// Nodes in sorted order
	for _, elem := range elements {
		for _, nodeName := range elem.Nodes {
			if consts.IsGround(nodeName) {
				continue
			}
			c.nodeMap[nodeName] = 0
		}
	}
	for name := range c.nodeMap {
		c.nodes = append(c.nodes, name)
	}
	sort.Strings(c.nodes)
	for i, name := range c.nodes {
		c.nodeMap[name] = i + 1
	}

	for _, elem := range elements {
		dev, err := netlist.CreateDevice(elem)
		if err != nil {
			return fmt.Errorf("creating device %s: %w", elem.Name, err)
		}

		// Node index
		nodeIndices := make([]int, len(elem.Nodes))
		for i, nodeName := range elem.Nodes {
			if consts.IsGround(nodeName) {
				nodeIndices[i] = 0
				continue
			}
			nodeIndices[i] = c.nodeMap[nodeName]
		}
		dev.SetNodes(nodeIndices)

		// Branches follow the nodes in element order
		if b, ok := dev.(device.BranchDevice); ok {
			idx := len(c.nodes) + len(c.branches) + 1
			b.SetBranchIndex(idx)
			c.branchMap[elem.Name] = idx
			c.branches = append(c.branches, elem.Name)
		}
		if s, ok := dev.(device.Independent); ok && s.IsSource() {
			c.sources = append(c.sources, elem.Name)
		}

		c.devices = append(c.devices, dev)
	}

	for _, dev := range c.devices {
		ctl, ok := dev.(device.Controlled)
		if !ok {
			continue
		}
		idx, ok := c.branchMap[ctl.ControlName()]
		if !ok {
			return fmt.Errorf("%s: controlling element %s has no branch current", dev.GetName(), ctl.ControlName())
		}
		ctl.SetControlBranch(idx)
	}
	return nil
}

// Size returns the number of MNA unknowns.
func (c *Circuit) Size() int {
	return len(c.nodes) + len(c.branches)
}

// Stamp builds the symbolic MNA system for the given status.
func (c *Circuit) Stamp(status *device.CircuitStatus) (*matrix.MNA, error) {
	if status.Laplace.Num.IsZero() && status.Laplace.Den.IsZero() {
		status.Laplace = expr.Symbol(consts.LaplaceVariable)
	}

	mna := matrix.NewMNA(c.Size())
	for _, dev := range c.devices {
		err := dev.Stamp(mna, status)
		if err != nil {
			return nil, fmt.Errorf("stamping device %s: %w", dev.GetName(), err)
		}
	}
	if err := mna.Err(); err != nil {
		return nil, err
	}
	return mna, nil
}

func (c *Circuit) GetNodeMap() map[string]int {
	return c.nodeMap
}

func (c *Circuit) GetBranchMap() map[string]int {
	return c.branchMap
}

func (c *Circuit) GetDevices() []device.Device {
	return c.devices
}

func (c *Circuit) GetDevice(name string) (device.Device, bool) {
	for _, dev := range c.devices {
		if dev.GetName() == name {
			return dev, true
		}
	}
	return nil, false
}

// Nodes returns the sorted non-ground node names.
func (c *Circuit) Nodes() []string {
	return append([]string(nil), c.nodes...)
}

// DepVars returns the dependent variables in MNA order: node voltages
// V_<node>, then branch currents I_<element>.
func (c *Circuit) DepVars() []string {
	vars := make([]string, 0, c.Size())
	for _, n := range c.nodes {
		vars = append(vars, consts.VoltagePrefix+n)
	}
	for _, b := range c.branches {
		vars = append(vars, consts.CurrentPrefix+b)
	}
	return vars
}

// IndepVars returns the names of the independent sources.
func (c *Circuit) IndepVars() []string {
	return append([]string(nil), c.sources...)
}

// VarIndex returns the 1-based MNA index of a dependent variable.
func (c *Circuit) VarIndex(name string) (int, bool) {
	for i, v := range c.DepVars() {
		if v == name {
			return i + 1, true
		}
	}
	return 0, false
}

// IsSource reports whether name is an independent source.
func (c *Circuit) IsSource(name string) bool {
	for _, s := range c.sources {
		if s == name {
			return true
		}
	}
	return false
}

func (c *Circuit) setPar(name string, value expr.Rational, text string) {
	if _, ok := c.parDefs[name]; !ok {
		c.parOrder = append(c.parOrder, name)
	}
	c.parDefs[name] = value
	c.parText[name] = text
}

// DefPar adds or replaces a parameter definition.
func (c *Circuit) DefPar(name string, value expr.Rational) {
	c.setPar(name, value, value.String())
}

// DelPar removes a parameter definition.
func (c *Circuit) DelPar(name string) error {
	if _, ok := c.parDefs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	delete(c.parDefs, name)
	delete(c.parText, name)
	for i, n := range c.parOrder {
		if n == name {
			c.parOrder = append(c.parOrder[:i], c.parOrder[i+1:]...)
			break
		}
	}
	return nil
}

// ParDefs returns the parameter definitions in definition order.
func (c *Circuit) ParDefs() []netlist.ParDef {
	defs := make([]netlist.ParDef, len(c.parOrder))
	for i, name := range c.parOrder {
		defs[i] = netlist.ParDef{Name: name, Text: c.parText[name], Value: c.parDefs[name]}
	}
	return defs
}

// ParDefMap returns the parameter definitions by name.
func (c *Circuit) ParDefMap() map[string]expr.Rational {
	m := make(map[string]expr.Rational, len(c.parDefs))
	for k, v := range c.parDefs {
		m[k] = v
	}
	return m
}

// GetParValue returns the definition of name with every nested definition
// substituted.
func (c *Circuit) GetParValue(name string) (expr.Rational, error) {
	v, ok := c.parDefs[name]
	if !ok {
		return expr.Rational{}, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return expr.Resolve(v, c.parDefs)
}

// Params returns the symbols used by element values and parameter
// definitions that have no definition themselves, sorted. The Laplace
// variable and source names are not parameters.
func (c *Circuit) Params() []string {
	seen := make(map[string]struct{})
	add := func(r expr.Rational) {
		for _, s := range r.Symbols() {
			seen[s] = struct{}{}
		}
	}
	for _, elem := range c.Elements {
		add(elem.Value)
	}
	for _, v := range c.parDefs {
		add(v)
	}

	var params []string
	for s := range seen {
		if _, defined := c.parDefs[s]; defined {
			continue
		}
		if s == consts.LaplaceVariable || c.IsSource(s) {
			continue
		}
		params = append(params, s)
	}
	sort.Strings(params)
	return params
}

// ResolvedValues returns every element value with parameter definitions
// substituted recursively.
func (c *Circuit) ResolvedValues() (map[string]expr.Rational, error) {
	values := make(map[string]expr.Rational, len(c.devices))
	for _, dev := range c.devices {
		v, err := expr.Resolve(dev.GetValue(), c.parDefs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dev.GetName(), err)
		}
		values[dev.GetName()] = v
	}
	return values, nil
}
