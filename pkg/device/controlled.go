package device

import (
	"fmt"

	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

// VCVS (E): v1 - v2 = A * (vc1 - vc2). Nodes are out+, out-, in+, in-.
type VCVS struct {
	BaseDevice
	branchIdx int
}

var _ BranchDevice = (*VCVS)(nil)

func NewVCVS(name string, nodeNames []string, gain expr.Rational) *VCVS {
	return &VCVS{BaseDevice: newBaseDevice(name, gain, nodeNames)}
}

func (e *VCVS) GetType() string { return "E" }

func (e *VCVS) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := e.checkNodes(4); err != nil {
		return err
	}

	stampBranch(matrix, e.Nodes[0], e.Nodes[1], e.branchIdx)
	gain := e.value(status)
	if nc1 := e.Nodes[2]; nc1 != 0 {
		matrix.AddElement(e.branchIdx, nc1, gain.Neg())
	}
	if nc2 := e.Nodes[3]; nc2 != 0 {
		matrix.AddElement(e.branchIdx, nc2, gain)
	}
	return nil
}

func (e *VCVS) BranchIndex() int { return e.branchIdx }

func (e *VCVS) SetBranchIndex(idx int) { e.branchIdx = idx }

// VCCS (G): a current gm * (vc1 - vc2) flows from n1 through the source to n2.
type VCCS struct {
	BaseDevice
}

func NewVCCS(name string, nodeNames []string, gm expr.Rational) *VCCS {
	return &VCCS{BaseDevice: newBaseDevice(name, gm, nodeNames)}
}

func (g *VCCS) GetType() string { return "G" }

func (g *VCCS) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := g.checkNodes(4); err != nil {
		return err
	}

	gm := g.value(status)
	n1, n2, nc1, nc2 := g.Nodes[0], g.Nodes[1], g.Nodes[2], g.Nodes[3]
	stamp := func(row, col int, v expr.Rational) {
		if row != 0 && col != 0 {
			matrix.AddElement(row, col, v)
		}
	}
	stamp(n1, nc1, gm)
	stamp(n1, nc2, gm.Neg())
	stamp(n2, nc1, gm.Neg())
	stamp(n2, nc2, gm)
	return nil
}

// CCCS (F): a current gain * i(ctrl) flows from n1 through the source to n2.
type CCCS struct {
	BaseDevice
	control       string
	controlBranch int
}

var _ Controlled = (*CCCS)(nil)

func NewCCCS(name string, nodeNames []string, control string, gain expr.Rational) *CCCS {
	return &CCCS{BaseDevice: newBaseDevice(name, gain, nodeNames), control: control}
}

func (f *CCCS) GetType() string { return "F" }

func (f *CCCS) ControlName() string { return f.control }

func (f *CCCS) SetControlBranch(idx int) { f.controlBranch = idx }

func (f *CCCS) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := f.checkNodes(2); err != nil {
		return err
	}
	if f.controlBranch == 0 {
		return fmt.Errorf("%s: controlling element %s has no branch current", f.Name, f.control)
	}

	gain := f.value(status)
	if n1 := f.Nodes[0]; n1 != 0 {
		matrix.AddElement(n1, f.controlBranch, gain)
	}
	if n2 := f.Nodes[1]; n2 != 0 {
		matrix.AddElement(n2, f.controlBranch, gain.Neg())
	}
	return nil
}

// CCVS (H): v1 - v2 = r * i(ctrl).
type CCVS struct {
	BaseDevice
	control       string
	controlBranch int
	branchIdx     int
}

var (
	_ Controlled   = (*CCVS)(nil)
	_ BranchDevice = (*CCVS)(nil)
)

func NewCCVS(name string, nodeNames []string, control string, transresistance expr.Rational) *CCVS {
	return &CCVS{BaseDevice: newBaseDevice(name, transresistance, nodeNames), control: control}
}

func (h *CCVS) GetType() string { return "H" }

func (h *CCVS) ControlName() string { return h.control }

func (h *CCVS) SetControlBranch(idx int) { h.controlBranch = idx }

func (h *CCVS) BranchIndex() int { return h.branchIdx }

func (h *CCVS) SetBranchIndex(idx int) { h.branchIdx = idx }

func (h *CCVS) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := h.checkNodes(2); err != nil {
		return err
	}
	if h.controlBranch == 0 {
		return fmt.Errorf("%s: controlling element %s has no branch current", h.Name, h.control)
	}

	stampBranch(matrix, h.Nodes[0], h.Nodes[1], h.branchIdx)
	matrix.AddElement(h.branchIdx, h.controlBranch, h.value(status).Neg())
	return nil
}
