package device

import (
	"fmt"

	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

type Device interface {
	GetName() string
	GetType() string
	GetNodeNames() []string
	GetNodes() []int
	Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error
	GetValue() expr.Rational
	SetNodes(nodes []int)
}

type BaseDevice struct {
	Name      string
	Nodes     []int
	Value     expr.Rational
	NodeNames []string
}

// BranchDevice carries its own branch current as an MNA unknown.
type BranchDevice interface {
	Device
	BranchIndex() int
	SetBranchIndex(idx int)
}

// Controlled devices reference the branch current of another element.
type Controlled interface {
	Device
	ControlName() string
	SetControlBranch(idx int)
}

// Independent sources contribute to the independent-variable vector.
type Independent interface {
	Device
	IsSource() bool
}

type StampMode int

const (
	AllSources   StampMode = iota // every independent source active
	SingleSource                  // only CircuitStatus.Source active
)

type CircuitStatus struct {
	Mode    StampMode
	Source  string                   // active source in SingleSource mode
	Laplace expr.Rational            // Laplace variable
	Values  map[string]expr.Rational // resolved element values by name, optional
}

// SourceActive reports whether independent source name contributes.
func (s *CircuitStatus) SourceActive(name string) bool {
	return s.Mode == AllSources || s.Source == name
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetNodes() []int {
	return d.Nodes
}

func (d *BaseDevice) GetNodeNames() []string {
	return d.NodeNames
}

func (d *BaseDevice) GetValue() expr.Rational {
	return d.Value
}

func (d *BaseDevice) SetNodes(nodes []int) {
	d.Nodes = nodes
}

// value returns the element value for this stamp, resolved when the
// status carries substituted values.
func (d *BaseDevice) value(status *CircuitStatus) expr.Rational {
	if v, ok := status.Values[d.Name]; ok {
		return v
	}
	return d.Value
}

func (d *BaseDevice) checkNodes(n int) error {
	if len(d.Nodes) != n {
		return fmt.Errorf("%s: requires exactly %d nodes, got %d", d.Name, n, len(d.Nodes))
	}
	return nil
}

func newBaseDevice(name string, value expr.Rational, nodeNames []string) BaseDevice {
	return BaseDevice{
		Name:      name,
		Value:     value,
		NodeNames: nodeNames,
		Nodes:     make([]int, len(nodeNames)),
	}
}

// stampConductance stamps admittance y between n1 and n2.
func stampConductance(matrix matrix.DeviceMatrix, n1, n2 int, y expr.Rational) {
	if n1 != 0 {
		matrix.AddElement(n1, n1, y)
		if n2 != 0 {
			matrix.AddElement(n1, n2, y.Neg())
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			matrix.AddElement(n2, n1, y.Neg())
		}
		matrix.AddElement(n2, n2, y)
	}
}

// stampBranch stamps the incidence of branch bIdx flowing from n1 to n2.
func stampBranch(matrix matrix.DeviceMatrix, n1, n2, bIdx int) {
	if n1 != 0 {
		matrix.AddElement(n1, bIdx, expr.One())
		matrix.AddElement(bIdx, n1, expr.One())
	}
	if n2 != 0 {
		matrix.AddElement(n2, bIdx, expr.Integer(-1))
		matrix.AddElement(bIdx, n2, expr.Integer(-1))
	}
}
