package device

import (
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

// CurrentSource drives its current from n1 through the source to n2.
type CurrentSource struct {
	BaseDevice
}

var _ Independent = (*CurrentSource)(nil)

func NewCurrentSource(name string, nodeNames []string, value expr.Rational) *CurrentSource {
	return &CurrentSource{BaseDevice: newBaseDevice(name, value, nodeNames)}
}

func (i *CurrentSource) GetType() string { return "I" }

func (i *CurrentSource) IsSource() bool { return true }

func (i *CurrentSource) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := i.checkNodes(2); err != nil {
		return err
	}
	if !status.SourceActive(i.Name) {
		return nil
	}

	n1, n2 := i.Nodes[0], i.Nodes[1]
	current := i.value(status)
	if n1 != 0 {
		matrix.AddRHS(n1, current.Neg())
	}
	if n2 != 0 {
		matrix.AddRHS(n2, current)
	}
	return nil
}
