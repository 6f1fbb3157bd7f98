package device

import (
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

type Capacitor struct {
	BaseDevice
}

func NewCapacitor(name string, nodeNames []string, value expr.Rational) *Capacitor {
	return &Capacitor{BaseDevice: newBaseDevice(name, value, nodeNames)}
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := c.checkNodes(2); err != nil {
		return err
	}
	stampConductance(matrix, c.Nodes[0], c.Nodes[1], status.Laplace.Mul(c.value(status))) // s*C
	return nil
}
