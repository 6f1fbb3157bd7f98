package device

import (
	"fmt"

	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

type Resistor struct {
	BaseDevice
}

func NewResistor(name string, nodeNames []string, value expr.Rational) *Resistor {
	return &Resistor{BaseDevice: newBaseDevice(name, value, nodeNames)}
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := r.checkNodes(2); err != nil {
		return err
	}

	g, err := r.value(status).Inv() // Conductance. G = 1/R
	if err != nil {
		return fmt.Errorf("resistor %s: zero resistance", r.Name)
	}
	stampConductance(matrix, r.Nodes[0], r.Nodes[1], g)
	return nil
}
