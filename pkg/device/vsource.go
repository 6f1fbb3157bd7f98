package device

import (
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

type VoltageSource struct {
	BaseDevice
	// Branch index for MNA
	branchIdx int
}

var (
	_ BranchDevice = (*VoltageSource)(nil)
	_ Independent  = (*VoltageSource)(nil)
)

func NewVoltageSource(name string, nodeNames []string, value expr.Rational) *VoltageSource {
	return &VoltageSource{BaseDevice: newBaseDevice(name, value, nodeNames)}
}

func (v *VoltageSource) GetType() string { return "V" }

func (v *VoltageSource) IsSource() bool { return true }

func (v *VoltageSource) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := v.checkNodes(2); err != nil {
		return err
	}

	// v1 - v2 = V
	stampBranch(matrix, v.Nodes[0], v.Nodes[1], v.branchIdx)
	if status.SourceActive(v.Name) {
		matrix.AddRHS(v.branchIdx, v.value(status))
	}
	return nil
}

func (v *VoltageSource) BranchIndex() int {
	return v.branchIdx
}

func (v *VoltageSource) SetBranchIndex(idx int) {
	v.branchIdx = idx
}
