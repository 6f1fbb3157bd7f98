package device

import (
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/matrix"
)

// Inductor is stamped with its branch current so that 1/(s*L) never
// appears in the matrix.
type Inductor struct {
	BaseDevice
	branchIdx int
}

var _ BranchDevice = (*Inductor)(nil)

func NewInductor(name string, nodeNames []string, value expr.Rational) *Inductor {
	return &Inductor{BaseDevice: newBaseDevice(name, value, nodeNames)}
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	if err := l.checkNodes(2); err != nil {
		return err
	}

	// v1 - v2 - s*L*i = 0
	stampBranch(matrix, l.Nodes[0], l.Nodes[1], l.branchIdx)
	matrix.AddElement(l.branchIdx, l.branchIdx, status.Laplace.Mul(l.value(status)).Neg())
	return nil
}

func (l *Inductor) BranchIndex() int { return l.branchIdx }

func (l *Inductor) SetBranchIndex(idx int) { l.branchIdx = idx }
