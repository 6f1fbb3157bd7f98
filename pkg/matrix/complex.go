package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// ComplexMatrix is a numeric complex MNA system solved with the sparse
// LU package. Used for frequency sweeps of an evaluated symbolic system.
type ComplexMatrix struct {
	Size         int
	matrix       *sparse.Matrix
	rhs          []float64
	rhsImag      []float64
	solution     []float64
	solutionImag []float64
	config       *sparse.Configuration
}

func NewComplexMatrix(size int) (*ComplexMatrix, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: true,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	m := &ComplexMatrix{
		Size:    size,
		rhs:     make([]float64, size+1), // 1-based indexing
		rhsImag: make([]float64, size+1),
		config:  config,
	}
	if err := m.create(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ComplexMatrix) create() error {
	mat, err := sparse.Create(int64(m.Size), m.config)
	if err != nil {
		return fmt.Errorf("creating sparse matrix: %w", err)
	}
	m.matrix = mat
	return nil
}

func (m *ComplexMatrix) inBounds(i, j int) bool {
	return i > 0 && j > 0 && i <= m.Size && j <= m.Size
}

func (m *ComplexMatrix) AddElement(i, j int, value complex128) error {
	if !m.inBounds(i, j) {
		return fmt.Errorf("matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size)
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	if element == nil {
		return fmt.Errorf("element (%d, %d) not available", i, j)
	}
	element.Real += real(value)
	element.Imag += imag(value)
	return nil
}

func (m *ComplexMatrix) AddRHS(i int, value complex128) error {
	if !m.inBounds(i, i) {
		return fmt.Errorf("RHS index out of bounds (i=%d, size=%d)", i, m.Size)
	}
	m.rhs[i] += real(value)
	m.rhsImag[i] += imag(value)
	return nil
}

// Clear starts a new system. Factoring reorders rows and columns in
// place, so the sparse matrix is rebuilt rather than zeroed.
func (m *ComplexMatrix) Clear() error {
	m.Destroy()
	for i := range m.rhs {
		m.rhs[i] = 0
		m.rhsImag[i] = 0
	}
	return m.create()
}

func (m *ComplexMatrix) Solve() error {
	var err error

	err = m.matrix.Factor()
	if err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}

	m.solution, m.solutionImag, err = m.matrix.SolveComplex(m.rhs, m.rhsImag)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	return nil
}

// Solution returns unknown i (1-based) of the last solve.
func (m *ComplexMatrix) Solution(i int) complex128 {
	if i <= 0 || i >= len(m.solution) {
		return 0
	}
	return complex(m.solution[i], m.solutionImag[i])
}

func (m *ComplexMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
