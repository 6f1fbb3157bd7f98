package matrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edp1096/symspice/pkg/expr"
)

var (
	ErrSingular = errors.New("MNA matrix is singular")
	ErrTooLarge = errors.New("matrix too large for symbolic determinant")
)

// maxSymbolicSize bounds the cofactor expansion, whose memo is keyed by a
// column bitmask.
const maxSymbolicSize = 63

// MNA is a dense symbolic modified-nodal-analysis system M . x = rhs.
type MNA struct {
	Size   int
	matrix [][]expr.Rational
	rhs    []expr.Rational
	err    error
}

func NewMNA(size int) *MNA {
	m := &MNA{Size: size}
	m.Clear()
	return m
}

func (m *MNA) Clear() {
	m.matrix = make([][]expr.Rational, m.Size)
	for i := range m.matrix {
		m.matrix[i] = make([]expr.Rational, m.Size)
		for j := range m.matrix[i] {
			m.matrix[i][j] = expr.Zero()
		}
	}
	m.rhs = make([]expr.Rational, m.Size)
	for i := range m.rhs {
		m.rhs[i] = expr.Zero()
	}
	m.err = nil
}

func (m *MNA) AddElement(i, j int, value expr.Rational) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		m.fail(fmt.Errorf("matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size))
		return
	}
	m.matrix[i-1][j-1] = m.matrix[i-1][j-1].Add(value)
}

func (m *MNA) AddRHS(i int, value expr.Rational) {
	if i <= 0 || i > m.Size {
		m.fail(fmt.Errorf("RHS index out of bounds (i=%d, size=%d)", i, m.Size))
		return
	}
	m.rhs[i-1] = m.rhs[i-1].Add(value)
}

func (m *MNA) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// Err returns the first stamping error.
func (m *MNA) Err() error { return m.err }

// Matrix returns the system matrix, 0-based.
func (m *MNA) Matrix() expr.Matrix {
	out := make(expr.Matrix, m.Size)
	for i := range m.matrix {
		out[i] = append([]expr.Rational(nil), m.matrix[i]...)
	}
	return out
}

// RHS returns the independent-variable vector, 0-based.
func (m *MNA) RHS() expr.Vector {
	return append(expr.Vector(nil), m.rhs...)
}

func (m *MNA) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MNA system (%dx%d):\n", m.Size, m.Size)
	for i := range m.matrix {
		fmt.Fprintf(&sb, "  %v = %s\n", expr.Vector(m.matrix[i]).Strings(), m.rhs[i])
	}
	return sb.String()
}

// Determinant expands a polynomial matrix by cofactors, memoizing minors
// by the set of remaining columns.
func Determinant(a [][]expr.Poly) (expr.Poly, error) {
	n := len(a)
	if n == 0 {
		return expr.Int(1), nil
	}
	if n > maxSymbolicSize {
		return expr.Poly{}, fmt.Errorf("%w: %d unknowns", ErrTooLarge, n)
	}

	memo := make(map[uint64]expr.Poly)
	var minor func(row int, cols uint64) expr.Poly
	minor = func(row int, cols uint64) expr.Poly {
		if row == n {
			return expr.Int(1)
		}
		if v, ok := memo[cols]; ok {
			return v
		}
		var sum expr.Poly
		pos := 0
		for j := 0; j < n; j++ {
			bit := uint64(1) << uint(j)
			if cols&bit == 0 {
				continue
			}
			if !a[row][j].IsZero() {
				sub := minor(row+1, cols&^bit)
				if !sub.IsZero() {
					t := a[row][j].Mul(sub)
					if pos%2 == 1 {
						sum = sum.Sub(t)
					} else {
						sum = sum.Add(t)
					}
				}
			}
			pos++
		}
		memo[cols] = sum
		return sum
	}
	return minor(0, (uint64(1)<<uint(n))-1), nil
}

// scaleRows multiplies every row (and its RHS entry) by a common multiple
// of its denominators so that the system becomes polynomial.
func scaleRows(m expr.Matrix, rhs expr.Vector) ([][]expr.Poly, []expr.Poly, error) {
	n := len(m)
	pm := make([][]expr.Poly, n)
	pr := make([]expr.Poly, n)
	for i := range m {
		l := rhs[i].Den
		for _, e := range m[i] {
			l = expr.LCM(l, e.Den)
		}
		scale := func(e expr.Rational) (expr.Poly, error) {
			q, ok := l.DivExact(e.Den)
			if !ok {
				return expr.Poly{}, fmt.Errorf("row %d: %s does not divide %s", i+1, e.Den, l)
			}
			return e.Num.Mul(q), nil
		}
		pm[i] = make([]expr.Poly, len(m[i]))
		for j, e := range m[i] {
			p, err := scale(e)
			if err != nil {
				return nil, nil, err
			}
			pm[i][j] = p
		}
		p, err := scale(rhs[i])
		if err != nil {
			return nil, nil, err
		}
		pr[i] = p
	}
	return pm, pr, nil
}

// Solver solves a symbolic system with Cramer's rule. The system
// determinant is computed once and reused for every unknown.
type Solver struct {
	m   [][]expr.Poly
	rhs []expr.Poly
	det expr.Poly
}

func NewSolver(m expr.Matrix, rhs expr.Vector) (*Solver, error) {
	if len(m) != len(rhs) {
		return nil, fmt.Errorf("matrix has %d rows, RHS has %d", len(m), len(rhs))
	}
	pm, pr, err := scaleRows(m, rhs)
	if err != nil {
		return nil, err
	}
	det, err := Determinant(pm)
	if err != nil {
		return nil, err
	}
	if det.IsZero() {
		return nil, ErrSingular
	}
	return &Solver{m: pm, rhs: pr, det: det}, nil
}

// Det returns the determinant of the row-scaled matrix.
func (s *Solver) Det() expr.Poly { return s.det }

// Unknown returns unknown k, 0-based.
func (s *Solver) Unknown(k int) (expr.Rational, error) {
	if k < 0 || k >= len(s.m) {
		return expr.Rational{}, fmt.Errorf("unknown index %d out of range", k)
	}
	replaced := make([][]expr.Poly, len(s.m))
	for i := range s.m {
		replaced[i] = append([]expr.Poly(nil), s.m[i]...)
		replaced[i][k] = s.rhs[i]
	}
	num, err := Determinant(replaced)
	if err != nil {
		return expr.Rational{}, err
	}
	return expr.NewRational(num, s.det)
}

// All returns every unknown.
func (s *Solver) All() (expr.Vector, error) {
	out := make(expr.Vector, len(s.m))
	for k := range out {
		v, err := s.Unknown(k)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
