package matrix

import "github.com/edp1096/symspice/pkg/expr"

type DeviceMatrix interface {
	AddElement(i, j int, value expr.Rational) // 1-based indexing
	AddRHS(i int, value expr.Rational)
}
