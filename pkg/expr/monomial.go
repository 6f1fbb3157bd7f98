package expr

import (
	"strconv"
	"strings"
)

// Factor is a symbol raised to a positive integer power.
type Factor struct {
	Sym string
	Exp int
}

// Monomial is a product of factors, sorted by symbol name. The empty
// monomial is the constant 1.
type Monomial []Factor

func (m Monomial) key() string {
	var sb strings.Builder
	for i, f := range m {
		if i > 0 {
			sb.WriteByte('*')
		}
		sb.WriteString(f.Sym)
		if f.Exp != 1 {
			sb.WriteByte('^')
			sb.WriteString(strconv.Itoa(f.Exp))
		}
	}
	return sb.String()
}

// Degree returns the total degree.
func (m Monomial) Degree() int {
	d := 0
	for _, f := range m {
		d += f.Exp
	}
	return d
}

// Exp returns the exponent of sym, 0 when absent.
func (m Monomial) Exp(sym string) int {
	for _, f := range m {
		if f.Sym == sym {
			return f.Exp
		}
	}
	return 0
}

func (m Monomial) mul(o Monomial) Monomial {
	out := make(Monomial, 0, len(m)+len(o))
	i, j := 0, 0
	for i < len(m) && j < len(o) {
		switch {
		case m[i].Sym == o[j].Sym:
			out = append(out, Factor{m[i].Sym, m[i].Exp + o[j].Exp})
			i++
			j++
		case m[i].Sym < o[j].Sym:
			out = append(out, m[i])
			i++
		default:
			out = append(out, o[j])
			j++
		}
	}
	out = append(out, m[i:]...)
	out = append(out, o[j:]...)
	return out
}

// divides reports whether m divides o.
func (m Monomial) divides(o Monomial) bool {
	for _, f := range m {
		if o.Exp(f.Sym) < f.Exp {
			return false
		}
	}
	return true
}

// quo returns o/m for a monomial m that divides o.
func (m Monomial) quo(o Monomial) Monomial {
	out := make(Monomial, 0, len(o))
	for _, f := range o {
		e := f.Exp - m.Exp(f.Sym)
		if e > 0 {
			out = append(out, Factor{f.Sym, e})
		}
	}
	return out
}

// without removes sym from the monomial.
func (m Monomial) without(sym string) Monomial {
	out := make(Monomial, 0, len(m))
	for _, f := range m {
		if f.Sym != sym {
			out = append(out, f)
		}
	}
	return out
}

func gcdMono(a, b Monomial) Monomial {
	var out Monomial
	for _, f := range a {
		e := min(f.Exp, b.Exp(f.Sym))
		if e > 0 {
			out = append(out, Factor{f.Sym, e})
		}
	}
	return out
}

func lcmMono(a, b Monomial) Monomial {
	return gcdMono(a, b).quo(a.mul(b))
}

// compareMono orders monomials lexicographically, alphabetically smaller
// symbols being more significant.
func compareMono(a, b Monomial) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b):
			return 1
		case i >= len(a):
			return -1
		case a[i].Sym == b[j].Sym:
			if a[i].Exp != b[j].Exp {
				if a[i].Exp > b[j].Exp {
					return 1
				}
				return -1
			}
			i++
			j++
		case a[i].Sym < b[j].Sym:
			return 1
		default:
			return -1
		}
	}
	return 0
}
