package expr

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var (
	ErrSyntax     = errors.New("expression syntax error")
	ErrUndefined  = errors.New("undefined symbol")
	ErrCycle      = errors.New("circular parameter definition")
	ErrDivByZero  = errors.New("division by zero")
	ErrNotNumeric = errors.New("expression is not numeric")
)

// Rational is a rational function Num/Den of two polynomials. The zero
// value is not valid; use Zero, One, Number, Symbol or NewRational.
type Rational struct {
	Num Poly
	Den Poly
}

// NewRational returns num/den in normalized form.
func NewRational(num, den Poly) (Rational, error) {
	if den.IsZero() {
		return Rational{}, ErrDivByZero
	}
	return Rational{Num: num, Den: den}.normalize(), nil
}

// FromPoly returns p/1.
func FromPoly(p Poly) Rational { return Rational{Num: p, Den: Int(1)} }

// Zero returns 0.
func Zero() Rational { return FromPoly(Poly{}) }

// One returns 1.
func One() Rational { return FromPoly(Int(1)) }

// Integer returns n.
func Integer(n int64) Rational { return FromPoly(Int(n)) }

// Number returns the constant r.
func Number(r *big.Rat) Rational { return FromPoly(Const(r)) }

// Symbol returns the rational consisting of the single symbol name.
func Symbol(name string) Rational { return FromPoly(Var(name)) }

func (r Rational) den() Poly {
	if r.Den.IsZero() {
		return Int(1)
	}
	return r.Den
}

// normalize cancels numeric and monomial content, tries exact division
// both ways and makes the leading denominator coefficient positive.
func (r Rational) normalize() Rational {
	num, den := r.Num, r.den()
	if num.IsZero() {
		return Zero()
	}
	if c, ok := den.IsConst(); ok {
		return FromPoly(num.Scale(new(big.Rat).Inv(c)))
	}

	_, mn := num.Content()
	cd, md := den.Content()
	g := gcdMono(mn, md)
	num = num.divTerm(cd, g)
	den = den.divTerm(cd, g)

	if q, ok := num.DivExact(den); ok {
		return FromPoly(q)
	}
	if _, ok := num.IsConst(); !ok {
		if q, ok := den.DivExact(num); ok {
			num, den = Int(1), q
		}
	}
	if c, ok := den.IsConst(); ok {
		return FromPoly(num.Scale(new(big.Rat).Inv(c)))
	}
	if den.leading().Coef.Sign() < 0 {
		num, den = num.Neg(), den.Neg()
	}
	return Rational{Num: num, Den: den}
}

// IsZero reports whether r == 0.
func (r Rational) IsZero() bool { return r.Num.IsZero() }

// IsConst returns the numeric value of r when it has no symbols.
func (r Rational) IsConst() (*big.Rat, bool) {
	n, ok := r.Num.IsConst()
	if !ok {
		return nil, false
	}
	d, ok := r.den().IsConst()
	if !ok || d.Sign() == 0 {
		return nil, false
	}
	return n.Quo(n, d), true
}

// Float returns the float64 value of a numeric r.
func (r Rational) Float() (float64, error) {
	c, ok := r.IsConst()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, r)
	}
	f, _ := c.Float64()
	return f, nil
}

// Add returns r+o.
func (r Rational) Add(o Rational) Rational {
	if r.den().Equal(o.den()) {
		return Rational{Num: r.Num.Add(o.Num), Den: r.den()}.normalize()
	}
	return Rational{
		Num: r.Num.Mul(o.den()).Add(o.Num.Mul(r.den())),
		Den: r.den().Mul(o.den()),
	}.normalize()
}

// Sub returns r-o.
func (r Rational) Sub(o Rational) Rational { return r.Add(o.Neg()) }

// Neg returns -r.
func (r Rational) Neg() Rational { return Rational{Num: r.Num.Neg(), Den: r.den()} }

// Mul returns r*o.
func (r Rational) Mul(o Rational) Rational {
	return Rational{Num: r.Num.Mul(o.Num), Den: r.den().Mul(o.den())}.normalize()
}

// Div returns r/o.
func (r Rational) Div(o Rational) (Rational, error) {
	if o.IsZero() {
		return Rational{}, ErrDivByZero
	}
	return Rational{Num: r.Num.Mul(o.den()), Den: r.den().Mul(o.Num)}.normalize(), nil
}

// Inv returns 1/r.
func (r Rational) Inv() (Rational, error) { return One().Div(r) }

// Pow returns r^n for any integer n.
func (r Rational) Pow(n int) (Rational, error) {
	base := r
	if n < 0 {
		inv, err := r.Inv()
		if err != nil {
			return Rational{}, err
		}
		base, n = inv, -n
	}
	out := One()
	for ; n > 0; n-- {
		out = out.Mul(base)
	}
	return out, nil
}

// Equal reports whether r and o are the same rational function.
func (r Rational) Equal(o Rational) bool {
	return r.Num.Mul(o.den()).Equal(o.Num.Mul(r.den()))
}

// Symbols returns the sorted symbols of numerator and denominator.
func (r Rational) Symbols() []string {
	seen := make(map[string]struct{})
	for _, s := range r.Num.Symbols() {
		seen[s] = struct{}{}
	}
	for _, s := range r.den().Symbols() {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Has reports whether sym occurs in r.
func (r Rational) Has(sym string) bool {
	for _, s := range r.Symbols() {
		if s == sym {
			return true
		}
	}
	return false
}

// Subst replaces symbols by the given values, one level deep.
func (r Rational) Subst(vals map[string]Rational) (Rational, error) {
	num, err := r.Num.Subst(vals)
	if err != nil {
		return Rational{}, err
	}
	den, err := r.den().Subst(vals)
	if err != nil {
		return Rational{}, err
	}
	return num.Div(den)
}

// Subst replaces symbols of p by the given values.
func (p Poly) Subst(vals map[string]Rational) (Rational, error) {
	sum := Zero()
	for _, t := range p.Terms() {
		v := Number(t.Coef)
		var rest Monomial
		for _, f := range t.Mono {
			x, ok := vals[f.Sym]
			if !ok {
				rest = append(rest, f)
				continue
			}
			xp, err := x.Pow(f.Exp)
			if err != nil {
				return Rational{}, err
			}
			v = v.Mul(xp)
		}
		if len(rest) > 0 {
			var m Poly
			m.addTerm(Term{Mono: rest, Coef: big.NewRat(1, 1)})
			v = v.Mul(FromPoly(m))
		}
		sum = sum.Add(v)
	}
	return sum, nil
}

// Eval evaluates r with complex values for all its symbols.
func (r Rational) Eval(vals map[string]complex128) (complex128, error) {
	n, err := r.Num.Eval(vals)
	if err != nil {
		return 0, err
	}
	d, err := r.den().Eval(vals)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, ErrDivByZero
	}
	return n / d, nil
}

// Resolve substitutes definitions recursively until no defined symbol is
// left. Symbols without a definition stay symbolic.
func Resolve(r Rational, defs map[string]Rational) (Rational, error) {
	res := &resolver{defs: defs, done: make(map[string]Rational), active: make(map[string]bool)}
	return res.resolve(r)
}

type resolver struct {
	defs   map[string]Rational
	done   map[string]Rational
	active map[string]bool
}

func (res *resolver) resolve(r Rational) (Rational, error) {
	vals := make(map[string]Rational)
	for _, sym := range r.Symbols() {
		if _, ok := res.defs[sym]; !ok {
			continue
		}
		v, err := res.symbol(sym)
		if err != nil {
			return Rational{}, err
		}
		vals[sym] = v
	}
	if len(vals) == 0 {
		return r, nil
	}
	return r.Subst(vals)
}

func (res *resolver) symbol(sym string) (Rational, error) {
	if v, ok := res.done[sym]; ok {
		return v, nil
	}
	if res.active[sym] {
		return Rational{}, fmt.Errorf("%w: %s", ErrCycle, sym)
	}
	res.active[sym] = true
	v, err := res.resolve(res.defs[sym])
	delete(res.active, sym)
	if err != nil {
		return Rational{}, err
	}
	res.done[sym] = v
	return v, nil
}
