package expr

import (
	"fmt"
	"math/big"
	"math/cmplx"
	"sort"
)

// Term is a rational coefficient times a monomial.
type Term struct {
	Mono Monomial
	Coef *big.Rat
}

// Poly is a multivariate polynomial with exact rational coefficients.
// The zero value is the zero polynomial. Polys are immutable: every
// operation returns a new value.
type Poly struct {
	terms map[string]Term
}

// Int returns the constant polynomial n.
func Int(n int64) Poly {
	return Const(new(big.Rat).SetInt64(n))
}

// Const returns the constant polynomial r.
func Const(r *big.Rat) Poly {
	var p Poly
	p.addTerm(Term{Coef: r})
	return p
}

// Var returns the polynomial consisting of the single symbol name.
func Var(name string) Poly {
	var p Poly
	p.addTerm(Term{Mono: Monomial{{Sym: name, Exp: 1}}, Coef: big.NewRat(1, 1)})
	return p
}

// addTerm accumulates t into p in place. Only used while building a new Poly.
func (p *Poly) addTerm(t Term) {
	if t.Coef.Sign() == 0 {
		return
	}
	if p.terms == nil {
		p.terms = make(map[string]Term)
	}
	k := t.Mono.key()
	if old, ok := p.terms[k]; ok {
		c := new(big.Rat).Add(old.Coef, t.Coef)
		if c.Sign() == 0 {
			delete(p.terms, k)
			return
		}
		p.terms[k] = Term{Mono: old.Mono, Coef: c}
		return
	}
	p.terms[k] = Term{Mono: t.Mono, Coef: new(big.Rat).Set(t.Coef)}
}

// IsZero reports whether p is the zero polynomial.
func (p Poly) IsZero() bool { return len(p.terms) == 0 }

// Len returns the number of terms.
func (p Poly) Len() int { return len(p.terms) }

// Terms returns the terms ordered for display: descending total degree,
// then by monomial key.
func (p Poly) Terms() []Term {
	out := make([]Term, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Mono.Degree(), out[j].Mono.Degree()
		if di != dj {
			return di > dj
		}
		return out[i].Mono.key() < out[j].Mono.key()
	})
	return out
}

// leading returns the leading term in lexicographic monomial order.
func (p Poly) leading() Term {
	var lt Term
	first := true
	for _, t := range p.terms {
		if first || compareMono(t.Mono, lt.Mono) > 0 {
			lt = t
			first = false
		}
	}
	return lt
}

// IsConst returns the constant value of p when p has no symbols.
func (p Poly) IsConst() (*big.Rat, bool) {
	switch len(p.terms) {
	case 0:
		return new(big.Rat), true
	case 1:
		if t, ok := p.terms[""]; ok {
			return new(big.Rat).Set(t.Coef), true
		}
	}
	return nil, false
}

// IsOne reports whether p == 1.
func (p Poly) IsOne() bool {
	c, ok := p.IsConst()
	return ok && c.Cmp(big.NewRat(1, 1)) == 0
}

// Single returns the only term of a one-term polynomial.
func (p Poly) Single() (Term, bool) {
	if len(p.terms) != 1 {
		return Term{}, false
	}
	for _, t := range p.terms {
		return t, true
	}
	return Term{}, false
}

func (p Poly) combine(q Poly, sign int) Poly {
	var out Poly
	for _, t := range p.terms {
		out.addTerm(t)
	}
	for _, t := range q.terms {
		if sign < 0 {
			out.addTerm(Term{Mono: t.Mono, Coef: new(big.Rat).Neg(t.Coef)})
		} else {
			out.addTerm(t)
		}
	}
	return out
}

// Add returns p+q.
func (p Poly) Add(q Poly) Poly { return p.combine(q, 1) }

// Sub returns p-q.
func (p Poly) Sub(q Poly) Poly { return p.combine(q, -1) }

// Neg returns -p.
func (p Poly) Neg() Poly { return Poly{}.Sub(p) }

// Mul returns p*q.
func (p Poly) Mul(q Poly) Poly {
	var out Poly
	for _, a := range p.terms {
		for _, b := range q.terms {
			out.addTerm(Term{Mono: a.Mono.mul(b.Mono), Coef: new(big.Rat).Mul(a.Coef, b.Coef)})
		}
	}
	return out
}

// Scale returns r*p.
func (p Poly) Scale(r *big.Rat) Poly {
	var out Poly
	for _, t := range p.terms {
		out.addTerm(Term{Mono: t.Mono, Coef: new(big.Rat).Mul(t.Coef, r)})
	}
	return out
}

func (p Poly) mulTerm(t Term) Poly {
	var out Poly
	for _, a := range p.terms {
		out.addTerm(Term{Mono: a.Mono.mul(t.Mono), Coef: new(big.Rat).Mul(a.Coef, t.Coef)})
	}
	return out
}

// Equal reports whether p and q are identical polynomials.
func (p Poly) Equal(q Poly) bool {
	if len(p.terms) != len(q.terms) {
		return false
	}
	for k, t := range p.terms {
		u, ok := q.terms[k]
		if !ok || t.Coef.Cmp(u.Coef) != 0 {
			return false
		}
	}
	return true
}

// DivExact returns p/d when d divides p exactly.
func (p Poly) DivExact(d Poly) (Poly, bool) {
	if d.IsZero() {
		return Poly{}, false
	}
	ld := d.leading()
	var q Poly
	r := p
	for !r.IsZero() {
		lr := r.leading()
		if !ld.Mono.divides(lr.Mono) {
			return Poly{}, false
		}
		t := Term{Mono: ld.Mono.quo(lr.Mono), Coef: new(big.Rat).Quo(lr.Coef, ld.Coef)}
		q.addTerm(t)
		r = r.Sub(d.mulTerm(t))
	}
	return q, true
}

// Content returns the numeric content (gcd of numerators over lcm of
// denominators, always positive) and the monomial gcd of all terms.
func (p Poly) Content() (*big.Rat, Monomial) {
	if p.IsZero() {
		return big.NewRat(1, 1), nil
	}
	num := new(big.Int)
	den := big.NewInt(1)
	var mono Monomial
	first := true
	for _, t := range p.terms {
		n := new(big.Int).Abs(t.Coef.Num())
		num.GCD(nil, nil, num, n)
		d := t.Coef.Denom()
		g := new(big.Int).GCD(nil, nil, den, d)
		den.Mul(den, new(big.Int).Quo(d, g))
		if first {
			mono = t.Mono
			first = false
		} else {
			mono = gcdMono(mono, t.Mono)
		}
	}
	return new(big.Rat).SetFrac(num, den), mono
}

// divTerm divides every term by c*m; m must divide all monomials.
func (p Poly) divTerm(c *big.Rat, m Monomial) Poly {
	var out Poly
	for _, t := range p.terms {
		out.addTerm(Term{Mono: m.quo(t.Mono), Coef: new(big.Rat).Quo(t.Coef, c)})
	}
	return out
}

// Degree returns the highest power of sym in p; -1 for the zero polynomial.
func (p Poly) Degree(sym string) int {
	if p.IsZero() {
		return -1
	}
	d := 0
	for _, t := range p.terms {
		d = max(d, t.Mono.Exp(sym))
	}
	return d
}

// Coeffs returns the coefficients of p as a polynomial in sym, lowest
// power first.
func (p Poly) Coeffs(sym string) []Poly {
	deg := p.Degree(sym)
	if deg < 0 {
		return nil
	}
	out := make([]Poly, deg+1)
	for _, t := range p.terms {
		k := t.Mono.Exp(sym)
		out[k].addTerm(Term{Mono: t.Mono.without(sym), Coef: t.Coef})
	}
	return out
}

// Symbols returns the sorted set of symbols appearing in p.
func (p Poly) Symbols() []string {
	seen := make(map[string]struct{})
	for _, t := range p.terms {
		for _, f := range t.Mono {
			seen[f.Sym] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Eval evaluates p with complex values for all of its symbols.
func (p Poly) Eval(vals map[string]complex128) (complex128, error) {
	var sum complex128
	for _, t := range p.terms {
		c, _ := t.Coef.Float64()
		v := complex(c, 0)
		for _, f := range t.Mono {
			x, ok := vals[f.Sym]
			if !ok {
				return 0, fmt.Errorf("%w: %s", ErrUndefined, f.Sym)
			}
			v *= cmplx.Pow(x, complex(float64(f.Exp), 0))
		}
		sum += v
	}
	return sum, nil
}

// LCM returns a common multiple of a and b. It is the least one when
// either divides the other or both are monomials; otherwise the product.
func LCM(a, b Poly) Poly {
	if _, ok := a.DivExact(b); ok {
		return a
	}
	if _, ok := b.DivExact(a); ok {
		return b
	}
	ta, oka := a.Single()
	tb, okb := b.Single()
	if oka && okb {
		c := lcmRat(ta.Coef, tb.Coef)
		var out Poly
		out.addTerm(Term{Mono: lcmMono(ta.Mono, tb.Mono), Coef: c})
		return out
	}
	return a.Mul(b)
}

func lcmRat(a, b *big.Rat) *big.Rat {
	an, bn := new(big.Int).Abs(a.Num()), new(big.Int).Abs(b.Num())
	g := new(big.Int).GCD(nil, nil, an, bn)
	if g.Sign() == 0 {
		return big.NewRat(1, 1)
	}
	n := new(big.Int).Mul(an, bn)
	n.Quo(n, g)
	d := new(big.Int).GCD(nil, nil, a.Denom(), b.Denom())
	return new(big.Rat).SetFrac(n, d)
}
