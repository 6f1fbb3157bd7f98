package expr

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var greek = map[string]string{
	"alpha": `\alpha`, "beta": `\beta`, "gamma": `\gamma`, "delta": `\delta`,
	"epsilon": `\epsilon`, "zeta": `\zeta`, "eta": `\eta`, "theta": `\theta`,
	"kappa": `\kappa`, "lambda": `\lambda`, "mu": `\mu`, "nu": `\nu`,
	"xi": `\xi`, "pi": `\pi`, "rho": `\rho`, "sigma": `\sigma`, "tau": `\tau`,
	"phi": `\phi`, "chi": `\chi`, "psi": `\psi`, "omega": `\omega`,
	"Gamma": `\Gamma`, "Delta": `\Delta`, "Theta": `\Theta`, "Lambda": `\Lambda`,
	"Pi": `\Pi`, "Sigma": `\Sigma`, "Phi": `\Phi`, "Psi": `\Psi`, "Omega": `\Omega`,
}

// SymbolLaTeX renders an identifier: "V_out" -> "V_{out}", "tau" -> "\tau",
// "R1" -> "R_{1}".
func SymbolLaTeX(name string) string {
	base, sub, hasSub := strings.Cut(name, "_")
	if !hasSub {
		if letters := strings.TrimRight(base, "0123456789"); letters != "" && letters != base {
			base, sub, hasSub = letters, base[len(letters):], true
		}
	}
	if g, ok := greek[base]; ok {
		base = g
	} else if len(base) > 1 {
		base = `\mathrm{` + base + `}`
	}
	if !hasSub {
		return base
	}
	return base + "_{" + strings.ReplaceAll(sub, "_", `\_`) + "}"
}

// coefText renders a positive coefficient for plain text output.
func coefText(c *big.Rat) string {
	if c.IsInt() {
		return c.Num().String()
	}
	if small(c) {
		return c.RatString()
	}
	f, _ := c.Float64()
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// coefLaTeX renders a positive coefficient for LaTeX output.
func coefLaTeX(c *big.Rat) string {
	if c.IsInt() && len(c.Num().String()) <= 6 {
		return c.Num().String()
	}
	if !c.IsInt() && small(c) {
		return `\frac{` + c.Num().String() + `}{` + c.Denom().String() + `}`
	}
	f, _ := c.Float64()
	s := strconv.FormatFloat(f, 'e', 5, 64)
	mant, exp, _ := strings.Cut(s, "e")
	mant = strings.TrimRight(strings.TrimRight(mant, "0"), ".")
	e, _ := strconv.Atoi(exp)
	if e == 0 {
		return mant
	}
	return mant + ` \cdot 10^{` + strconv.Itoa(e) + `}`
}

func small(c *big.Rat) bool {
	return len(c.Num().String()) <= 4 && len(c.Denom().String()) <= 4
}

func monoText(m Monomial) string {
	parts := make([]string, len(m))
	for i, f := range m {
		parts[i] = f.Sym
		if f.Exp != 1 {
			parts[i] += "^" + strconv.Itoa(f.Exp)
		}
	}
	return strings.Join(parts, "*")
}

func monoLaTeX(m Monomial) string {
	parts := make([]string, len(m))
	for i, f := range m {
		parts[i] = SymbolLaTeX(f.Sym)
		if f.Exp != 1 {
			parts[i] += "^{" + strconv.Itoa(f.Exp) + "}"
		}
	}
	return strings.Join(parts, " ")
}

func (p Poly) render(latex bool) string {
	terms := p.Terms()
	if len(terms) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range terms {
		abs := new(big.Rat).Abs(t.Coef)
		neg := t.Coef.Sign() < 0
		switch {
		case i == 0 && neg:
			sb.WriteString("-")
		case i > 0 && neg:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}

		one := abs.Cmp(big.NewRat(1, 1)) == 0
		var coef, mono string
		if latex {
			coef, mono = coefLaTeX(abs), monoLaTeX(t.Mono)
		} else {
			coef, mono = coefText(abs), monoText(t.Mono)
		}
		switch {
		case len(t.Mono) == 0:
			sb.WriteString(coef)
		case one:
			sb.WriteString(mono)
		case latex:
			sb.WriteString(coef + " " + mono)
		default:
			sb.WriteString(coef + "*" + mono)
		}
	}
	return sb.String()
}

// String renders p as plain text, e.g. "C*R*s + 1".
func (p Poly) String() string { return p.render(false) }

// LaTeX renders p for MathJax.
func (p Poly) LaTeX() string { return p.render(true) }

// String renders r as plain text, e.g. "1/(C*R*s + 1)".
func (r Rational) String() string {
	num := r.Num.String()
	if r.den().IsOne() {
		return num
	}
	if r.Num.Len() > 1 {
		num = "(" + num + ")"
	}
	den := r.den().String()
	if t, ok := r.den().Single(); !ok || len(t.Mono) > 1 || t.Coef.Cmp(big.NewRat(1, 1)) != 0 {
		den = "(" + den + ")"
	}
	return num + "/" + den
}

// LaTeX renders r for MathJax.
func (r Rational) LaTeX() string {
	if r.den().IsOne() {
		return r.Num.LaTeX()
	}
	return `\frac{` + r.Num.LaTeX() + `}{` + r.den().LaTeX() + `}`
}

// Vector is a column vector of expressions.
type Vector []Rational

// Symbols returns a vector of the given symbol names.
func Symbols(names []string) Vector {
	v := make(Vector, len(names))
	for i, n := range names {
		v[i] = Symbol(n)
	}
	return v
}

// LaTeX renders v as a column matrix.
func (v Vector) LaTeX() string {
	rows := make([]string, len(v))
	for i, e := range v {
		rows[i] = e.LaTeX()
	}
	return `\left[\begin{matrix}` + strings.Join(rows, `\\ `) + `\end{matrix}\right]`
}

// Strings renders every entry as plain text.
func (v Vector) Strings() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.String()
	}
	return out
}

// Matrix is a dense matrix of expressions, row major.
type Matrix [][]Rational

// LaTeX renders m as a bracketed matrix.
func (m Matrix) LaTeX() string {
	rows := make([]string, len(m))
	for i, row := range m {
		cells := make([]string, len(row))
		for j, e := range row {
			cells[j] = e.LaTeX()
		}
		rows[i] = strings.Join(cells, " & ")
	}
	return `\left[\begin{matrix}` + strings.Join(rows, `\\ `) + `\end{matrix}\right]`
}

// String renders m one row per line.
func (m Matrix) String() string {
	var sb strings.Builder
	for _, row := range m {
		sb.WriteString(fmt.Sprint(Vector(row).Strings()))
		sb.WriteByte('\n')
	}
	return sb.String()
}
