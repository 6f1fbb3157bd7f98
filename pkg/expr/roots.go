package expr

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

const (
	rootMaxIter = 2000
	rootTol     = 1e-13
)

// Roots returns the roots of p seen as a polynomial in sym. All other
// coefficients must be numeric. Roots are sorted by real, then imaginary part.
func Roots(p Poly, sym string) ([]complex128, error) {
	coeffs := p.Coeffs(sym)
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("%w: zero polynomial has no finite roots", ErrNotNumeric)
	}
	c := make([]complex128, len(coeffs))
	for i, k := range coeffs {
		r, ok := k.IsConst()
		if !ok {
			return nil, fmt.Errorf("%w: coefficient of %s^%d is %s", ErrNotNumeric, sym, i, k)
		}
		f, _ := r.Float64()
		c[i] = complex(f, 0)
	}

	var roots []complex128
	for len(c) > 1 && c[0] == 0 {
		roots = append(roots, 0)
		c = c[1:]
	}
	roots = append(roots, durandKerner(c)...)

	sort.Slice(roots, func(i, j int) bool {
		if real(roots[i]) != real(roots[j]) {
			return real(roots[i]) < real(roots[j])
		}
		return imag(roots[i]) < imag(roots[j])
	})
	return roots, nil
}

// durandKerner finds all roots of the polynomial with coefficients c,
// lowest power first.
func durandKerner(c []complex128) []complex128 {
	n := len(c) - 1
	if n < 1 {
		return nil
	}
	a := make([]complex128, n+1)
	for i := range c {
		a[i] = c[i] / c[n]
	}
	if n == 1 {
		return snapReal([]complex128{-a[0]})
	}

	// Cauchy bound on the root magnitudes.
	bound := 0.0
	for i := 0; i < n; i++ {
		bound = math.Max(bound, cmplx.Abs(a[i]))
	}
	bound += 1

	z := make([]complex128, n)
	for k := range z {
		z[k] = cmplx.Rect(bound, 2*math.Pi*float64(k)/float64(n)+0.4)
	}

	for range rootMaxIter {
		moved := 0.0
		for i := range z {
			den := complex(1, 0)
			for j := range z {
				if i != j {
					den *= z[i] - z[j]
				}
			}
			if den == 0 {
				den = complex(rootTol, rootTol)
			}
			delta := horner(a, z[i]) / den
			z[i] -= delta
			moved = math.Max(moved, cmplx.Abs(delta)/(1+cmplx.Abs(z[i])))
		}
		if moved < rootTol {
			break
		}
	}

	return snapReal(z)
}

// snapReal clears negligible imaginary parts, including a negative zero.
func snapReal(z []complex128) []complex128 {
	for i, r := range z {
		if math.Abs(imag(r)) <= 1e-9*math.Max(1, cmplx.Abs(r)) {
			z[i] = complex(real(r), 0)
		}
	}
	return z
}

func horner(a []complex128, x complex128) complex128 {
	v := complex(0, 0)
	for i := len(a) - 1; i >= 0; i-- {
		v = v*x + a[i]
	}
	return v
}
