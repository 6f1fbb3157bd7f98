package expr

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoots_Real(t *testing.T) {
	roots, err := Roots(MustParse("s^2 + 3*s + 2").Num, "s")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.InDelta(t, -2, real(roots[0]), 1e-9)
	assert.InDelta(t, -1, real(roots[1]), 1e-9)
	assert.Zero(t, imag(roots[0]))
}

func TestRoots_FirstOrder(t *testing.T) {
	roots, err := Roots(MustParse("s + 10000").Num, "s")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, -10000.0, real(roots[0]))
	assert.False(t, math.Signbit(imag(roots[0])), "imaginary part must be +0, got %v", roots[0])
}

func TestRoots_ZeroAtOrigin(t *testing.T) {
	roots, err := Roots(MustParse("s^2 + s").Num, "s")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.InDelta(t, -1, real(roots[0]), 1e-9)
	assert.Equal(t, complex(0, 0), roots[1])
}

func TestRoots_ComplexPair(t *testing.T) {
	p := MustParse("s^2 + 2*s + 5").Num
	roots, err := Roots(p, "s")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	for _, r := range roots {
		v, err := p.Eval(map[string]complex128{"s": r})
		require.NoError(t, err)
		assert.Less(t, cmplx.Abs(v), 1e-9)
		assert.InDelta(t, -1, real(r), 1e-9)
		assert.InDelta(t, 2, cmplx.Abs(complex(0, imag(r))), 1e-9)
	}
}

func TestRoots_Errors(t *testing.T) {
	_, err := Roots(MustParse("R*s + 1").Num, "s")
	require.ErrorIs(t, err, ErrNotNumeric)

	_, err = Roots(Poly{}, "s")
	require.ErrorIs(t, err, ErrNotNumeric)

	roots, err := Roots(Int(3), "s")
	require.NoError(t, err)
	assert.Empty(t, roots)
}
