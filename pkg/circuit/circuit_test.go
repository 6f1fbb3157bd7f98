package circuit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/symspice/pkg/device"
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/netlist"
)

const rcNetlist = `"RC network"
V1 in 0
R1 in out R
C1 out 0 C
.end
`

func newCircuit(t *testing.T, src string) *Circuit {
	t.Helper()
	data, err := netlist.Parse(src)
	require.NoError(t, err)
	c, err := New(data)
	require.NoError(t, err)
	return c
}

func TestNew_Indexing(t *testing.T) {
	c := newCircuit(t, rcNetlist)

	assert.Equal(t, "RC network", c.Title)
	assert.Equal(t, []string{"in", "out"}, c.Nodes())
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, []string{"V_in", "V_out", "I_V1"}, c.DepVars())
	assert.Equal(t, []string{"V1"}, c.IndepVars())
	assert.Equal(t, map[string]int{"V1": 3}, c.GetBranchMap())

	idx, ok := c.VarIndex("V_out")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	_, ok = c.VarIndex("V_nowhere")
	assert.False(t, ok)

	assert.True(t, c.IsSource("V1"))
	assert.False(t, c.IsSource("R1"))

	dev, ok := c.GetDevice("C1")
	require.True(t, ok)
	assert.Equal(t, []int{2, 0}, dev.GetNodes())
}

func TestNew_BranchOrder(t *testing.T) {
	c := newCircuit(t, `branches
V1 in 0 1
L1 in a L
E1 b 0 a 0 2
R1 b GND 1
R2 a gnd 1
H1 c 0 L1 r
R3 c 0 1
`)
	assert.Equal(t, []string{"a", "b", "c", "in"}, c.Nodes())
	want := map[string]int{"V1": 5, "L1": 6, "E1": 7, "H1": 8}
	if diff := cmp.Diff(want, c.GetBranchMap()); diff != "" {
		t.Errorf("branch map mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"V_a", "V_b", "V_c", "V_in", "I_V1", "I_L1", "I_E1", "I_H1"}, c.DepVars())
}

func TestNew_MissingControl(t *testing.T) {
	data, err := netlist.Parse("t\nR1 a 0 1\nF1 a 0 R1 2\n")
	require.NoError(t, err)
	_, err = New(data)
	require.ErrorContains(t, err, "has no branch current")
}

func TestStamp(t *testing.T) {
	c := newCircuit(t, rcNetlist)
	mna, err := c.Stamp(&device.CircuitStatus{})
	require.NoError(t, err)

	m := mna.Matrix()
	want := [][]string{
		{"1/R", "-1/R", "1"},
		{"-1/R", "(C*R*s + 1)/R", "0"},
		{"1", "0", "0"},
	}
	for i := range want {
		for j := range want[i] {
			assert.True(t, m[i][j].Equal(expr.MustParse(want[i][j])), "M[%d][%d] = %s", i, j, m[i][j])
		}
	}
	assert.Equal(t, []string{"0", "0", "V1"}, mna.RHS().Strings())
}

func TestParams(t *testing.T) {
	c := newCircuit(t, rcNetlist)
	assert.Equal(t, []string{"C", "R"}, c.Params())

	c.DefPar("R", expr.MustParse("1k"))
	c.DefPar("tau", expr.MustParse("R*C"))
	assert.Equal(t, []string{"C"}, c.Params())

	tau, err := c.GetParValue("tau")
	require.NoError(t, err)
	assert.True(t, tau.Equal(expr.MustParse("1000*C")), "got %s", tau)

	values, err := c.ResolvedValues()
	require.NoError(t, err)
	assert.True(t, values["R1"].Equal(expr.Integer(1000)))
	assert.True(t, values["C1"].Equal(expr.Symbol("C")))

	defs := c.ParDefs()
	require.Len(t, defs, 2)
	assert.Equal(t, "R", defs[0].Name)
	assert.Equal(t, "tau", defs[1].Name)

	require.NoError(t, c.DelPar("R"))
	require.ErrorIs(t, c.DelPar("R"), ErrUnknownParam)
	_, err = c.GetParValue("R")
	require.ErrorIs(t, err, ErrUnknownParam)
	assert.Equal(t, []string{"C", "R"}, c.Params())
}

func TestParams_FromNetlist(t *testing.T) {
	c := newCircuit(t, "t\n.param R=2*R_0 R_0=500\nV1 in 0\nR1 in 0 R\n")
	v, err := c.GetParValue("R")
	require.NoError(t, err)
	assert.True(t, v.Equal(expr.Integer(1000)))
	assert.Empty(t, c.Params())

	c.DefPar("R_0", expr.MustParse("R"))
	_, err = c.ResolvedValues()
	require.ErrorIs(t, err, expr.ErrCycle)
}
