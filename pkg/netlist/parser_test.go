package netlist

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/symspice/pkg/device"
	"github.com/edp1096/symspice/pkg/expr"
)

func parseFile(t *testing.T, path string) *NetlistData {
	t.Helper()
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	data, err := Parse(string(src))
	require.NoError(t, err)
	return data
}

func TestParse_File(t *testing.T) {
	data := parseFile(t, "testdata/controlled.cir")

	assert.Equal(t, "Controlled sources", data.Title)

	names := make([]string, len(data.Elements))
	for i, e := range data.Elements {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"V1", "R1", "C1", "E1", "H1", "G1", "R2", "R3", "R4"}, names)

	wantNodes := map[string]int{"in": 0, "0": 1, "out": 2, "x": 3, "y": 4, "z": 5}
	if diff := cmp.Diff(wantNodes, data.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	params := make([]string, len(data.ParDefs))
	for i, p := range data.ParDefs {
		params[i] = p.Name + "=" + p.Text
	}
	assert.Equal(t, []string{"R=1k", "C={1/(2*pi*R*f_c)}", "f_c=10k"}, params)
}

func TestParse_Elements(t *testing.T) {
	data := parseFile(t, "testdata/controlled.cir")
	byName := make(map[string]Element)
	for _, e := range data.Elements {
		byName[e.Name] = e
	}

	v1 := byName["V1"]
	assert.Equal(t, "V", v1.Type)
	assert.Equal(t, "1", v1.ValueText)
	assert.True(t, v1.Value.Equal(expr.One()))

	c1 := byName["C1"]
	assert.Equal(t, []string{"out", "0"}, c1.Nodes)
	assert.True(t, c1.Value.Equal(expr.Symbol("C")), "continuation line carries the value")

	h1 := byName["H1"]
	assert.Equal(t, []string{"V1"}, h1.Refs)
	assert.True(t, h1.Value.Equal(expr.Symbol("r_m")))

	g1 := byName["G1"]
	assert.Equal(t, []string{"z", "0", "x", "0"}, g1.Nodes)
	assert.True(t, g1.Value.Equal(expr.Symbol("g_m")))
	assert.Empty(t, g1.Params)

	r2 := byName["R2"]
	f, err := r2.Value.Float()
	require.NoError(t, err)
	assert.Equal(t, 1e6, f)
}

func TestParse_SourceWithoutValue(t *testing.T) {
	data, err := Parse("title\nV1 in 0\nI1 0 in DC\n")
	require.NoError(t, err)
	require.Len(t, data.Elements, 2)
	assert.True(t, data.Elements[0].Value.Equal(expr.Symbol("V1")))
	assert.True(t, data.Elements[1].Value.Equal(expr.Symbol("I1")))
	assert.Empty(t, data.Elements[0].ValueText)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"duplicate name":   "t\nR1 a b 1\nr1 b 0 2\n",
		"unsupported dot":  "t\n.tran 1m\n",
		"unknown element":  "t\nQ1 c b e npn\n",
		"missing value":    "t\nR1 a b\n",
		"missing nodes":    "t\nE1 a b c\n",
		"bad param name":   "t\n.param 1x=3\n",
		"missing control":  "t\nF1 a b\n",
		"bad expression":   "t\nR1 a b {1+}\n",
		"param no value":   "t\n.param a=\n",
		"unbalanced value": "t\n.param a={1+(2}\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
		})
	}
}

func TestCreateDevice(t *testing.T) {
	data := parseFile(t, "testdata/controlled.cir")
	for _, e := range data.Elements {
		dev, err := CreateDevice(e)
		require.NoError(t, err, e.Name)
		assert.Equal(t, e.Type, dev.GetType())
		assert.Equal(t, e.Name, dev.GetName())
	}

	h, err := CreateDevice(data.Elements[4])
	require.NoError(t, err)
	ctl, ok := h.(device.Controlled)
	require.True(t, ok)
	assert.Equal(t, "V1", ctl.ControlName())

	_, err = CreateDevice(Element{Type: "R", Name: "R0", Nodes: []string{"a", "0"}, Value: expr.Zero()})
	require.ErrorContains(t, err, "zero resistance")

	_, err = CreateDevice(Element{Type: "Q", Name: "Q1"})
	require.Error(t, err)
}
