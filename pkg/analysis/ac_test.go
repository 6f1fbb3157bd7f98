package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/symspice/pkg/circuit"
	"github.com/edp1096/symspice/pkg/expr"
	"github.com/edp1096/symspice/pkg/instruction"
	"github.com/edp1096/symspice/pkg/netlist"
)

const rcNetlist = `"RC network"
V1 in 0
R1 in out R
C1 out 0 C
.end
`

func rcInstruction(t *testing.T, gain bool) *instruction.Instruction {
	t.Helper()
	data, err := netlist.Parse(rcNetlist)
	require.NoError(t, err)
	c, err := circuit.New(data)
	require.NoError(t, err)

	in := instruction.New()
	in.SetCircuit(c)
	if gain {
		require.NoError(t, in.SetGainType("gain"))
		require.NoError(t, in.SetSource("V1"))
	}
	require.NoError(t, in.SetDetector("V_out"))
	require.NoError(t, in.SetDataType("laplace"))
	return in
}

func TestAC_RCLowPass(t *testing.T) {
	in := rcInstruction(t, true)
	require.NoError(t, in.DefPars(map[string]string{"R": "1k", "C": "100n"}))

	fc := 1 / (2 * math.Pi * 1e3 * 100e-9)
	ac := NewAC(fc, 100*fc, 3, "dec")
	require.NoError(t, ac.Setup(in))
	assert.Equal(t, "(V_out)/V1", ac.Name())
	require.NoError(t, ac.Execute(context.Background()))

	freqs := ac.Frequencies()
	require.Len(t, freqs, 3)
	assert.InDelta(t, 10*fc, freqs[1], 1e-6)

	res := ac.GetResults()
	assert.Equal(t, freqs, res["FREQ"])

	db := res["(V_out)/V1_DB"]
	phase := res["(V_out)/V1_PHASE"]
	mag := res["(V_out)/V1_MAG"]
	require.Len(t, db, 3)
	assert.InDelta(t, -10*math.Log10(2), db[0], 1e-9)
	assert.InDelta(t, -45, phase[0], 1e-9)
	assert.InDelta(t, 1/math.Sqrt(101), mag[1], 1e-9)
	assert.InDelta(t, -math.Atan(100)*180/math.Pi, phase[2], 1e-9)
}

func TestAC_UnitSource(t *testing.T) {
	// In vi mode the unvalued source is swept with unit amplitude.
	in := rcInstruction(t, false)
	require.NoError(t, in.DefPars(map[string]string{"R": "1", "C": "1"}))

	ac := NewAC(1/(2*math.Pi), 1, 2, "LIN")
	require.NoError(t, ac.Setup(in))
	assert.Equal(t, "V_out", ac.Name())
	require.NoError(t, ac.Execute(context.Background()))

	mag := ac.GetResults()["V_out_MAG"]
	require.Len(t, mag, 2)
	assert.InDelta(t, 1/math.Sqrt2, mag[0], 1e-9)
}

func TestAC_Errors(t *testing.T) {
	in := rcInstruction(t, true)

	err := NewAC(10, 1e6, 10, "DEC").Setup(in)
	require.ErrorIs(t, err, expr.ErrNotNumeric)

	require.Error(t, NewAC(10, 1e6, 1, "DEC").Setup(in))
	require.Error(t, NewAC(0, 1e6, 10, "DEC").Setup(in))
	require.Error(t, NewAC(1e6, 10, 10, "DEC").Setup(in))
	require.Error(t, NewAC(10, 1e6, 10, "POW").Setup(in))

	require.Error(t, NewAC(10, 1e6, 10, "DEC").Execute(context.Background()))

	require.NoError(t, in.DefPars(map[string]string{"R": "1k", "C": "100n"}))
	ac := NewAC(10, 1e6, 10, "OCT")
	require.NoError(t, ac.Setup(in))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ac.Execute(ctx), context.Canceled)
}
