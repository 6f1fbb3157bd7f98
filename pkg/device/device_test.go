package device

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/symspice/pkg/expr"
)

// recorder collects stamps as text keyed by "row,col" and "rhs row".
type recorder struct {
	m map[string]expr.Rational
}

func newRecorder() *recorder { return &recorder{m: make(map[string]expr.Rational)} }

func (r *recorder) add(key string, v expr.Rational) {
	if old, ok := r.m[key]; ok {
		v = old.Add(v)
	}
	r.m[key] = v
}

func (r *recorder) AddElement(i, j int, v expr.Rational) { r.add(fmt.Sprintf("%d,%d", i, j), v) }

func (r *recorder) AddRHS(i int, v expr.Rational) { r.add(fmt.Sprintf("rhs %d", i), v) }

func (r *recorder) text() map[string]string {
	out := make(map[string]string, len(r.m))
	for k, v := range r.m {
		out[k] = v.String()
	}
	return out
}

func symbolic() *CircuitStatus {
	return &CircuitStatus{Mode: AllSources, Laplace: expr.Symbol("s")}
}

func TestStamps(t *testing.T) {
	withNodes := func(d Device, nodes ...int) Device {
		d.SetNodes(nodes)
		return d
	}
	withBranch := func(d BranchDevice, idx int, nodes ...int) Device {
		d.SetNodes(nodes)
		d.SetBranchIndex(idx)
		return d
	}

	vcvs := NewVCVS("E1", []string{"o", "0", "a", "b"}, expr.Symbol("A"))
	cccs := NewCCCS("F1", []string{"a", "b"}, "V1", expr.Symbol("beta"))
	cccs.SetControlBranch(4)
	ccvs := NewCCVS("H1", []string{"a", "0"}, "V1", expr.Symbol("r"))
	ccvs.SetControlBranch(4)

	tests := []struct {
		name string
		dev  Device
		want map[string]string
	}{
		{
			name: "resistor",
			dev:  withNodes(NewResistor("R1", []string{"a", "b"}, expr.Symbol("R")), 1, 2),
			want: map[string]string{"1,1": "1/R", "1,2": "-1/R", "2,1": "-1/R", "2,2": "1/R"},
		},
		{
			name: "resistor to ground",
			dev:  withNodes(NewResistor("R1", []string{"a", "0"}, expr.Symbol("R")), 1, 0),
			want: map[string]string{"1,1": "1/R"},
		},
		{
			name: "capacitor",
			dev:  withNodes(NewCapacitor("C1", []string{"0", "b"}, expr.Symbol("C")), 0, 2),
			want: map[string]string{"2,2": "C*s"},
		},
		{
			name: "inductor",
			dev:  withBranch(NewInductor("L1", []string{"a", "0"}, expr.Symbol("L")), 3, 1, 0),
			want: map[string]string{"1,3": "1", "3,1": "1", "3,3": "-L*s"},
		},
		{
			name: "voltage source",
			dev:  withBranch(NewVoltageSource("V1", []string{"a", "b"}, expr.Symbol("V1")), 3, 1, 2),
			want: map[string]string{"1,3": "1", "3,1": "1", "2,3": "-1", "3,2": "-1", "rhs 3": "V1"},
		},
		{
			name: "current source",
			dev:  withNodes(NewCurrentSource("I1", []string{"a", "b"}, expr.Symbol("I")), 1, 2),
			want: map[string]string{"rhs 1": "-I", "rhs 2": "I"},
		},
		{
			name: "vcvs",
			dev:  withBranch(vcvs, 5, 1, 0, 2, 3),
			want: map[string]string{"1,5": "1", "5,1": "1", "5,2": "-A", "5,3": "A"},
		},
		{
			name: "vccs",
			dev:  withNodes(NewVCCS("G1", []string{"a", "0", "b", "0"}, expr.Symbol("g_m")), 1, 0, 2, 0),
			want: map[string]string{"1,2": "g_m"},
		},
		{
			name: "cccs",
			dev:  withNodes(cccs, 1, 2),
			want: map[string]string{"1,4": "beta", "2,4": "-beta"},
		},
		{
			name: "ccvs",
			dev:  withBranch(ccvs, 5, 1, 0),
			want: map[string]string{"1,5": "1", "5,1": "1", "5,4": "-r"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := newRecorder()
			require.NoError(t, tc.dev.Stamp(rec, symbolic()))
			if diff := cmp.Diff(tc.want, rec.text()); diff != "" {
				t.Errorf("stamp mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStamp_SingleSource(t *testing.T) {
	v := NewVoltageSource("V1", []string{"a", "0"}, expr.Symbol("V1"))
	v.SetNodes([]int{1, 0})
	v.SetBranchIndex(2)
	i := NewCurrentSource("I1", []string{"a", "0"}, expr.Symbol("I1"))
	i.SetNodes([]int{1, 0})

	status := &CircuitStatus{Mode: SingleSource, Source: "I1", Laplace: expr.Symbol("s")}
	rec := newRecorder()
	require.NoError(t, v.Stamp(rec, status))
	require.NoError(t, i.Stamp(rec, status))

	got := rec.text()
	require.NotContains(t, got, "rhs 2")
	require.Equal(t, "-I1", got["rhs 1"])
}

func TestStamp_ResolvedValues(t *testing.T) {
	r := NewResistor("R1", []string{"a", "0"}, expr.Symbol("R"))
	r.SetNodes([]int{1, 0})
	status := symbolic()
	status.Values = map[string]expr.Rational{"R1": expr.Integer(4)}

	rec := newRecorder()
	require.NoError(t, r.Stamp(rec, status))
	require.Equal(t, "1/4", rec.text()["1,1"])
}

func TestStamp_Errors(t *testing.T) {
	r := NewResistor("R1", []string{"a", "b"}, expr.Zero())
	r.SetNodes([]int{1, 2})
	require.ErrorContains(t, r.Stamp(newRecorder(), symbolic()), "zero resistance")

	short := NewResistor("R2", []string{"a"}, expr.One())
	require.ErrorContains(t, short.Stamp(newRecorder(), symbolic()), "requires exactly 2 nodes")

	f := NewCCCS("F1", []string{"a", "0"}, "R1", expr.One())
	f.SetNodes([]int{1, 0})
	require.ErrorContains(t, f.Stamp(newRecorder(), symbolic()), "no branch current")
}
