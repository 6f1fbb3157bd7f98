package analysis

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/edp1096/symspice/pkg/instruction"
)

type Analysis interface {
	Setup(in *instruction.Instruction) error
	Execute(ctx context.Context) error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Equations *instruction.Equations
	results   map[string][]float64 // key: variable name, value: result by frequency
}

func NewBaseAnalysis() *BaseAnalysis {
	return &BaseAnalysis{results: make(map[string][]float64)}
}

func (a *BaseAnalysis) StoreACResult(freq float64, solution map[string]complex128) {
	// Frequency
	a.results["FREQ"] = append(a.results["FREQ"], freq)

	for name, value := range solution {
		magnitude := cmplx.Abs(value)
		a.results[name+"_MAG"] = append(a.results[name+"_MAG"], magnitude)
		a.results[name+"_DB"] = append(a.results[name+"_DB"], 20*math.Log10(magnitude))

		// Phase - degree
		phase := cmplx.Phase(value) * 180.0 / math.Pi
		a.results[name+"_PHASE"] = append(a.results[name+"_PHASE"], phase)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}
