package builder

import (
	"github.com/vk/patterngrid/internal/config"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/hclexpr"
)

// declareBlocks declares the variable and parameter blocks of model and
// returns the probe context expressions are test-evaluated against: every
// variable at its lowest value and every parameter at its default. Blocks the
// factorgraph.Builder rejects are left out; Build reports why.
func declareBlocks(model *config.Model, fb *factorgraph.Builder, scope *hclexpr.Scope) *factorgraph.Context {
	probe := &factorgraph.Context{}

	for _, v := range model.Variables {
		block := fb.AddVariables(v.Name, v.Count, v.Min, v.Max)
		if block.Size != v.Count || block.Offset != len(probe.Variation) {
			continue
		}
		for i := 0; i < v.Count; i++ {
			probe.Variation = append(probe.Variation, v.Min)
		}
		scope.DeclareVariables(v.Name, block)
	}

	for _, p := range model.Parameters {
		switch p.Type {
		case factorgraph.Int:
			block := fb.AddIntParameters(p.Name, p.Count, p.IntDefaults)
			if block.Size != p.Count || block.Offset != len(probe.IntParams) {
				continue
			}
			probe.IntParams = append(probe.IntParams, orZeros(p.IntDefaults, p.Count)...)
			scope.DeclareParameters(p.Name, factorgraph.Int, block)
		case factorgraph.Float:
			block := fb.AddFloatParameters(p.Name, p.Count, p.FloatDefaults)
			if block.Size != p.Count || block.Offset != len(probe.FloatParams) {
				continue
			}
			probe.FloatParams = append(probe.FloatParams, orZeros(p.FloatDefaults, p.Count)...)
			scope.DeclareParameters(p.Name, factorgraph.Float, block)
		}
	}
	return probe
}

func orZeros[T int32 | float32](values []T, n int) []T {
	if values == nil {
		return make([]T, n)
	}
	return values
}
