package builder

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/patterngrid/internal/config"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/hclexpr"
)

func compileOutputs(model *config.Model, fb *factorgraph.Builder, scope *hclexpr.Scope) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, o := range model.Outputs {
		out, outDiags := hclexpr.NewOutput(o.Name, o.Type, o.Value, scope)
		diags = append(diags, outDiags...)
		if outDiags.HasErrors() {
			continue
		}
		fb.AddOutput(o.Name, out)
	}
	return diags
}

func compileFactors(model *config.Model, fb *factorgraph.Builder, scope *hclexpr.Scope) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, f := range model.Factors {
		factor, factorDiags := hclexpr.NewFactor(f.Name, f.Expr, f.Weight, f.Hard, scope)
		diags = append(diags, factorDiags...)
		if factorDiags.HasErrors() {
			continue
		}
		fb.AddFactor(factor)
	}
	return diags
}
