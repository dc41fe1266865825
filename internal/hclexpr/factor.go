package hclexpr

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// Factor is a factor graph factor computed by an HCL expression. A soft
// factor's expression produces a number that is scaled by the weight. A hard
// factor's expression produces a bool; false violates the factor. Any
// evaluation error also counts as a violation.
type Factor struct {
	name   string
	expr   hcl.Expression
	weight float64
	hard   bool
	refs   Refs
	vars   []int
	scope  *Scope
}

// NewFactor compiles a factor expression and probe-evaluates it once.
func NewFactor(name string, expr hcl.Expression, weight float64, hard bool, scope *Scope) (*Factor, hcl.Diagnostics) {
	refs, diags := scope.resolve(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	f := &Factor{
		name:   name,
		expr:   expr,
		weight: weight,
		hard:   hard,
		refs:   refs,
		vars:   scope.flatIndices(refs),
		scope:  scope,
	}
	if _, err := f.eval(scope.probe); err != nil {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid factor expression",
			Detail:   fmt.Sprintf("Factor %q: %s.", name, err),
			Subject:  expr.Range().Ptr(),
		})
	}
	return f, diags
}

// Name returns the factor's block name.
func (f *Factor) Name() string { return f.name }

// Variables returns the indices of every variable in the referenced blocks.
func (f *Factor) Variables() []int { return f.vars }

// Score returns the weighted score, or -Inf when the factor is violated.
func (f *Factor) Score(ctx *factorgraph.Context) float64 {
	s, err := f.eval(ctx)
	if err != nil {
		return math.Inf(-1)
	}
	return s
}

func (f *Factor) eval(ctx *factorgraph.Context) (float64, error) {
	val, diags := f.expr.Value(f.scope.EvalContext(ctx, f.refs))
	if diags.HasErrors() {
		return 0, diags
	}
	if !val.IsKnown() || val.IsNull() {
		return 0, fmt.Errorf("value is null or unknown")
	}
	if f.hard {
		b, err := convert.Convert(val, cty.Bool)
		if err != nil {
			return 0, fmt.Errorf("require must be a bool: %w", err)
		}
		if b.True() {
			return 0, nil
		}
		return math.Inf(-1), nil
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("score must be a number: %w", err)
	}
	s, _ := num.AsBigFloat().Float64()
	return f.weight * s, nil
}
