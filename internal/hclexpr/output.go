package hclexpr

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// Output is a factor graph output computed by an HCL expression. The
// expression must produce a number or a list of numbers. Int outputs round
// every element down.
type Output struct {
	name      string
	valueType factorgraph.ValueType
	n         int
	expr      hcl.Expression
	refs      Refs
	scope     *Scope
}

// NewOutput compiles an output expression. Its length is taken from a probe
// evaluation against the scope's probe context.
func NewOutput(name string, t factorgraph.ValueType, expr hcl.Expression, scope *Scope) (*Output, hcl.Diagnostics) {
	refs, diags := scope.resolve(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	o := &Output{name: name, valueType: t, expr: expr, refs: refs, scope: scope}

	elems, err := o.elements(scope.probe)
	if err != nil {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid output value",
			Detail:   fmt.Sprintf("Output %q: %s.", name, err),
			Subject:  expr.Range().Ptr(),
		})
	}
	o.n = len(elems)
	return o, diags
}

func (o *Output) Type() factorgraph.ValueType { return o.valueType }
func (o *Output) Len() int                    { return o.n }

// ParameterDeps returns the parameter blocks the expression reads.
func (o *Output) ParameterDeps() []string { return o.refs.Parameters }

func (o *Output) EvalInt(ctx *factorgraph.Context, dst []int32) error {
	if o.valueType != factorgraph.Int {
		return fmt.Errorf("output %q evaluated as int: %w", o.name, factorgraph.ErrTypeMismatch)
	}
	nums, err := o.numbers(ctx, len(dst))
	if err != nil {
		return err
	}
	for i, f := range nums {
		f = math.Floor(f)
		if f < math.MinInt32 || f > math.MaxInt32 {
			return fmt.Errorf("output %q: element %d (%v) does not fit an int32", o.name, i, f)
		}
		dst[i] = int32(f)
	}
	return nil
}

func (o *Output) EvalFloat(ctx *factorgraph.Context, dst []float32) error {
	if o.valueType != factorgraph.Float {
		return fmt.Errorf("output %q evaluated as float: %w", o.name, factorgraph.ErrTypeMismatch)
	}
	nums, err := o.numbers(ctx, len(dst))
	if err != nil {
		return err
	}
	for i, f := range nums {
		dst[i] = float32(f)
	}
	return nil
}

func (o *Output) numbers(ctx *factorgraph.Context, n int) ([]float64, error) {
	elems, err := o.elements(ctx)
	if err != nil {
		return nil, fmt.Errorf("output %q: %w", o.name, err)
	}
	if len(elems) != n || n != o.n {
		return nil, fmt.Errorf("output %q produced %d values, want %d: %w", o.name, len(elems), n, factorgraph.ErrLengthMismatch)
	}
	nums := make([]float64, n)
	for i, e := range elems {
		f, _ := e.AsBigFloat().Float64()
		nums[i] = f
	}
	return nums, nil
}

// elements evaluates the expression into known, non-null numbers.
func (o *Output) elements(ctx *factorgraph.Context) ([]cty.Value, error) {
	val, diags := o.expr.Value(o.scope.EvalContext(ctx, o.refs))
	if diags.HasErrors() {
		return nil, diags
	}
	if !val.IsWhollyKnown() || val.IsNull() {
		return nil, fmt.Errorf("value is null or unknown")
	}
	ty := val.Type()
	var elems []cty.Value
	switch {
	case ty == cty.Number:
		elems = []cty.Value{val}
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		elems = val.AsValueSlice()
	default:
		return nil, fmt.Errorf("value must be a number or a list of numbers, got %s", ty.FriendlyName())
	}
	for i, e := range elems {
		num, err := convert.Convert(e, cty.Number)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if num.IsNull() {
			return nil, fmt.Errorf("element %d is null", i)
		}
		elems[i] = num
	}
	return elems, nil
}
