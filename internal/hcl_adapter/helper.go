package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/factorgraph"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with non-nil,
// zero-width expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		logger.Debug("Expression is nil, considering it undefined.", "attribute", attrName)
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)

	return isDefined
}

// decodeDefaults converts a number or a list of numbers into the defaults of
// a parameter block. Int defaults must be whole numbers.
func decodeDefaults(val cty.Value, t factorgraph.ValueType) ([]int32, []float32, error) {
	if val.IsNull() {
		return nil, nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, nil, fmt.Errorf("default must be a known value")
	}
	if val.Type() == cty.Number {
		val = cty.ListVal([]cty.Value{val})
	}
	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, nil, fmt.Errorf("default must be a number or a list of numbers: %w", err)
	}

	switch t {
	case factorgraph.Int:
		ints := []int32{}
		if err := gocty.FromCtyValue(list, &ints); err != nil {
			return nil, nil, err
		}
		return ints, nil, nil
	case factorgraph.Float:
		floats := []float32{}
		if err := gocty.FromCtyValue(list, &floats); err != nil {
			return nil, nil, err
		}
		return nil, floats, nil
	default:
		panic(fmt.Sprintf("hcl_adapter: unknown value type %v", t))
	}
}
