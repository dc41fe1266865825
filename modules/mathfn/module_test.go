package mathfn

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/patterngrid/internal/registry"
)

func TestSum(t *testing.T) {
	got, err := SumFunc.Call([]cty.Value{cty.ListVal([]cty.Value{cty.NumberIntVal(2), cty.NumberFloatVal(0.5)})})
	require.NoError(t, err)
	assert.True(t, got.Equals(cty.NumberFloatVal(2.5)).True(), "got %#v", got)

	got, err = SumFunc.Call([]cty.Value{cty.ListValEmpty(cty.Number)})
	require.NoError(t, err)
	assert.True(t, got.Equals(cty.NumberIntVal(0)).True(), "got %#v", got)
}

func TestSum_FromExpression(t *testing.T) {
	// Tuple literals are converted to lists by the call expression.
	expr, diags := hclsyntax.ParseExpression([]byte(`sum([1, 2.5, x])`), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())

	got, diags := expr.Value(&hcl.EvalContext{
		Variables: map[string]cty.Value{"x": cty.NumberIntVal(3)},
		Functions: map[string]function.Function{"sum": SumFunc},
	})
	require.False(t, diags.HasErrors(), diags.Error())
	assert.True(t, got.Equals(cty.NumberFloatVal(6.5)).True(), "got %#v", got)
}

func TestClamp(t *testing.T) {
	testCases := []struct {
		value, lo, hi int64
		expected      int64
	}{
		{value: 5, lo: 0, hi: 10, expected: 5},
		{value: -3, lo: 0, hi: 10, expected: 0},
		{value: 70, lo: 0, hi: 64, expected: 64},
	}
	for _, tc := range testCases {
		got, err := ClampFunc.Call([]cty.Value{cty.NumberIntVal(tc.value), cty.NumberIntVal(tc.lo), cty.NumberIntVal(tc.hi)})
		require.NoError(t, err)
		assert.True(t, got.RawEquals(cty.NumberIntVal(tc.expected)), "clamp(%d, %d, %d) = %#v", tc.value, tc.lo, tc.hi, got)
	}

	_, err := ClampFunc.Call([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(5), cty.NumberIntVal(0)})
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	r := registry.New(&Module{})
	assert.NoError(t, r.ValidateCalls([]string{"abs", "sum", "clamp", "range", "length"}))
}
