// Package mathfn registers the arithmetic and collection functions that graph
// expressions use to score and shape variable blocks.
package mathfn

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/patterngrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the functions with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction("abs", stdlib.AbsoluteFunc)
	r.RegisterFunction("ceil", stdlib.CeilFunc)
	r.RegisterFunction("floor", stdlib.FloorFunc)
	r.RegisterFunction("max", stdlib.MaxFunc)
	r.RegisterFunction("min", stdlib.MinFunc)
	r.RegisterFunction("mod", stdlib.ModuloFunc)
	r.RegisterFunction("signum", stdlib.SignumFunc)
	r.RegisterFunction("length", stdlib.LengthFunc)
	r.RegisterFunction("concat", stdlib.ConcatFunc)
	r.RegisterFunction("element", stdlib.ElementFunc)
	r.RegisterFunction("range", stdlib.RangeFunc)
	r.RegisterFunction("slice", stdlib.SliceFunc)
	r.RegisterFunction("distinct", stdlib.DistinctFunc)
	r.RegisterFunction("contains", stdlib.ContainsFunc)
	r.RegisterFunction("reverse", stdlib.ReverseListFunc)
	r.RegisterFunction("sum", SumFunc)
	r.RegisterFunction("clamp", ClampFunc)
}

// SumFunc adds up a list of numbers. The sum of an empty list is 0.
var SumFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "list", Type: cty.List(cty.Number)},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		total := new(big.Float)
		for it := args[0].ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.IsNull() {
				return cty.UnknownVal(cty.Number), fmt.Errorf("sum: list contains null")
			}
			total.Add(total, v.AsBigFloat())
		}
		return cty.NumberVal(total), nil
	},
})

// ClampFunc limits a number to the closed interval [lo, hi].
var ClampFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "value", Type: cty.Number},
		{Name: "lo", Type: cty.Number},
		{Name: "hi", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		v, lo, hi := args[0], args[1], args[2]
		if hi.LessThan(lo).True() {
			return cty.UnknownVal(cty.Number), fmt.Errorf("clamp: upper bound is below lower bound")
		}
		if v.LessThan(lo).True() {
			return lo, nil
		}
		if v.GreaterThan(hi).True() {
			return hi, nil
		}
		return v, nil
	},
})
