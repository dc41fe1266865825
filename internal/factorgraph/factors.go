package factorgraph

import "math"

// FuncFactor is a factor computed by a Go function. Fn returns the unweighted
// score; a hard factor turns any negative score into a violation.
type FuncFactor struct {
	Name   string
	Vars   []int
	Weight float64
	Hard   bool
	Fn     func(ctx *Context) float64
}

func (f *FuncFactor) Variables() []int { return f.Vars }

func (f *FuncFactor) Score(ctx *Context) float64 {
	s := f.Fn(ctx)
	if f.Hard && s < 0 {
		return math.Inf(-1)
	}
	return f.Weight * s
}

// BlockIndices returns the flat indices of every variable in a block.
func BlockIndices(blocks ...Block) []int {
	var indices []int
	for _, b := range blocks {
		for i := b.Offset; i < b.End(); i++ {
			indices = append(indices, i)
		}
	}
	return indices
}
