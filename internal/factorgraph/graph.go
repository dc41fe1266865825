package factorgraph

import "math"

// Graph is the immutable model built by a Builder. Slices returned by its
// accessors are shared and must be treated as read-only.
type Graph struct {
	name string

	variables      []Variable
	variableBlocks []NamedBlock
	variableIndex  map[string]int

	paramBlocks   [2][]NamedBlock
	paramIndex    [2]map[string]int
	intDefaults   []int32
	floatDefaults []float32

	outputs     []NamedOutput
	outputIndex map[string]int

	factors   []Factor
	adjacency [][]int

	instances     []Instance
	instanceIndex map[string]int
}

// Name returns the name the graph was built with.
func (g *Graph) Name() string {
	return g.name
}

// NumVariables returns the number of random variables, which is also the
// length of every variation of this graph.
func (g *Graph) NumVariables() int {
	return len(g.variables)
}

// Variables returns all variables in flat-index order.
func (g *Graph) Variables() []Variable {
	return g.variables
}

// Variable returns the variable at a flat index.
func (g *Graph) Variable(index int) Variable {
	return g.variables[index]
}

// VariableBlocks returns the variable blocks in declaration order.
func (g *Graph) VariableBlocks() []NamedBlock {
	return g.variableBlocks
}

// VariableBlock looks up a variable block by name.
func (g *Graph) VariableBlock(name string) (Block, bool) {
	i, ok := g.variableIndex[name]
	if !ok {
		return Block{}, false
	}
	return g.variableBlocks[i].Block, true
}

// ParameterBlocks returns the parameter blocks of one type in declaration order.
func (g *Graph) ParameterBlocks(t ValueType) []NamedBlock {
	return g.paramBlocks[t]
}

// ParameterBlock looks up a parameter block by type and name.
func (g *Graph) ParameterBlock(t ValueType, name string) (Block, bool) {
	i, ok := g.paramIndex[t][name]
	if !ok {
		return Block{}, false
	}
	return g.paramBlocks[t][i].Block, true
}

// NumParameters returns the total size of all parameter blocks of one type.
func (g *Graph) NumParameters(t ValueType) int {
	blocks := g.paramBlocks[t]
	if len(blocks) == 0 {
		return 0
	}
	return blocks[len(blocks)-1].End()
}

// IntDefaults returns a fresh copy of the default int parameter values.
func (g *Graph) IntDefaults() []int32 {
	return append([]int32(nil), g.intDefaults...)
}

// FloatDefaults returns a fresh copy of the default float parameter values.
func (g *Graph) FloatDefaults() []float32 {
	return append([]float32(nil), g.floatDefaults...)
}

// Outputs returns all outputs in declaration order.
func (g *Graph) Outputs() []NamedOutput {
	return g.outputs
}

// Output looks up an output by name.
func (g *Graph) Output(name string) (Output, bool) {
	i, ok := g.outputIndex[name]
	if !ok {
		return nil, false
	}
	return g.outputs[i].Output, true
}

// Factors returns all factors.
func (g *Graph) Factors() []Factor {
	return g.factors
}

// FactorsOf returns the indices of the factors touching a variable.
func (g *Graph) FactorsOf(index int) []int {
	return g.adjacency[index]
}

// Instances returns the nested instances in declaration order. This order is
// the order in which samplers recurse into them.
func (g *Graph) Instances() []Instance {
	return g.instances
}

// Instance looks up a nested instance graph by name.
func (g *Graph) Instance(name string) (*Graph, bool) {
	i, ok := g.instanceIndex[name]
	if !ok {
		return nil, false
	}
	return g.instances[i].Graph, true
}

// MinimumVariation returns a variation with every variable at its lower bound.
func (g *Graph) MinimumVariation() []int32 {
	variation := make([]int32, len(g.variables))
	for i, v := range g.variables {
		variation[i] = v.Min
	}
	return variation
}

// InDomain reports whether every value of the variation lies in its variable's domain.
func (g *Graph) InDomain(variation []int32) bool {
	if len(variation) != len(g.variables) {
		return false
	}
	for i, v := range g.variables {
		if variation[i] < v.Min || variation[i] > v.Max {
			return false
		}
	}
	return true
}

// Score returns the joint score of the context's variation: the sum of every
// factor's weighted score.
func (g *Graph) Score(ctx *Context) float64 {
	total := 0.0
	for _, f := range g.factors {
		s := f.Score(ctx)
		if math.IsInf(s, -1) || math.IsNaN(s) {
			return math.Inf(-1)
		}
		total += s
	}
	return total
}

// LocalScore returns the sum of the weighted scores of the factors touching a
// variable. It is the part of the joint score that changes with that variable.
func (g *Graph) LocalScore(ctx *Context, index int) float64 {
	total := 0.0
	for _, fi := range g.adjacency[index] {
		s := g.factors[fi].Score(ctx)
		if math.IsInf(s, -1) || math.IsNaN(s) {
			return math.Inf(-1)
		}
		total += s
	}
	return total
}
