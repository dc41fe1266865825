package factorgraph

import (
	"errors"
	"fmt"

	"github.com/vk/patterngrid/internal/portname"
)

// Builder assembles a Graph. Methods record problems instead of failing fast;
// Build reports all of them at once.
type Builder struct {
	g    *Graph
	errs []error
}

// NewBuilder starts a new graph with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{g: &Graph{
		name:          name,
		variableIndex: make(map[string]int),
		paramIndex:    [2]map[string]int{make(map[string]int), make(map[string]int)},
		outputIndex:   make(map[string]int),
		instanceIndex: make(map[string]int),
	}}
}

func (b *Builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// AddVariables declares a block of count variables sharing the domain [lo, hi].
func (b *Builder) AddVariables(name string, count int, lo, hi int32) Block {
	if _, dup := b.g.variableIndex[name]; dup {
		b.fail("variable block %q: %w", name, ErrDuplicateName)
		return Block{}
	}
	if count < 0 {
		b.fail("variable block %q: negative count %d", name, count)
		return Block{}
	}
	if lo > hi {
		b.fail("variable block %q: empty domain [%d, %d]", name, lo, hi)
		return Block{}
	}
	if n := int(hi) - int(lo) + 1; n > MaxDomainSize {
		b.fail("variable block %q: domain [%d, %d] has %d values, at most %d allowed: %w",
			name, lo, hi, n, MaxDomainSize, ErrDomainTooLarge)
		return Block{}
	}

	block := Block{Offset: len(b.g.variables), Size: count}
	for i := 0; i < count; i++ {
		b.g.variables = append(b.g.variables, Variable{Block: name, Min: lo, Max: hi})
	}
	b.g.variableIndex[name] = len(b.g.variableBlocks)
	b.g.variableBlocks = append(b.g.variableBlocks, NamedBlock{Name: name, Block: block})
	return block
}

func (b *Builder) addParameters(name string, t ValueType, size int) (Block, bool) {
	if _, dup := b.g.paramIndex[Int][name]; dup {
		b.fail("parameter block %q: %w", name, ErrDuplicateName)
		return Block{}, false
	}
	if _, dup := b.g.paramIndex[Float][name]; dup {
		b.fail("parameter block %q: %w", name, ErrDuplicateName)
		return Block{}, false
	}
	if size < 0 {
		b.fail("parameter block %q: negative size %d", name, size)
		return Block{}, false
	}
	blocks := b.g.paramBlocks[t]
	offset := 0
	if len(blocks) > 0 {
		offset = blocks[len(blocks)-1].End()
	}
	block := Block{Offset: offset, Size: size}
	b.g.paramIndex[t][name] = len(blocks)
	b.g.paramBlocks[t] = append(blocks, NamedBlock{Name: name, Block: block})
	return block, true
}

// AddIntParameters declares an int parameter block. A nil defaults slice means
// all zeros; otherwise it must have exactly size elements.
func (b *Builder) AddIntParameters(name string, size int, defaults []int32) Block {
	if defaults != nil && len(defaults) != size {
		b.fail("parameter block %q: %d defaults for %d values: %w", name, len(defaults), size, ErrLengthMismatch)
		return Block{}
	}
	block, ok := b.addParameters(name, Int, size)
	if !ok {
		return Block{}
	}
	if defaults == nil {
		defaults = make([]int32, size)
	}
	b.g.intDefaults = append(b.g.intDefaults, defaults...)
	return block
}

// AddFloatParameters declares a float parameter block. A nil defaults slice
// means all zeros; otherwise it must have exactly size elements.
func (b *Builder) AddFloatParameters(name string, size int, defaults []float32) Block {
	if defaults != nil && len(defaults) != size {
		b.fail("parameter block %q: %d defaults for %d values: %w", name, len(defaults), size, ErrLengthMismatch)
		return Block{}
	}
	block, ok := b.addParameters(name, Float, size)
	if !ok {
		return Block{}
	}
	if defaults == nil {
		defaults = make([]float32, size)
	}
	b.g.floatDefaults = append(b.g.floatDefaults, defaults...)
	return block
}

// AddOutput declares a named output.
func (b *Builder) AddOutput(name string, out Output) {
	if _, dup := b.g.outputIndex[name]; dup {
		b.fail("output %q: %w", name, ErrDuplicateName)
		return
	}
	if out == nil {
		b.fail("output %q: nil output", name)
		return
	}
	if t := out.Type(); t != Int && t != Float {
		b.fail("output %q: unsupported value type %v", name, t)
		return
	}
	b.g.outputIndex[name] = len(b.g.outputs)
	b.g.outputs = append(b.g.outputs, NamedOutput{Name: name, Output: out})
}

// AddFactor adds a factor. Its variable indices are checked by Build.
func (b *Builder) AddFactor(f Factor) {
	if f == nil {
		b.fail("nil factor")
		return
	}
	b.g.factors = append(b.g.factors, f)
}

// AddInstance nests an already built graph under a name. Instances are
// sampled in the order they are added.
func (b *Builder) AddInstance(name string, g *Graph) {
	if !portname.ValidInstanceName(name) {
		b.fail("instance %q: names must be non-empty and contain no dots or spaces", name)
		return
	}
	if _, dup := b.g.instanceIndex[name]; dup {
		b.fail("instance %q: %w", name, ErrDuplicateName)
		return
	}
	if g == nil {
		b.fail("instance %q: nil graph", name)
		return
	}
	b.g.instanceIndex[name] = len(b.g.instances)
	b.g.instances = append(b.g.instances, Instance{Name: name, Graph: g})
}

// Build validates the collected declarations and returns the finished graph.
// The builder must not be used afterwards.
func (b *Builder) Build() (*Graph, error) {
	g := b.g
	g.adjacency = make([][]int, len(g.variables))
	for fi, f := range g.factors {
		seen := make(map[int]struct{})
		for _, vi := range f.Variables() {
			if vi < 0 || vi >= len(g.variables) {
				b.fail("factor %d: variable index %d out of range [0, %d)", fi, vi, len(g.variables))
				continue
			}
			if _, dup := seen[vi]; dup {
				continue
			}
			seen[vi] = struct{}{}
			g.adjacency[vi] = append(g.adjacency[vi], fi)
		}
	}

	b.validateWiring()
	b.validateInstanceOrder()

	if len(b.errs) > 0 {
		return nil, fmt.Errorf("graph %q: %w", g.name, errors.Join(b.errs...))
	}
	return g, nil
}

func (b *Builder) validateWiring() {
	g := b.g
	for _, inst := range g.instances {
		child := inst.Graph
		for _, t := range []ValueType{Int, Float} {
			for _, param := range child.ParameterBlocks(t) {
				name := portname.Source(inst.Name, param.Name)
				out, ok := g.Output(name)
				if !ok {
					continue
				}
				if out.Type() != t || out.Len() != param.Size {
					b.fail("output %q (%v[%d]) cannot feed %v[%d] parameter %q of instance %q: %w",
						name, out.Type(), out.Len(), t, param.Size, param.Name, inst.Name, ErrWiring)
				}
			}
		}
		for _, out := range child.Outputs() {
			name := portname.Target(inst.Name, out.Name)
			for _, t := range []ValueType{Int, Float} {
				block, ok := g.ParameterBlock(t, name)
				if !ok {
					continue
				}
				if out.Output.Type() != t || out.Output.Len() != block.Size {
					b.fail("output %q (%v[%d]) of instance %q cannot fill %v[%d] parameter %q: %w",
						out.Name, out.Output.Type(), out.Output.Len(), inst.Name, t, block.Size, name, ErrWiring)
				}
			}
		}
	}
}

// validateInstanceOrder checks that every Source output only reads Target
// blocks of instances that are sampled before the instance it feeds.
func (b *Builder) validateInstanceOrder() {
	g := b.g
	for _, out := range g.outputs {
		reader, ok := out.Output.(ParameterReader)
		if !ok || !portname.IsSource(out.Name) {
			continue
		}
		port, err := portname.Parse(out.Name)
		if err != nil {
			continue
		}
		fed, ok := g.instanceIndex[port.Instance]
		if !ok {
			continue
		}
		for _, dep := range reader.ParameterDeps() {
			if !portname.IsTarget(dep) {
				continue
			}
			depPort, err := portname.Parse(dep)
			if err != nil {
				continue
			}
			feeding, ok := g.instanceIndex[depPort.Instance]
			if !ok {
				continue
			}
			if feeding >= fed {
				b.fail("output %q reads %q but instance %q is not sampled before %q: %w",
					out.Name, dep, depPort.Instance, port.Instance, ErrInstanceOrder)
			}
		}
	}
}
