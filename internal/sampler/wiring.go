package sampler

import (
	"fmt"

	"github.com/vk/patterngrid/internal/environment"
	"github.com/vk/patterngrid/internal/factorgraph"
	"github.com/vk/patterngrid/internal/portname"
)

// wire evaluates one output into a parameter block of another environment.
type wire struct {
	name   string
	output factorgraph.Output
	block  factorgraph.Block
}

// instanceSampler is a nested instance with its name-resolved wiring. Forward
// wires evaluate parent outputs into the child's parameters, reverse wires
// evaluate child outputs into the parent's parameters.
type instanceSampler struct {
	name    string
	sampler *Sampler
	forward []wire
	reverse []wire
}

// resolveWiring matches the parent's Source outputs and Target blocks against
// the child's parameter blocks and outputs. Names without a counterpart of
// the same type are skipped.
func resolveWiring(parent *factorgraph.Graph, inst *instanceSampler) {
	child := inst.sampler.graph
	for _, t := range []factorgraph.ValueType{factorgraph.Int, factorgraph.Float} {
		for _, nb := range child.ParameterBlocks(t) {
			name := portname.Source(inst.name, nb.Name)
			out, ok := parent.Output(name)
			if !ok || out.Type() != t {
				continue
			}
			inst.forward = append(inst.forward, wire{name: name, output: out, block: nb.Block})
		}
	}
	for _, no := range child.Outputs() {
		name := portname.Target(inst.name, no.Name)
		block, ok := parent.ParameterBlock(no.Output.Type(), name)
		if !ok {
			continue
		}
		inst.reverse = append(inst.reverse, wire{name: name, output: no.Output, block: block})
	}
}

// apply evaluates the wire's output against ctx into env's working parameters.
func (w wire) apply(ctx *factorgraph.Context, env *environment.Environment) error {
	var err error
	switch t := w.output.Type(); t {
	case factorgraph.Int:
		err = w.output.EvalInt(ctx, env.IntParameters(w.block))
	case factorgraph.Float:
		err = w.output.EvalFloat(ctx, env.FloatParameters(w.block))
	default:
		panic(fmt.Sprintf("sampler: unknown value type %v", t))
	}
	if err != nil {
		return fmt.Errorf("wiring %q: %w", w.name, err)
	}
	return nil
}
