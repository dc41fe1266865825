package hclexpr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/patterngrid/internal/factorgraph"
)

type paramBlock struct {
	valueType factorgraph.ValueType
	block     factorgraph.Block
}

// Scope knows the block layout of the graph being compiled and the functions
// its expressions may call.
type Scope struct {
	variables map[string]factorgraph.Block
	params    map[string]paramBlock
	functions map[string]function.Function
	probe     *factorgraph.Context
}

// NewScope returns an empty scope exposing the given functions.
func NewScope(functions map[string]function.Function) *Scope {
	return &Scope{
		variables: make(map[string]factorgraph.Block),
		params:    make(map[string]paramBlock),
		functions: functions,
	}
}

// DeclareVariables makes a variable block visible as var.<name>.
func (s *Scope) DeclareVariables(name string, b factorgraph.Block) {
	s.variables[name] = b
}

// DeclareParameters makes a parameter block visible as param.<name>.
func (s *Scope) DeclareParameters(name string, t factorgraph.ValueType, b factorgraph.Block) {
	s.params[name] = paramBlock{valueType: t, block: b}
}

// SetProbe sets the context expressions are test-evaluated against when they
// are compiled. It must hold a valid variation and every parameter default.
func (s *Scope) SetProbe(ctx *factorgraph.Context) {
	s.probe = ctx
}

// resolve analyses exprs and checks every referenced block is declared.
func (s *Scope) resolve(exprs ...hcl.Expression) (Refs, hcl.Diagnostics) {
	refs, diags := Analyze(exprs...)
	for _, name := range refs.Variables {
		if _, ok := s.variables[name]; !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Reference to undeclared variable block",
				Detail:   fmt.Sprintf("No variable block named %q is declared.", name),
				Subject:  exprRange(exprs),
			})
		}
	}
	for _, name := range refs.Parameters {
		if _, ok := s.params[name]; !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Reference to undeclared parameter block",
				Detail:   fmt.Sprintf("No parameter block named %q is declared.", name),
				Subject:  exprRange(exprs),
			})
		}
	}
	for _, name := range refs.Functions {
		if _, ok := s.functions[name]; !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Call to unknown function",
				Detail:   fmt.Sprintf("There is no function named %q.", name),
				Subject:  exprRange(exprs),
			})
		}
	}
	return refs, diags
}

// EvalContext exposes the referenced blocks of ctx to an expression.
func (s *Scope) EvalContext(ctx *factorgraph.Context, refs Refs) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(refs.Variables))
	for _, name := range refs.Variables {
		vars[name] = intList(ctx.Values(s.variables[name]))
	}
	params := make(map[string]cty.Value, len(refs.Parameters))
	for _, name := range refs.Parameters {
		p := s.params[name]
		switch p.valueType {
		case factorgraph.Int:
			params[name] = intList(ctx.Ints(p.block))
		case factorgraph.Float:
			params[name] = floatList(ctx.Floats(p.block))
		default:
			panic(fmt.Sprintf("hclexpr: unknown value type %v", p.valueType))
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			rootVariables:  cty.ObjectVal(vars),
			rootParameters: cty.ObjectVal(params),
		},
		Functions: s.functions,
	}
}

// flatIndices returns the variable indices the expressions may read. Blocks
// read only through constant indices contribute just those elements.
func (s *Scope) flatIndices(refs Refs) []int {
	var indices []int
	for _, name := range refs.Variables {
		block := s.variables[name]
		elems, ok := refs.Elements(name)
		if !ok {
			indices = append(indices, factorgraph.BlockIndices(block)...)
			continue
		}
		for _, i := range elems {
			if i < block.Size {
				indices = append(indices, block.Offset+i)
			}
		}
	}
	return indices
}

func intList(values []int32) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	elems := make([]cty.Value, len(values))
	for i, v := range values {
		elems[i] = cty.NumberIntVal(int64(v))
	}
	return cty.ListVal(elems)
}

func floatList(values []float32) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	elems := make([]cty.Value, len(values))
	for i, v := range values {
		elems[i] = cty.NumberFloatVal(float64(v))
	}
	return cty.ListVal(elems)
}

func exprRange(exprs []hcl.Expression) *hcl.Range {
	for _, e := range exprs {
		if e != nil {
			return e.Range().Ptr()
		}
	}
	return nil
}
