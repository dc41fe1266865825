package hclexpr

import (
	"math"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

const (
	rootVariables  = "var"
	rootParameters = "param"
)

// Refs lists what a set of expressions reads and calls. Every slice is sorted
// and free of duplicates.
type Refs struct {
	Variables  []string
	Parameters []string
	Functions  []string

	// elements holds, per variable block, the indices read through a
	// constant index like var.note[3]. Blocks read any other way map to nil.
	elements map[string]map[int]struct{}
}

// Elements returns the variable indices within block that the expressions
// read, and false when the whole block may be read.
func (r Refs) Elements(block string) ([]int, bool) {
	set, ok := r.elements[block]
	if !ok || set == nil {
		return nil, false
	}
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, true
}

// TraversalKey generates a stable, canonical string representation for an
// hcl.Traversal.
func TraversalKey(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// Analyze collects the variable blocks, parameter blocks and functions the
// expressions reference. References to other roots, or that do not name a
// block, are reported as diagnostics.
func Analyze(exprs ...hcl.Expression) (Refs, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	vars := make(map[string]map[int]struct{})
	params := make(map[string]struct{})
	funcs := make(map[string]struct{})

	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		for _, tr := range expr.Variables() {
			root, name, diag := blockReference(tr)
			if diag != nil {
				diags = append(diags, diag)
				continue
			}
			if root == rootVariables {
				addElement(vars, name, tr)
			} else {
				params[name] = struct{}{}
			}
		}
		if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
			walkForFunctions(syntaxExpr, funcs)
		}
	}
	return Refs{
		Variables:  sortedKeys(vars),
		Parameters: sortedKeys(params),
		Functions:  sortedKeys(funcs),
		elements:   vars,
	}, diags
}

// addElement records which part of a variable block tr reads. Once a block is
// read as a whole it stays whole.
func addElement(vars map[string]map[int]struct{}, name string, tr hcl.Traversal) {
	set, seen := vars[name]
	if seen && set == nil {
		return
	}
	index, ok := constantIndex(tr)
	if !ok {
		vars[name] = nil
		return
	}
	if set == nil {
		set = make(map[int]struct{})
		vars[name] = set
	}
	set[index] = struct{}{}
}

// constantIndex returns n for a traversal of the form var.<block>[n].
func constantIndex(tr hcl.Traversal) (int, bool) {
	if len(tr) < 3 {
		return 0, false
	}
	step, ok := tr[2].(hcl.TraverseIndex)
	if !ok || step.Key.Type() != cty.Number || !step.Key.IsKnown() || step.Key.IsNull() {
		return 0, false
	}
	bf := step.Key.AsBigFloat()
	if !bf.IsInt() {
		return 0, false
	}
	i, acc := bf.Int64()
	if acc != big.Exact || i < 0 || i > math.MaxInt32 {
		return 0, false
	}
	return int(i), true
}

// blockReference splits var.<name>, param.<name> and param["<name>"].
func blockReference(tr hcl.Traversal) (string, string, *hcl.Diagnostic) {
	root := tr.RootName()
	if root != rootVariables && root != rootParameters {
		return "", "", &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown reference",
			Detail:   "Expressions may only reference \"var.<block>\" or \"param.<block>\", not \"" + TraversalKey(tr) + "\".",
			Subject:  tr.SourceRange().Ptr(),
		}
	}
	if len(tr) > 1 {
		switch step := tr[1].(type) {
		case hcl.TraverseAttr:
			return root, step.Name, nil
		case hcl.TraverseIndex:
			if step.Key.Type() == cty.String && step.Key.IsKnown() && !step.Key.IsNull() {
				return root, step.Key.AsString(), nil
			}
		}
	}
	return "", "", &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid reference",
		Detail:   "A reference to \"" + root + "\" must name a block, like " + root + ".name or " + root + "[\"name\"].",
		Subject:  tr.SourceRange().Ptr(),
	}
}

// walkForFunctions recursively walks the AST, looking only for function calls.
func walkForFunctions(expr hclsyntax.Expression, functions map[string]struct{}) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkForFunctions(item.KeyExpr, functions)
			walkForFunctions(item.ValueExpr, functions)
		}
	case *hclsyntax.ForExpr:
		walkForFunctions(e.CollExpr, functions)
		walkForFunctions(e.KeyExpr, functions)
		walkForFunctions(e.ValExpr, functions)
		walkForFunctions(e.CondExpr, functions)
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.SplatExpr:
		walkForFunctions(e.Source, functions)
		walkForFunctions(e.Each, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	case *hclsyntax.RelativeTraversalExpr:
		walkForFunctions(e.Source, functions)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
