package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File represents the top-level structure of a graph file. A graph may be
// spread over several files in one directory; their blocks are merged in
// file name order.
type File struct {
	Name       string       `hcl:"name,optional"`
	Variables  []*Variable  `hcl:"variable,block"`
	Parameters []*Parameter `hcl:"parameter,block"`
	Outputs    []*Output    `hcl:"output,block"`
	Factors    []*Factor    `hcl:"factor,block"`
	Instances  []*Instance  `hcl:"instance,block"`
}

// Variable represents a `variable` block: count sampled values sharing the
// domain [min, max].
type Variable struct {
	Name        string `hcl:"name,label"`
	Count       *int   `hcl:"count,optional"`
	Min         int32  `hcl:"min"`
	Max         int32  `hcl:"max"`
	Description string `hcl:"description,optional"`
}

// Parameter represents a `parameter` block. Type is the bare keyword `int` or
// `float`. Without a count the length is taken from the default, or 1.
type Parameter struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Count       *int           `hcl:"count,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

// Output represents an `output` block computed from variables and parameters.
type Output struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Value       hcl.Expression `hcl:"value"`
	Description string         `hcl:"description,optional"`
}

// Factor represents a `factor` block. Exactly one of score (a weighted
// number) and require (a hard bool) must be set.
type Factor struct {
	Name        string         `hcl:"name,label"`
	Weight      *float64       `hcl:"weight,optional"`
	Score       hcl.Expression `hcl:"score,optional"`
	Require     hcl.Expression `hcl:"require,optional"`
	Description string         `hcl:"description,optional"`
}

// Instance represents an `instance` block nesting the graph found at source,
// which is resolved relative to the declaring file.
type Instance struct {
	Name   string `hcl:"name,label"`
	Source string `hcl:"source"`
}
