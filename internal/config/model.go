package config

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/patterngrid/internal/factorgraph"
)

// Model is the unified, format-agnostic representation of one graph
// definition. Declaration order is preserved; it fixes block offsets and the
// order instances are sampled in.
type Model struct {
	Name       string
	Path       string
	Variables  []*Variable
	Parameters []*Parameter
	Outputs    []*Output
	Factors    []*Factor
	Instances  []*Instance
}

// Variable is the format-agnostic representation of a `variable` block.
type Variable struct {
	Name        string
	Count       int
	Min         int32
	Max         int32
	Description string
}

// Parameter is the format-agnostic representation of a `parameter` block.
// Only the defaults slice matching Type is used; nil means all zeros.
type Parameter struct {
	Name          string
	Type          factorgraph.ValueType
	Count         int
	IntDefaults   []int32
	FloatDefaults []float32
	Description   string
}

// Output is the format-agnostic representation of an `output` block.
type Output struct {
	Name        string
	Type        factorgraph.ValueType
	Value       hcl.Expression
	Description string
}

// Factor is the format-agnostic representation of a `factor` block. Hard
// factors have a bool expression and ignore Weight.
type Factor struct {
	Name        string
	Weight      float64
	Expr        hcl.Expression
	Hard        bool
	Description string
}

// Instance is a nested graph. Instances loaded from the same file share one
// Model.
type Instance struct {
	Name   string
	Source string
	Model  *Model
}
