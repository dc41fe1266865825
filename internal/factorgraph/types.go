package factorgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when an output is evaluated into the wrong element type.
	ErrTypeMismatch = errors.New("output value type mismatch")
	// ErrLengthMismatch is returned when a destination does not match an output or block length.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrDuplicateName is returned when two graph elements of the same kind share a name.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrInstanceOrder is returned when instance wiring depends on an instance declared later.
	ErrInstanceOrder = errors.New("instance wiring out of order")
	// ErrWiring is returned when a Source or Target port does not fit the block it is wired to.
	ErrWiring = errors.New("invalid instance wiring")
	// ErrUnknownBlock is returned when a variable or parameter block is looked up by a name the graph does not declare.
	ErrUnknownBlock = errors.New("unknown block")
	// ErrDomainTooLarge is returned for variable domains with more than MaxDomainSize values.
	ErrDomainTooLarge = errors.New("variable domain too large")
)

// ValueType is the element type of a parameter block or an output.
type ValueType int

const (
	// Int blocks and outputs hold int32 values.
	Int ValueType = iota
	// Float blocks and outputs hold float32 values.
	Float
)

// String returns the keyword used for the type in graph files.
func (t ValueType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// ParseValueType converts a graph file keyword into a ValueType.
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	default:
		return 0, fmt.Errorf("unknown value type %q: must be 'int' or 'float'", s)
	}
}

// Block is a contiguous range inside a flat array of variables or parameters.
type Block struct {
	Offset int
	Size   int
}

// End returns the index one past the last element of the block.
func (b Block) End() int {
	return b.Offset + b.Size
}

// Contains reports whether the flat index lies within the block.
func (b Block) Contains(index int) bool {
	return index >= b.Offset && index < b.End()
}

// NamedBlock pairs a block with the name it is addressed by.
type NamedBlock struct {
	Name string
	Block
}

// Variable is a single discrete random variable. Its domain is every integer
// in [Min, Max].
type Variable struct {
	// Block is the name of the variable block the variable was declared in.
	Block string
	Min   int32
	Max   int32
}

// MaxDomainSize is the largest number of values a variable may take. Every
// sweep scores each value of the domain.
const MaxDomainSize = 1 << 16

// DomainSize returns the number of values the variable can take.
func (v Variable) DomainSize() int {
	return int(v.Max) - int(v.Min) + 1
}

// Context is the read-only view an output or a factor is evaluated against.
// IntParams and FloatParams are the flat parameter arrays of one environment,
// addressed through the graph's parameter blocks.
type Context struct {
	Variation   []int32
	IntParams   []int32
	FloatParams []float32
}

// Values returns the variation values of a variable block.
func (c *Context) Values(b Block) []int32 {
	return c.Variation[b.Offset:b.End()]
}

// Ints returns the values of an int parameter block.
func (c *Context) Ints(b Block) []int32 {
	return c.IntParams[b.Offset:b.End()]
}

// Floats returns the values of a float parameter block.
func (c *Context) Floats(b Block) []float32 {
	return c.FloatParams[b.Offset:b.End()]
}

// Output is a named, typed expression of the current variation and parameters.
// Evaluation must not have side effects beyond filling dst, and dst always has
// exactly Len() elements. Only the method matching Type() is expected to succeed.
type Output interface {
	Type() ValueType
	Len() int
	EvalInt(ctx *Context, dst []int32) error
	EvalFloat(ctx *Context, dst []float32) error
}

// ParameterReader is implemented by outputs that know which parameter blocks
// they read. The builder uses it to check instance ordering.
type ParameterReader interface {
	ParameterDeps() []string
}

// NamedOutput pairs an output with its name.
type NamedOutput struct {
	Name   string
	Output Output
}

// Factor is a weighted constraint over a set of variables. Score returns the
// already weighted contribution for the current context; math.Inf(-1) marks a
// violated hard constraint.
type Factor interface {
	Variables() []int
	Score(ctx *Context) float64
}

// Instance is a nested graph embedded under a name.
type Instance struct {
	Name  string
	Graph *Graph
}
