package factorgraph

import "fmt"

func checkLen(want, got int) error {
	if want != got {
		return fmt.Errorf("destination has %d elements, output has %d: %w", got, want, ErrLengthMismatch)
	}
	return nil
}

// VariableOutput exposes the values of a variable block as an int output.
type VariableOutput struct {
	Block Block
}

func (o VariableOutput) Type() ValueType { return Int }
func (o VariableOutput) Len() int        { return o.Block.Size }

func (o VariableOutput) EvalInt(ctx *Context, dst []int32) error {
	if err := checkLen(o.Block.Size, len(dst)); err != nil {
		return err
	}
	copy(dst, ctx.Values(o.Block))
	return nil
}

func (o VariableOutput) EvalFloat(*Context, []float32) error {
	return fmt.Errorf("variable output evaluated as float: %w", ErrTypeMismatch)
}

// ParameterOutput exposes the current values of a parameter block.
type ParameterOutput struct {
	Name      string
	ValueType ValueType
	Block     Block
}

func (o ParameterOutput) Type() ValueType         { return o.ValueType }
func (o ParameterOutput) Len() int                { return o.Block.Size }
func (o ParameterOutput) ParameterDeps() []string { return []string{o.Name} }

func (o ParameterOutput) EvalInt(ctx *Context, dst []int32) error {
	if o.ValueType != Int {
		return fmt.Errorf("parameter output %q evaluated as int: %w", o.Name, ErrTypeMismatch)
	}
	if err := checkLen(o.Block.Size, len(dst)); err != nil {
		return err
	}
	copy(dst, ctx.Ints(o.Block))
	return nil
}

func (o ParameterOutput) EvalFloat(ctx *Context, dst []float32) error {
	if o.ValueType != Float {
		return fmt.Errorf("parameter output %q evaluated as float: %w", o.Name, ErrTypeMismatch)
	}
	if err := checkLen(o.Block.Size, len(dst)); err != nil {
		return err
	}
	copy(dst, ctx.Floats(o.Block))
	return nil
}

// IntFuncOutput is an int output computed by a Go function.
type IntFuncOutput struct {
	N    int
	Deps []string
	Fn   func(ctx *Context, dst []int32)
}

func (o IntFuncOutput) Type() ValueType         { return Int }
func (o IntFuncOutput) Len() int                { return o.N }
func (o IntFuncOutput) ParameterDeps() []string { return o.Deps }

func (o IntFuncOutput) EvalInt(ctx *Context, dst []int32) error {
	if err := checkLen(o.N, len(dst)); err != nil {
		return err
	}
	o.Fn(ctx, dst)
	return nil
}

func (o IntFuncOutput) EvalFloat(*Context, []float32) error {
	return fmt.Errorf("int output evaluated as float: %w", ErrTypeMismatch)
}

// FloatFuncOutput is a float output computed by a Go function.
type FloatFuncOutput struct {
	N    int
	Deps []string
	Fn   func(ctx *Context, dst []float32)
}

func (o FloatFuncOutput) Type() ValueType         { return Float }
func (o FloatFuncOutput) Len() int                { return o.N }
func (o FloatFuncOutput) ParameterDeps() []string { return o.Deps }

func (o FloatFuncOutput) EvalInt(*Context, []int32) error {
	return fmt.Errorf("float output evaluated as int: %w", ErrTypeMismatch)
}

func (o FloatFuncOutput) EvalFloat(ctx *Context, dst []float32) error {
	if err := checkLen(o.N, len(dst)); err != nil {
		return err
	}
	o.Fn(ctx, dst)
	return nil
}
