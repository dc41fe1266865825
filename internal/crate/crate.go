// Package crate holds named int and float blocks projected from graph outputs.
package crate

// Data maps output names to their evaluated values.
type Data struct {
	IntBlocks   map[string][]int32   `json:"int_blocks" yaml:"int_blocks"`
	FloatBlocks map[string][]float32 `json:"float_blocks" yaml:"float_blocks"`
}

// New returns an empty crate.
func New() *Data {
	return &Data{IntBlocks: map[string][]int32{}, FloatBlocks: map[string][]float32{}}
}

// Reset removes every block.
func (d *Data) Reset() {
	d.IntBlocks = make(map[string][]int32, len(d.IntBlocks))
	d.FloatBlocks = make(map[string][]float32, len(d.FloatBlocks))
}

// Len returns the number of blocks of both types.
func (d *Data) Len() int {
	return len(d.IntBlocks) + len(d.FloatBlocks)
}
