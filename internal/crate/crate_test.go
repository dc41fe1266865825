package crate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReset(t *testing.T) {
	d := New()
	d.IntBlocks["a"] = []int32{1}
	d.FloatBlocks["b"] = []float32{0.5}
	assert.Equal(t, 2, d.Len())

	d.Reset()
	assert.Zero(t, d.Len())
	assert.NotNil(t, d.IntBlocks)

	var zero Data
	zero.Reset()
	zero.IntBlocks["c"] = nil
	assert.Equal(t, 1, zero.Len())
}
