package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

type absModule struct{}

func (absModule) Register(r *Registry) {
	r.RegisterFunction("abs", stdlib.AbsoluteFunc)
}

func TestRegistry(t *testing.T) {
	r := New(absModule{})
	r.RegisterFunction("max", stdlib.MaxFunc)

	assert.Equal(t, []string{"abs", "max"}, r.Names())
	assert.Len(t, r.Functions(), 2)

	require.NoError(t, r.ValidateCalls([]string{"abs", "max"}))
	err := r.ValidateCalls([]string{"abs", "mean", "median"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mean, median")

	assert.Panics(t, func() { r.RegisterFunction("abs", stdlib.AbsoluteFunc) })
}
