package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manual runs jobs only when told to.
type manual struct {
	jobs []func()
	err  error
}

func (m *manual) Submit(job func()) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func TestFuture_TakeOnce(t *testing.T) {
	m := &manual{}
	f, err := Submit(m, func() float64 { return 1.5 })
	require.NoError(t, err)

	assert.False(t, f.Ready())
	_, ok := f.Take()
	assert.False(t, ok, "not ready yet")

	m.jobs[0]()
	assert.True(t, f.Ready())
	<-f.Done()

	v, ok := f.Take()
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = f.Take()
	assert.False(t, ok, "value is consumed")
}

func TestSubmit_PropagatesRejection(t *testing.T) {
	rejected := errors.New("closed")
	_, err := Submit(&manual{err: rejected}, func() int { return 1 })
	assert.ErrorIs(t, err, rejected)
}
