package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nf/ic/intcode"
)

func TestRunnerReset(t *testing.T) {
	in, out := NewPort("in"), NewPort("out")
	r := NewRunner("r", addOne, in, out)
	halts := make(chan error, 10)
	r.halted = func(err error) { halts <- err }
	r.Start()

	for _, v := range []int64{1, 10, -5} {
		require.NoError(t, in.Send(v))
		got, err := out.Recv()
		require.NoError(t, err)
		assert.Equal(t, v+1, got)
		require.NoError(t, r.Reset(addOne))
	}

	// A reset may load a different program; the ports carry over.
	require.NoError(t, in.Send(0))
	got, err := out.Recv()
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)
	require.NoError(t, r.Reset([]int64{104, 5, 99}))
	got, err = out.Recv()
	require.NoError(t, err)
	assert.EqualValues(t, 5, got)

	require.NoError(t, r.Quit())
	assert.Len(t, halts, 5)
	assert.False(t, in.Closed())
	assert.False(t, out.Closed())
}

func TestRunnerFault(t *testing.T) {
	in, out := NewPort("in"), NewPort("out")
	var faulted error
	r := NewRunner("bad", []int64{3, 0, 42}, in, out)
	r.halted = func(err error) { faulted = err }
	r.Start()
	require.NoError(t, in.Send(1))

	err := r.Quit()
	var f intcode.Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, intcode.InvalidOpcode, f.FaultCode)
	assert.Contains(t, err.Error(), "machine bad")
	assert.Equal(t, err, faulted)
}

func TestRunnerQuitAfterClose(t *testing.T) {
	in, out := NewPort("in"), NewPort("out")
	r := NewRunner("r", echo, in, out)
	r.Start()
	in.Close()
	assert.NoError(t, r.Quit())
}
