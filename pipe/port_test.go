package pipe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortFIFO(t *testing.T) {
	p := NewPort("p")
	for _, v := range []int64{3, 1, 4, 1, 5} {
		require.NoError(t, p.Send(v))
	}
	assert.Equal(t, 5, p.Len())
	for _, want := range []int64{3, 1, 4, 1, 5} {
		v, err := p.Recv()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 0, p.Len())
	assert.EqualValues(t, 5, p.Sent())
}

func TestPortCloseDrains(t *testing.T) {
	p := NewPort("p")
	require.NoError(t, p.Send(7))
	p.Close()
	p.Close()
	assert.True(t, p.Closed())

	err := p.Send(8)
	assert.ErrorIs(t, err, ErrClosed)

	v, err := p.Recv()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)

	_, err = p.Recv()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Contains(t, err.Error(), "p")
}

func TestPortRecvBlocks(t *testing.T) {
	p := NewPort("p")
	got := make(chan int64)
	go func() {
		v, _ := p.Recv()
		got <- v
	}()
	select {
	case <-got:
		t.Fatal("Recv returned before Send")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, p.Send(42))
	select {
	case v := <-got:
		assert.EqualValues(t, 42, v)
	case <-time.After(5 * time.Second):
		t.Fatal("Recv did not return after Send")
	}
}

func TestPortCloseWakesReceiver(t *testing.T) {
	p := NewPort("p")
	errc := make(chan error)
	go func() {
		_, err := p.Recv()
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	p.Close()
	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, ErrClosed))
	case <-time.After(5 * time.Second):
		t.Fatal("Recv did not return after Close")
	}
}

func TestPortTryRecv(t *testing.T) {
	p := NewPort("p")
	_, ok, err := p.TryRecv()
	assert.False(t, ok)
	assert.NoError(t, err)

	require.NoError(t, p.Send(1))
	v, ok, err := p.TryRecv()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, v)

	p.Close()
	_, ok, err = p.TryRecv()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrClosed)
}
