package pipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalEcho(t *testing.T) {
	g := NewGroup(context.Background())
	in, out := g.Connect("in"), g.Connect("out")
	g.Spawn("echo", echo, in, out)
	term := NewTerminal(in, out)

	require.NoError(t, term.SendLine("hello, world"))
	line, err := term.RecvLine()
	require.NoError(t, err)
	assert.Equal(t, "hello, world", line)

	require.NoError(t, term.SendString("ok"))
	require.NoError(t, term.Send(1000))
	line, err = term.RecvLine()
	ne, ok := IsNonASCII(err)
	require.True(t, ok, "got error %v", err)
	assert.EqualValues(t, 1000, ne.Value)
	assert.Equal(t, "ok", ne.Text)
	assert.Equal(t, "ok", line)

	require.NoError(t, term.Send(7, 8))
	v, err := term.Recv()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)

	in.Close()
	assert.Equal(t, []int64{8}, term.RecvAll())
	require.NoError(t, g.Wait())
	assert.ErrorIs(t, term.Send(1), ErrClosed)
}

func TestTerminalRecvLineClosed(t *testing.T) {
	out := NewPort("out")
	for _, c := range "partial" {
		require.NoError(t, out.Send(int64(c)))
	}
	out.Close()
	line, err := NewTerminal(nil, out).RecvLine()
	assert.Equal(t, "partial", line)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTerminalRecvAvailable(t *testing.T) {
	out := NewPort("out")
	term := NewTerminal(nil, out)
	assert.Empty(t, term.RecvAvailable())
	require.NoError(t, out.Send(1))
	require.NoError(t, out.Send(2))
	assert.Equal(t, []int64{1, 2}, term.RecvAvailable())
	assert.Empty(t, term.RecvAvailable())
}

func TestDecodeASCII(t *testing.T) {
	s, err := DecodeASCII([]int64{72, 105, 10})
	require.NoError(t, err)
	assert.Equal(t, "Hi\n", s)

	s, err = DecodeASCII([]int64{72, 200, 105})
	assert.Equal(t, "H", s)
	assert.Equal(t, NonASCIIError{Value: 200, Text: "H"}, err)
	assert.EqualError(t, err, "non-ASCII output 200")

	_, err = DecodeASCII([]int64{-1})
	_, ok := IsNonASCII(err)
	assert.True(t, ok)
}
