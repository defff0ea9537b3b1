package arcade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drawProg returns a program that outputs vals and halts.
func drawProg(vals ...int64) []int64 {
	var prog []int64
	for _, v := range vals {
		prog = append(prog, 104, v)
	}
	return append(prog, 99)
}

// joystickGame draws the paddle and the ball, reads the joystick and
// reports the position it read as the score.
var joystickGame = []int64{
	104, 1, 104, 2, 104, 3, // paddle at 1,2
	104, 3, 104, 1, 104, 4, // ball at 3,1
	3, 100,
	104, -1, 104, 0, 4, 100,
	99,
}

func run(t *testing.T, c *Cabinet) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- c.Run(context.Background()) }()
	select {
	case err := <-errc:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("timed out")
		return nil
	}
}

func TestCabinetDraw(t *testing.T) {
	c := New(drawProg(smallScreen...))
	require.NoError(t, run(t, c))
	assert.Equal(t, "###\n *B\n _ \n", c.Screen.String())
	assert.Equal(t, 1, c.Screen.Blocks())
	assert.EqualValues(t, 7, c.Screen.Score())
}

func TestCabinetAutopilot(t *testing.T) {
	c := New(joystickGame)
	c.Control = Autopilot
	var frames int
	c.Frame = func(*Screen) { frames++ }
	require.NoError(t, run(t, c))
	assert.EqualValues(t, Right, c.Screen.Score())
	assert.Equal(t, 1, frames)
}

func TestCabinetJoystick(t *testing.T) {
	var j Joystick
	j.Tilt(Left)
	c := New(joystickGame)
	c.Control = j.Control
	require.NoError(t, run(t, c))
	assert.EqualValues(t, Left, c.Screen.Score())
	assert.EqualValues(t, Neutral, j.Control(nil))
}

func TestCabinetNeutral(t *testing.T) {
	c := New(joystickGame)
	require.NoError(t, run(t, c))
	assert.EqualValues(t, Neutral, c.Screen.Score())
}

func TestCabinetQuarters(t *testing.T) {
	// With one quarter the first instruction adds 1+1; with two it
	// multiplies 2*2.
	prog := []int64{1, 0, 0, 100, 104, -1, 104, 0, 4, 100, 99}
	c := New(prog)
	require.NoError(t, run(t, c))
	assert.EqualValues(t, 2, c.Screen.Score())

	c = New(prog)
	c.Quarters(2)
	require.NoError(t, run(t, c))
	assert.EqualValues(t, 4, c.Screen.Score())
	assert.EqualValues(t, 1, prog[0], "program modified")
}

func TestCabinetErrors(t *testing.T) {
	assert.ErrorContains(t, run(t, New(drawProg(1, 1, 9))), "invalid tile 9")
	assert.ErrorIs(t, run(t, New(drawProg(1, 1))), ErrPartialTriple)
	assert.ErrorContains(t, run(t, New([]int64{104, 1, 77})), "invalid opcode")
}

func TestCabinetCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The game waits for a joystick position that never comes.
	err := New([]int64{3, 0, 99}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCabinetCancelMidTriple(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The ball is drawn, then half a triple, then the game waits for a
	// second joystick position that never comes.
	c := New([]int64{104, 1, 104, 1, 104, 4, 104, 2, 104, 2, 3, 100, 3, 100, 99})
	c.Frame = func(*Screen) { cancel() }
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrPartialTriple)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out")
	}
}

func TestAutopilot(t *testing.T) {
	s := NewScreen()
	assert.EqualValues(t, Neutral, Autopilot(s))
	require.NoError(t, s.Draw([]int64{5, 3, 4}))
	assert.EqualValues(t, Neutral, Autopilot(s))
	require.NoError(t, s.Draw([]int64{7, 4, 3}))
	assert.EqualValues(t, Left, Autopilot(s))
	require.NoError(t, s.Draw([]int64{5, 4, 3}))
	assert.EqualValues(t, Neutral, Autopilot(s))
	require.NoError(t, s.Draw([]int64{2, 4, 3}))
	assert.EqualValues(t, Right, Autopilot(s))
}
