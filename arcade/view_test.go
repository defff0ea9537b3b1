package arcade

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(20, 6)
	t.Cleanup(s.Fini)
	return s
}

func row(s tcell.SimulationScreen, y, n int) string {
	cells, w, _ := s.GetContents()
	var r []rune
	for x := 0; x < n; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			r = append(r, ' ')
			continue
		}
		r = append(r, c.Runes[0])
	}
	return string(r)
}

func TestViewDraw(t *testing.T) {
	sim := newSimScreen(t)
	scr := NewScreen()
	require.NoError(t, scr.Draw(smallScreen))

	v := NewView(sim, 0)
	v.Draw(scr)
	assert.Equal(t, "SCORE 7", row(sim, 0, 7))
	assert.Equal(t, "###", row(sim, 1, 3))
	assert.Equal(t, " *B", row(sim, 2, 3))
	assert.Equal(t, " _ ", row(sim, 3, 3))
}

func TestViewPoll(t *testing.T) {
	sim := newSimScreen(t)
	v := NewView(sim, 0)
	quit := make(chan bool)
	go v.Poll(func() { close(quit) })

	sim.InjectKey(tcell.KeyLeft, 0, tcell.ModNone)
	assert.Eventually(t, func() bool { return v.Joystick.pos.Load() == Left },
		5*time.Second, time.Millisecond)
	assert.EqualValues(t, Left, v.Joystick.Control(nil))

	sim.InjectKey(tcell.KeyRune, 'l', tcell.ModNone)
	assert.Eventually(t, func() bool { return v.Joystick.pos.Load() == Right },
		5*time.Second, time.Millisecond)

	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case <-quit:
	case <-time.After(5 * time.Second):
		t.Fatal("q did not quit")
	}
}

func TestViewAttach(t *testing.T) {
	sim := newSimScreen(t)
	v := NewView(sim, 0)
	v.Joystick.Tilt(Right)
	c := New(joystickGame)
	v.Attach(c)
	require.NoError(t, run(t, c))
	assert.EqualValues(t, Right, c.Screen.Score())
	// The frame was drawn when the ball appeared, before the score.
	assert.Equal(t, "SCORE 0", row(sim, 0, 7))
}
