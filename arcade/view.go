package arcade

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

var tileStyles = [...]tcell.Style{
	Empty:  tcell.StyleDefault,
	Wall:   tcell.StyleDefault.Foreground(tcell.ColorDarkGrey),
	Block:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
	Paddle: tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true),
	Ball:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true),
}

// View draws a cabinet's screen on a terminal and reads the arrow keys
// as joystick input.
type View struct {
	Joystick Joystick

	s     tcell.Screen
	delay time.Duration
}

// NewView returns a view drawing to s, which must already be initialised.
// Each frame is shown for at least delay.
func NewView(s tcell.Screen, delay time.Duration) *View {
	return &View{s: s, delay: delay}
}

// Attach makes c draw to the view each frame. If c has no controller the
// view's joystick is used.
func (v *View) Attach(c *Cabinet) {
	c.Frame = v.Frame
	if c.Control == nil {
		c.Control = v.Joystick.Control
	}
}

// Frame draws scr and waits for the frame delay.
func (v *View) Frame(scr *Screen) {
	v.Draw(scr)
	if v.delay > 0 {
		time.Sleep(v.delay)
	}
}

// Draw renders scr with the score on the first line.
func (v *View) Draw(scr *Screen) {
	v.s.Clear()
	v.text(0, 0, tcell.StyleDefault.Bold(true), fmt.Sprintf("SCORE %d", scr.Score()))
	r := scr.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			t := scr.At(x, y)
			v.s.SetContent(x-r.Min.X, y-r.Min.Y+1, t.Rune(), nil, tileStyles[t])
		}
	}
	v.s.Show()
}

func (v *View) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		v.s.SetContent(x, y, r, nil, style)
		x++
	}
}

// Poll handles key events until the player quits, then calls quit.
// Left and right arrows tilt the joystick; Escape, q and Ctrl-C quit.
func (v *View) Poll(quit func()) {
	for {
		switch ev := v.s.PollEvent().(type) {
		case nil:
			// Screen finalized.
			return
		case *tcell.EventResize:
			v.s.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyLeft:
				v.Joystick.Tilt(Left)
			case tcell.KeyRight:
				v.Joystick.Tilt(Right)
			case tcell.KeyEscape, tcell.KeyCtrlC:
				quit()
				return
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q':
					quit()
					return
				case 'a', 'h':
					v.Joystick.Tilt(Left)
				case 'd', 'l':
					v.Joystick.Tilt(Right)
				}
			}
		}
	}
}
