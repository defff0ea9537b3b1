package arcade

import (
	"image"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/draw"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

// Window shows a cabinet's screen in a desktop window and reads the arrow
// keys as joystick input.
type Window struct {
	Joystick Joystick

	scale int
	delay time.Duration
	frame chan bool
}

// NewWindow returns a window drawing each tile as a scale×scale square.
// Each frame is shown for at least delay.
func NewWindow(scale int, delay time.Duration) *Window {
	return &Window{scale: scale, delay: delay, frame: make(chan bool, 1)}
}

// Attach makes c draw to the window each frame. If c has no controller
// the window's joystick is used.
func (w *Window) Attach(c *Cabinet) {
	c.Frame = w.Frame
	if c.Control == nil {
		c.Control = w.Joystick.Control
	}
}

// Frame asks the window to redraw and waits for the frame delay.
func (w *Window) Frame(*Screen) {
	select {
	case w.frame <- true:
	default:
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
}

// Run drives the window until it is closed or exit is closed, and then
// calls quit. It must be called from the main goroutine.
func (w *Window) Run(scr *Screen, exit <-chan bool, quit func()) {
	defer quit()
	driver.Main(func(s screen.Screen) {
		win, err := s.NewWindow(&screen.NewWindowOptions{Title: "ic arcade"})
		if err != nil {
			log.Printf("arcade: %v", err)
			return
		}
		defer win.Release()

		type update struct{}
		done := make(chan bool)
		defer close(done)
		go func() {
			for {
				select {
				case <-w.frame:
					win.Send(update{})
				case <-exit:
					win.Send(lifecycle.Event{To: lifecycle.StageDead})
					return
				case <-done:
					return
				}
			}
		}()

		var (
			sz  size.Event
			buf screen.Buffer
			tex screen.Texture
		)
		release := func() {
			if tex != nil {
				tex.Release()
			}
			if buf != nil {
				buf.Release()
			}
			tex, buf = nil, nil
		}
		defer release()

		for {
			switch e := win.NextEvent().(type) {
			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}

			case key.Event:
				if e.Direction != key.DirPress {
					break
				}
				switch e.Code {
				case key.CodeLeftArrow:
					w.Joystick.Tilt(Left)
				case key.CodeRightArrow:
					w.Joystick.Tilt(Right)
				case key.CodeEscape, key.CodeQ:
					return
				}

			case update, paint.Event:
				m := scr.Image(w.scale)
				if m.Bounds().Empty() {
					break
				}
				if tex == nil || tex.Size() != m.Bounds().Size() {
					release()
					if buf, err = s.NewBuffer(m.Bounds().Size()); err != nil {
						log.Printf("arcade: %v", err)
						return
					}
					if tex, err = s.NewTexture(m.Bounds().Size()); err != nil {
						log.Printf("arcade: %v", err)
						return
					}
				}
				copy(buf.RGBA().Pix, m.Pix)
				tex.Upload(image.Point{}, buf, buf.Bounds())
				win.Scale(sz.Bounds(), tex, tex.Bounds(), draw.Src, nil)
				win.Publish()

			case error:
				log.Print(e)
			}
		}
	})
}
