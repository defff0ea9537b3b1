package arcade

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/nf/ic/pipe"
)

// Joystick positions.
const (
	Left    int64 = -1
	Neutral int64 = 0
	Right   int64 = 1
)

// A Controller chooses the joystick position for the next frame.
type Controller func(s *Screen) int64

// Autopilot moves the paddle towards the ball.
func Autopilot(s *Screen) int64 {
	ball, ok := s.Ball()
	if !ok {
		return Neutral
	}
	paddle, ok := s.Paddle()
	switch {
	case !ok:
		return Neutral
	case paddle.X < ball.X:
		return Right
	case paddle.X > ball.X:
		return Left
	}
	return Neutral
}

// Joystick holds a position set by a player. Each tilt lasts one frame.
type Joystick struct {
	pos atomic.Int64
}

func (j *Joystick) Tilt(pos int64) { j.pos.Store(pos) }

// Control returns the current position and recentres the joystick.
func (j *Joystick) Control(*Screen) int64 { return j.pos.Swap(Neutral) }

// ErrPartialTriple is returned if a game's output ends part way through
// a triple.
var ErrPartialTriple = errors.New("output ended part way through a triple")

// Cabinet runs a game program.
type Cabinet struct {
	Screen *Screen

	// Control is consulted each time the ball is drawn and its answer
	// sent to the joystick input. A nil Control leaves the joystick
	// centred.
	Control Controller

	// Frame, if set, is called each time the ball is drawn, before the
	// joystick position is chosen.
	Frame func(*Screen)

	program []int64
	opts    []pipe.Option
}

// New returns a cabinet with a blank screen that will run program.
func New(program []int64, opts ...pipe.Option) *Cabinet {
	return &Cabinet{
		Screen:  NewScreen(),
		program: append([]int64(nil), program...),
		opts:    opts,
	}
}

// Quarters inserts n quarters by setting the first memory cell of the
// program. Setting it to 2 plays for free.
func (c *Cabinet) Quarters(n int64) {
	if len(c.program) > 0 {
		c.program[0] = n
	}
}

// Run plays the game until the program halts or ctx is cancelled.
func (c *Cabinet) Run(ctx context.Context) error {
	g := pipe.NewGroup(ctx, c.opts...)
	joy, video := g.Connect("joystick"), g.Connect("video")
	g.Spawn("arcade", c.program, joy, video)
	err := c.play(ctx, joy, video)
	if err != nil {
		// Stop the machine if the screen gave up first.
		joy.Close()
		video.Close()
	}
	if werr := g.Wait(); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Cabinet) play(ctx context.Context, joy, video *pipe.Port) error {
	var t [3]int64
	for {
		for i := range t {
			v, err := video.Recv()
			if err != nil {
				if i > 0 {
					if ctx.Err() != nil {
						// Cancelled mid-frame.
						return ctx.Err()
					}
					return ErrPartialTriple
				}
				return nil
			}
			t[i] = v
		}
		if err := c.Screen.Set(t[0], t[1], t[2]); err != nil {
			return err
		}
		if Tile(t[2]) != Ball || (t[0] == scoreX && t[1] == scoreY) {
			continue
		}
		if c.Frame != nil {
			c.Frame(c.Screen)
		}
		pos := Neutral
		if c.Control != nil {
			pos = c.Control(c.Screen)
		}
		// The machine may already have halted; its remaining output is
		// still drawn.
		joy.Send(pos)
	}
}
