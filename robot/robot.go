package robot

import (
	"context"
	"fmt"
	"image"

	"github.com/nf/ic/pipe"
)

// Dir is the way the robot faces. Up is towards negative y.
type Dir int

const (
	Up Dir = iota
	Right
	Down
	Left
)

var dirSteps = [...]image.Point{
	Up:    {0, -1},
	Right: {1, 0},
	Down:  {0, 1},
	Left:  {-1, 0},
}

func (d Dir) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("dir(%d)", int(d))
}

// Turn commands.
const (
	TurnLeft  int64 = 0
	TurnRight int64 = 1
)

// Turn returns the direction after the turn command t.
func (d Dir) Turn(t int64) (Dir, error) {
	switch t {
	case TurnLeft:
		return (d + 3) % 4, nil
	case TurnRight:
		return (d + 1) % 4, nil
	}
	return d, fmt.Errorf("invalid turn %d", t)
}

// Robot runs a painting program over a hull. It starts at the origin,
// facing up.
type Robot struct {
	Hull *Hull
	Pos  image.Point
	Dir  Dir

	// Moves counts the panels the robot has moved.
	Moves int

	program []int64
	opts    []pipe.Option
}

// New returns a robot that will run program, standing on a panel of
// the start colour.
func New(program []int64, start Color, opts ...pipe.Option) *Robot {
	r := &Robot{
		Hull:    NewHull(),
		program: program,
		opts:    opts,
	}
	r.Hull.Paint(r.Pos, start)
	return r
}

// Run paints until the program halts or ctx is cancelled.
func (r *Robot) Run(ctx context.Context) error {
	g := pipe.NewGroup(ctx, r.opts...)
	camera, cmds := g.Connect("camera"), g.Connect("commands")
	g.Spawn("robot", r.program, camera, cmds)
	err := r.paint(camera, cmds)
	if err != nil {
		camera.Close()
		cmds.Close()
	}
	if werr := g.Wait(); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// paint shows the machine the panel under the robot and carries out its
// commands. It stops without error once the machine stops answering.
func (r *Robot) paint(camera, cmds *pipe.Port) error {
	for {
		if camera.Send(int64(r.Hull.At(r.Pos))) != nil {
			return nil
		}
		c, err := cmds.Recv()
		if err != nil {
			return nil
		}
		if !Color(c).Valid() {
			return fmt.Errorf("invalid color %d at %d,%d", c, r.Pos.X, r.Pos.Y)
		}
		r.Hull.Paint(r.Pos, Color(c))
		t, err := cmds.Recv()
		if err != nil {
			return nil
		}
		if r.Dir, err = r.Dir.Turn(t); err != nil {
			return fmt.Errorf("%w at %d,%d", err, r.Pos.X, r.Pos.Y)
		}
		r.Pos = r.Pos.Add(dirSteps[r.Dir])
		r.Moves++
	}
}
