// Package arcade runs intcode arcade cabinets: programs that draw a tile
// screen by outputting (x, y, tile) triples and read a joystick position.
package arcade

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Tile int64

const (
	Empty Tile = iota
	Wall
	Block
	Paddle
	Ball
)

var tileRunes = [...]rune{
	Empty:  ' ',
	Wall:   '#',
	Block:  'B',
	Paddle: '_',
	Ball:   '*',
}

var tileColors = [...]color.RGBA{
	Empty:  {0x10, 0x10, 0x18, 0xff},
	Wall:   {0x80, 0x80, 0x90, 0xff},
	Block:  {0xd0, 0x60, 0x30, 0xff},
	Paddle: {0x40, 0xc0, 0x40, 0xff},
	Ball:   {0xf0, 0xf0, 0xf0, 0xff},
}

func (t Tile) Valid() bool { return t >= Empty && t <= Ball }

func (t Tile) Rune() rune {
	if !t.Valid() {
		return '?'
	}
	return tileRunes[t]
}

func (t Tile) String() string {
	switch t {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Block:
		return "block"
	case Paddle:
		return "paddle"
	case Ball:
		return "ball"
	}
	return fmt.Sprintf("tile(%d)", int64(t))
}

// A triple with these coordinates sets the score instead of a tile.
const scoreX, scoreY = -1, 0

// Screen is the display of an arcade cabinet.
// It is safe for concurrent use.
type Screen struct {
	mu     sync.Mutex
	tiles  map[image.Point]Tile
	bounds image.Rectangle
	score  int64
	ball   image.Point
	paddle image.Point
	seen   [Ball + 1]bool
}

func NewScreen() *Screen {
	return &Screen{tiles: make(map[image.Point]Tile)}
}

// Set applies one output triple: it draws tile v at (x, y), or sets the
// score to v if (x, y) is (-1, 0).
func (s *Screen) Set(x, y, v int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x == scoreX && y == scoreY {
		s.score = v
		return nil
	}
	t := Tile(v)
	if !t.Valid() {
		return fmt.Errorf("invalid tile %d at %d,%d", v, x, y)
	}
	p := image.Pt(int(x), int(y))
	s.tiles[p] = t
	s.bounds = s.bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	switch t {
	case Ball:
		s.ball = p
	case Paddle:
		s.paddle = p
	}
	s.seen[t] = true
	return nil
}

// Draw applies a sequence of output triples.
func (s *Screen) Draw(vals []int64) error {
	if len(vals)%3 != 0 {
		return fmt.Errorf("%d values is not a whole number of triples", len(vals))
	}
	for i := 0; i < len(vals); i += 3 {
		if err := s.Set(vals[i], vals[i+1], vals[i+2]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Screen) At(x, y int) Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tiles[image.Pt(x, y)]
}

// Bounds returns the smallest rectangle containing every drawn tile.
func (s *Screen) Bounds() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// Blocks returns the number of block tiles on the screen.
func (s *Screen) Blocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tiles {
		if t == Block {
			n++
		}
	}
	return n
}

// Ball returns the position at which the ball was last drawn.
func (s *Screen) Ball() (image.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ball, s.seen[Ball]
}

// Paddle returns the position at which the paddle was last drawn.
func (s *Screen) Paddle() (image.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paddle, s.seen[Paddle]
}

func (s *Screen) Score() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// String renders the screen as text, one line per row.
func (s *Screen) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for y := s.bounds.Min.Y; y < s.bounds.Max.Y; y++ {
		for x := s.bounds.Min.X; x < s.bounds.Max.X; x++ {
			b.WriteRune(s.tiles[image.Pt(x, y)].Rune())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ScoreHeight is the height in pixels of the score line at the top of
// an image returned by Image.
const ScoreHeight = 16

// Image renders the screen with each tile drawn as a scale×scale square,
// below a line showing the score.
func (s *Screen) Image(scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	s.mu.Lock()
	var (
		r     = s.bounds
		tiles = image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		score = s.score
	)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			tiles.SetRGBA(x-r.Min.X, y-r.Min.Y, tileColors[s.tiles[image.Pt(x, y)]])
		}
	}
	s.mu.Unlock()

	m := image.NewRGBA(image.Rect(0, 0, r.Dx()*scale, r.Dy()*scale+ScoreHeight))
	draw.Draw(m, m.Bounds(), image.NewUniform(tileColors[Empty]), image.Point{}, draw.Src)
	dr := image.Rect(0, ScoreHeight, r.Dx()*scale, ScoreHeight+r.Dy()*scale)
	draw.NearestNeighbor.Scale(m, dr, tiles, tiles.Bounds(), draw.Src, nil)

	d := font.Drawer{
		Dst:  m,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, 12),
	}
	d.DrawString(fmt.Sprintf("SCORE %d", score))
	return m
}
