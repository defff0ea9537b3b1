// Package robot runs intcode hull painting robots: programs that read the
// colour of the panel under the robot and answer with a colour to paint
// and a direction to turn.
package robot

import (
	"fmt"
	"image"
	"strings"
)

type Color int64

const (
	Black Color = iota
	White
)

func (c Color) Valid() bool { return c == Black || c == White }

func (c Color) Rune() rune {
	if c == White {
		return '#'
	}
	return ' '
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return fmt.Sprintf("color(%d)", int64(c))
}

// Hull is a grid of panels. Panels that were never painted are black.
type Hull struct {
	panels map[image.Point]Color
	bounds image.Rectangle
}

func NewHull() *Hull {
	return &Hull{panels: make(map[image.Point]Color)}
}

// Paint sets the colour of the panel at p.
func (h *Hull) Paint(p image.Point, c Color) {
	h.panels[p] = c
	r := image.Rect(p.X, p.Y, p.X+1, p.Y+1)
	if len(h.panels) == 1 {
		h.bounds = r
	} else {
		h.bounds = h.bounds.Union(r)
	}
}

// At returns the colour of the panel at p.
func (h *Hull) At(p image.Point) Color { return h.panels[p] }

// Painted returns the number of panels painted at least once.
func (h *Hull) Painted() int { return len(h.panels) }

// Bounds returns the smallest rectangle holding every painted panel.
func (h *Hull) Bounds() image.Rectangle { return h.bounds }

// String renders the painted part of the hull, white panels as '#'.
func (h *Hull) String() string {
	var b strings.Builder
	for y := h.bounds.Min.Y; y < h.bounds.Max.Y; y++ {
		for x := h.bounds.Min.X; x < h.bounds.Max.X; x++ {
			b.WriteRune(h.panels[image.Pt(x, y)].Rune())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
