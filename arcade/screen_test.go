package arcade

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallScreen is a 3×3 screen with a wall along the top, the ball and a
// block in the middle row, and the paddle below the ball.
var smallScreen = []int64{
	0, 0, 1, 1, 0, 1, 2, 0, 1,
	0, 1, 0, 1, 1, 4, 2, 1, 2,
	1, 2, 3,
	-1, 0, 7,
}

func TestScreenDraw(t *testing.T) {
	s := NewScreen()
	require.NoError(t, s.Draw(smallScreen))

	assert.Equal(t, "###\n *B\n _ \n", s.String())
	assert.Equal(t, image.Rect(0, 0, 3, 3), s.Bounds())
	assert.Equal(t, 1, s.Blocks())
	assert.EqualValues(t, 7, s.Score())
	assert.Equal(t, Block, s.At(2, 1))
	assert.Equal(t, Empty, s.At(9, 9))

	ball, ok := s.Ball()
	assert.True(t, ok)
	assert.Equal(t, image.Pt(1, 1), ball)
	paddle, ok := s.Paddle()
	assert.True(t, ok)
	assert.Equal(t, image.Pt(1, 2), paddle)

	// Breaking the block leaves an empty tile.
	require.NoError(t, s.Set(2, 1, int64(Empty)))
	assert.Equal(t, 0, s.Blocks())
	require.NoError(t, s.Set(scoreX, scoreY, 107))
	assert.EqualValues(t, 107, s.Score())
}

func TestScreenEmpty(t *testing.T) {
	s := NewScreen()
	assert.Equal(t, "", s.String())
	_, ok := s.Ball()
	assert.False(t, ok)
	_, ok = s.Paddle()
	assert.False(t, ok)
	assert.Equal(t, image.Rect(0, 0, 0, ScoreHeight), s.Image(4).Bounds())
}

func TestScreenErrors(t *testing.T) {
	s := NewScreen()
	assert.ErrorContains(t, s.Set(1, 2, 5), "invalid tile 5 at 1,2")
	assert.ErrorContains(t, s.Set(1, 2, -1), "invalid tile")
	assert.Error(t, s.Draw([]int64{0, 0}))
	assert.Equal(t, 0, len(s.String()))
}

func TestScreenImage(t *testing.T) {
	s := NewScreen()
	require.NoError(t, s.Draw(smallScreen))
	const scale = 4
	m := s.Image(scale)
	require.Equal(t, image.Rect(0, 0, 3*scale, 3*scale+ScoreHeight), m.Bounds())
	for _, c := range []struct {
		x, y int
		t    Tile
	}{
		{0, 0, Wall},
		{1, 1, Ball},
		{2, 1, Block},
		{1, 2, Paddle},
		{0, 2, Empty},
	} {
		px := m.RGBAAt(c.x*scale+scale/2, ScoreHeight+c.y*scale+scale/2)
		assert.Equal(t, tileColors[c.t], px, "tile %d,%d", c.x, c.y)
	}

	// The score line is drawn in white on the background colour.
	var lit int
	for y := 0; y < ScoreHeight; y++ {
		for x := 0; x < m.Bounds().Dx(); x++ {
			if m.RGBAAt(x, y) != tileColors[Empty] {
				lit++
			}
		}
	}
	assert.NotZero(t, lit)
}

func TestTile(t *testing.T) {
	assert.Equal(t, "paddle", Paddle.String())
	assert.Equal(t, "tile(9)", Tile(9).String())
	assert.Equal(t, '*', Ball.Rune())
	assert.Equal(t, '?', Tile(-2).Rune())
	assert.False(t, Tile(5).Valid())
}
