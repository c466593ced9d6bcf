package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCursor(t *testing.T) {
	c := NewCursor(0)

	assert.Equal(t, 0, c.Selected())
	assert.Equal(t, 0, c.Count())
	start, end := c.Visible()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestCursor_MoveWithinBounds(t *testing.T) {
	c := NewCursor(10)
	c.SetCount(3)

	assert.False(t, c.MoveUp())
	assert.True(t, c.MoveDown())
	assert.True(t, c.MoveDown())
	assert.False(t, c.MoveDown())
	assert.Equal(t, 2, c.Selected())
}

func TestCursor_Scrolls(t *testing.T) {
	c := NewCursor(3)
	c.SetCount(10)

	for range 5 {
		c.MoveDown()
	}

	start, end := c.Visible()
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	for range 5 {
		c.MoveUp()
	}
	start, end = c.Visible()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}

func TestCursor_SetCountClampsSelection(t *testing.T) {
	c := NewCursor(3)
	c.SetCount(10)
	c.SetSelected(9)

	c.SetCount(4)

	assert.Equal(t, 3, c.Selected())
	start, end := c.Visible()
	assert.Equal(t, 1, start)
	assert.Equal(t, 4, end)

	c.SetCount(0)
	assert.Equal(t, 0, c.Selected())
}

func TestCursor_SetSelectedIgnoresOutOfRange(t *testing.T) {
	c := NewCursor(3)
	c.SetCount(2)

	c.SetSelected(5)
	assert.Equal(t, 0, c.Selected())

	c.SetSelected(-1)
	assert.Equal(t, 0, c.Selected())
}

func TestCursor_Reset(t *testing.T) {
	c := NewCursor(2)
	c.SetCount(5)
	c.SetSelected(4)

	c.Reset()

	assert.Equal(t, 0, c.Selected())
	start, _ := c.Visible()
	assert.Equal(t, 0, start)
}
