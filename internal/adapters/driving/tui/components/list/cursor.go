// Package list provides list navigation components for the TUI.
package list

// Cursor tracks a selected row within a scrolling window of rows.
type Cursor struct {
	selected int
	offset   int
	count    int
	height   int
}

// NewCursor creates a cursor over count rows showing height at a time.
func NewCursor(height int) *Cursor {
	if height < 1 {
		height = 1
	}
	return &Cursor{height: height}
}

// SetCount updates the number of rows, keeping the selection in range.
func (c *Cursor) SetCount(count int) {
	c.count = count
	if c.selected >= count {
		c.selected = count - 1
	}
	if c.selected < 0 {
		c.selected = 0
	}
	c.scroll()
}

// SetHeight sets how many rows are visible at once.
func (c *Cursor) SetHeight(height int) {
	if height < 1 {
		height = 1
	}
	c.height = height
	c.scroll()
}

// Count returns the number of rows.
func (c *Cursor) Count() int {
	return c.count
}

// Selected returns the index of the selected row.
func (c *Cursor) Selected() int {
	return c.selected
}

// SetSelected selects row index if it exists.
func (c *Cursor) SetSelected(index int) {
	if index >= 0 && index < c.count {
		c.selected = index
		c.scroll()
	}
}

// MoveUp moves selection up. It reports whether the selection changed.
func (c *Cursor) MoveUp() bool {
	if c.selected == 0 {
		return false
	}
	c.selected--
	c.scroll()
	return true
}

// MoveDown moves selection down. It reports whether the selection changed.
func (c *Cursor) MoveDown() bool {
	if c.selected >= c.count-1 {
		return false
	}
	c.selected++
	c.scroll()
	return true
}

// Visible returns the half-open range of rows to render.
func (c *Cursor) Visible() (start, end int) {
	end = c.offset + c.height
	if end > c.count {
		end = c.count
	}
	return c.offset, end
}

// Reset moves the selection back to the first row.
func (c *Cursor) Reset() {
	c.selected = 0
	c.offset = 0
}

func (c *Cursor) scroll() {
	if c.selected < c.offset {
		c.offset = c.selected
	}
	if c.selected >= c.offset+c.height {
		c.offset = c.selected - c.height + 1
	}
	if maxOffset := c.count - c.height; c.offset > maxOffset {
		c.offset = max(maxOffset, 0)
	}
}
