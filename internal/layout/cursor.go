package layout

import (
	"errors"
	"fmt"
)

// Page is the fixed canvas size in points.
type Page struct {
	Width  float64
	Height float64
}

// A4 is the page size every report uses.
var A4 = Page{Width: 595, Height: 842}

// ErrCursorRegression is returned when a block moves the cursor upwards.
var ErrCursorRegression = errors.New("cursor regression")

// Block draws content at y and returns the position below it.
type Block func(y float64) float64

// CheckedBlock is a Block whose drawing can fail.
type CheckedBlock func(y float64) (float64, error)

// Cursor owns the vertical position of one composition.
//
// Blocks never mutate the position themselves; Cursor applies them in
// sequence and enforces that the position only moves down the page.
type Cursor struct {
	y float64
}

// NewCursor creates a cursor at the given starting position.
func NewCursor(start float64) *Cursor {
	return &Cursor{y: start}
}

// Y returns the current position.
func (c *Cursor) Y() float64 {
	return c.y
}

// Apply runs b at the current position and advances to the position it returns.
// A block that returns the same position drew nothing and is accepted.
func (c *Cursor) Apply(b Block) error {
	return c.advance(b(c.y))
}

// ApplyChecked is Apply for blocks that can fail. On error the position is unchanged.
func (c *Cursor) ApplyChecked(b CheckedBlock) error {
	next, err := b(c.y)
	if err != nil {
		return err
	}
	return c.advance(next)
}

// Skip consumes a fixed vertical gap.
func (c *Cursor) Skip(gap float64) error {
	if gap < 0 {
		return fmt.Errorf("%w: negative gap %.2f", ErrCursorRegression, gap)
	}
	return c.advance(c.y - gap)
}

func (c *Cursor) advance(next float64) error {
	if next > c.y {
		return fmt.Errorf("%w: %.2f -> %.2f", ErrCursorRegression, c.y, next)
	}
	c.y = next
	return nil
}
