package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_AppliesBlocksInOrder(t *testing.T) {
	c := NewCursor(722)

	require.NoError(t, c.Apply(func(y float64) float64 { return y - 50 }))
	require.NoError(t, c.Apply(func(y float64) float64 { return y - 16 }))
	require.NoError(t, c.Skip(20))

	assert.Equal(t, 636.0, c.Y())
}

func TestCursor_AcceptsNoOpBlock(t *testing.T) {
	c := NewCursor(500)

	require.NoError(t, c.Apply(func(y float64) float64 { return y }))

	assert.Equal(t, 500.0, c.Y())
}

func TestCursor_RejectsUpwardMove(t *testing.T) {
	c := NewCursor(500)

	err := c.Apply(func(y float64) float64 { return y + 1 })

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCursorRegression))
	assert.Equal(t, 500.0, c.Y())
}

func TestCursor_RejectsNegativeSkip(t *testing.T) {
	c := NewCursor(500)

	err := c.Skip(-5)

	assert.ErrorIs(t, err, ErrCursorRegression)
	assert.Equal(t, 500.0, c.Y())
}

func TestCursor_CheckedBlockErrorLeavesPosition(t *testing.T) {
	c := NewCursor(300)
	boom := errors.New("boom")

	err := c.ApplyChecked(func(y float64) (float64, error) { return y - 30, boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 300.0, c.Y())
}
