package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinate_IndexRoundTrip(t *testing.T) {
	const width = 7
	for idx := 0; idx < width*5; idx++ {
		c := FromIndex(idx, width)
		assert.Equal(t, idx, c.ToIndex(width))
	}
}

func TestCoordinate_IsValid(t *testing.T) {
	tests := []struct {
		c        Coordinate
		expected bool
	}{
		{Coordinate{0, 0}, true},
		{Coordinate{9, 4}, true},
		{Coordinate{10, 0}, false},
		{Coordinate{0, 5}, false},
		{Coordinate{-1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.c.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.c.IsValid(10, 5))
		})
	}
}

func TestCoordinate_Distances(t *testing.T) {
	a := NewCoordinate(1, 1)
	b := NewCoordinate(4, 5)

	assert.Equal(t, 4, a.ChebyshevDistance(b))
	assert.Equal(t, 4, b.ChebyshevDistance(a))
	assert.InDelta(t, 5.0, a.EuclideanDistance(b), 1e-9)
	assert.Zero(t, a.ChebyshevDistance(a))
}

func TestCoordinate_IsAdjacentTo(t *testing.T) {
	c := NewCoordinate(3, 3)

	for _, n := range c.Neighbors() {
		assert.True(t, c.IsAdjacentTo(n), "%s should be adjacent to %s", n, c)
	}
	assert.False(t, c.IsAdjacentTo(c))
	assert.False(t, c.IsAdjacentTo(NewCoordinate(5, 3)))
	assert.False(t, c.IsAdjacentTo(NewCoordinate(1, 1)))
}

func TestCoordinate_ValidNeighbors(t *testing.T) {
	assert.Len(t, NewCoordinate(0, 0).ValidNeighbors(3, 3), 3)
	assert.Len(t, NewCoordinate(1, 1).ValidNeighbors(3, 3), 8)
	assert.Len(t, NewCoordinate(1, 0).ValidNeighbors(3, 3), 5)
	assert.Empty(t, NewCoordinate(0, 0).ValidNeighbors(1, 1))
}

func TestCoordinate_String(t *testing.T) {
	assert.Equal(t, "(3,-2)", NewCoordinate(3, -2).String())
}
