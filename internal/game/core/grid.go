package core

import (
	"math"
	"math/rand"
)

// Grid is the fixed-size cell matrix of one match, stored row-major.
type Grid struct {
	W, H int
	C    []Cell // length = W*H
}

// NewGrid returns a grid where every cell is unowned water.
func NewGrid(w, h int) *Grid {
	g := &Grid{W: w, H: h, C: make([]Cell, w*h)}
	for i := range g.C {
		g.C[i].X, g.C[i].Y = g.XY(i)
	}
	return g
}

// NewLandGrid returns a grid where every cell is unowned land.
func NewLandGrid(w, h int) *Grid {
	g := NewGrid(w, h)
	for i := range g.C {
		g.C[i].Type = Land
	}
	return g
}

func (g *Grid) Idx(x, y int) int      { return y*g.W + x }
func (g *Grid) XY(idx int) (int, int) { return idx % g.W, idx / g.W }

// InBounds checks if coordinates are within grid boundaries
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// GetCell safely returns a cell pointer if coordinates are valid, nil otherwise
func (g *Grid) GetCell(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.C[g.Idx(x, y)]
}

// Neighbors returns the in-bounds cells around (x,y). With includeDiagonals
// the result is 8-connected, otherwise 4-connected.
func (g *Grid) Neighbors(x, y int, includeDiagonals bool) []*Cell {
	out := make([]*Cell, 0, 8)
	for _, off := range neighborOffsets {
		if !includeDiagonals && off.X != 0 && off.Y != 0 {
			continue
		}
		nx, ny := x+off.X, y+off.Y
		if g.InBounds(nx, ny) {
			out = append(out, &g.C[g.Idx(nx, ny)])
		}
	}
	return out
}

// Adjacent returns the 8-connected neighbours used by every game rule.
func (g *Grid) Adjacent(x, y int) []*Cell {
	return g.Neighbors(x, y, true)
}

// IsAdjacentToPlayer reports whether any neighbour of (x,y) is owned by actorID.
func (g *Grid) IsAdjacentToPlayer(x, y int, actorID string) bool {
	for _, n := range g.Adjacent(x, y) {
		if n.OwnedBy(actorID) {
			return true
		}
	}
	return false
}

// IsCoastal reports whether any neighbour of (x,y) is water.
func (g *Grid) IsCoastal(x, y int) bool {
	for _, n := range g.Adjacent(x, y) {
		if n.Type == Water {
			return true
		}
	}
	return false
}

// PlayerCells returns every cell owned by actorID.
func (g *Grid) PlayerCells(actorID string) []*Cell {
	var out []*Cell
	for i := range g.C {
		if g.C[i].OwnedBy(actorID) {
			out = append(out, &g.C[i])
		}
	}
	return out
}

// CountLand returns the number of land cells.
func (g *Grid) CountLand() int {
	n := 0
	for i := range g.C {
		if g.C[i].Type == Land {
			n++
		}
	}
	return n
}

// OwnedCounts returns the number of owned land cells per actor.
func (g *Grid) OwnedCounts() map[string]int {
	counts := make(map[string]int)
	for i := range g.C {
		c := &g.C[i]
		if c.Type == Land && c.IsOwned() {
			counts[c.Owner]++
		}
	}
	return counts
}

// CheckAreaFree reports whether no cell within the Chebyshev radius of
// (x,y) is owned.
func (g *Grid) CheckAreaFree(x, y, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			c := g.GetCell(x+dx, y+dy)
			if c != nil && c.IsOwned() {
				return false
			}
		}
	}
	return true
}

// PlacePlayerBase claims every unowned land cell within Euclidean distance
// radius of (x,y) for actorID and splits startingTroops evenly across them.
// The caller is responsible for checking that the actor has not placed yet.
func (g *Grid) PlacePlayerBase(x, y int, actorID string, radius int, startingTroops float64) []*Cell {
	center := Coordinate{X: x, Y: y}
	r := float64(radius)

	var claimed []*Cell
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			c := g.GetCell(x+dx, y+dy)
			if c == nil || c.Type != Land || c.IsOwned() {
				continue
			}
			if center.EuclideanDistance(c.Coord()) > r {
				continue
			}
			claimed = append(claimed, c)
		}
	}
	if len(claimed) == 0 {
		return nil
	}

	per := startingTroops / float64(len(claimed))
	for _, c := range claimed {
		c.Owner = actorID
		c.Troops = per
		c.Building = BuildingNone
	}
	return claimed
}

// FindStartPosition samples random land cells until one is unowned with a
// free area of the given radius. It returns false after attempts failures.
func (g *Grid) FindStartPosition(rng *rand.Rand, radius, attempts int) (Coordinate, bool) {
	for i := 0; i < attempts; i++ {
		x, y := rng.Intn(g.W), rng.Intn(g.H)
		c := g.GetCell(x, y)
		if c.Type != Land || c.IsOwned() {
			continue
		}
		if g.CheckAreaFree(x, y, radius) {
			return Coordinate{X: x, Y: y}, true
		}
	}
	return Coordinate{}, false
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cp := &Grid{W: g.W, H: g.H, C: make([]Cell, len(g.C))}
	copy(cp.C, g.C)
	return cp
}

// SyncCell copies cell idx from src into g. It keeps a diff baseline
// current for cells that have already been broadcast.
func (g *Grid) SyncCell(src *Grid, idx int) {
	g.C[idx] = src.C[idx]
}

// CellChange is the wire form of one changed cell.
type CellChange struct {
	X        int          `json:"x"`
	Y        int          `json:"y"`
	Owner    string       `json:"owner"`
	Troops   float64      `json:"troops"`
	Building BuildingType `json:"building"`
}

// ChangeOf returns the wire form of cell idx.
func (g *Grid) ChangeOf(idx int) CellChange {
	c := &g.C[idx]
	return CellChange{X: c.X, Y: c.Y, Owner: c.Owner, Troops: roundTroops(c.Troops), Building: c.Building}
}

// Differs reports whether cell idx of g differs from prev by owner,
// building, or a troop delta larger than epsilon.
func (g *Grid) Differs(prev *Grid, idx int, epsilon float64) bool {
	a, b := &g.C[idx], &prev.C[idx]
	if a.Owner != b.Owner || a.Building != b.Building {
		return true
	}
	return math.Abs(a.Troops-b.Troops) > epsilon
}

// Changes returns the cells that differ from prev. A nil prev, or one of a
// different shape, reports every cell.
func (g *Grid) Changes(prev *Grid, epsilon float64) []CellChange {
	if prev == nil || prev.W != g.W || prev.H != g.H {
		out := make([]CellChange, 0, len(g.C))
		for i := range g.C {
			out = append(out, g.ChangeOf(i))
		}
		return out
	}
	var out []CellChange
	for i := range g.C {
		if g.Differs(prev, i, epsilon) {
			out = append(out, g.ChangeOf(i))
		}
	}
	return out
}

// ChangedIndices is Changes returning indices instead of wire records.
func (g *Grid) ChangedIndices(prev *Grid, epsilon float64) []int {
	var out []int
	for i := range g.C {
		if g.Differs(prev, i, epsilon) {
			out = append(out, i)
		}
	}
	return out
}

func roundTroops(v float64) float64 {
	return math.Round(v*10) / 10
}
