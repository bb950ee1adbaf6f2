package testutil

import (
	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

// FillOwner assigns every land cell in the rectangle to owner with troops each.
func FillOwner(grid *core.Grid, x0, y0, x1, y1 int, owner string, troops float64) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c := grid.GetCell(x, y)
			if c == nil || c.Type != core.Land {
				continue
			}
			c.Owner = owner
			c.Troops = troops
		}
	}
}
