package rules

import "github.com/AIRF0X788/Op-V2/internal/game/core"

// LegalMoveCalculator computes the cells an actor may expand into
type LegalMoveCalculator struct{}

// NewLegalMoveCalculator creates a new legal move calculator
func NewLegalMoveCalculator() *LegalMoveCalculator {
	return &LegalMoveCalculator{}
}

// ExpansionTargets returns the grid indices of every land cell adjacent to
// actorID's territory that it does not own and that is not held by an ally.
// Whether a target can actually be taken (gold, troops) is not checked.
// Each index appears once, in grid order.
func (lmc *LegalMoveCalculator) ExpansionTargets(grid *core.Grid, actorID string, allied func(string) bool) []int {
	seen := make(map[int]bool)
	for i := range grid.C {
		c := &grid.C[i]
		if !c.OwnedBy(actorID) {
			continue
		}
		for _, n := range grid.Adjacent(c.X, c.Y) {
			if n.Type != core.Land || n.OwnedBy(actorID) {
				continue
			}
			if n.IsOwned() && allied != nil && allied(n.Owner) {
				continue
			}
			seen[grid.Idx(n.X, n.Y)] = true
		}
	}

	targets := make([]int, 0, len(seen))
	for i := range grid.C {
		if seen[i] {
			targets = append(targets, i)
		}
	}
	return targets
}

// GetLegalExpansionMask returns a W*H mask with true for every expansion
// target of actorID.
func (lmc *LegalMoveCalculator) GetLegalExpansionMask(grid *core.Grid, actorID string, allied func(string) bool) []bool {
	mask := make([]bool, len(grid.C))
	for _, idx := range lmc.ExpansionTargets(grid, actorID, allied) {
		mask[idx] = true
	}
	return mask
}
