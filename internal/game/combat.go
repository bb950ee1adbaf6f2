package game

import (
	"math"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// Strength is the troop support an actor can bring against one cell.
type Strength struct {
	Own    float64 // troops on the actor's own neighbouring cells
	Allied float64 // troops on allied neighbouring cells, undiscounted
	Total  float64 // Own plus the discounted allied share
}

// AdjacentStrength sums the troops actorID can bring against (x,y).
// Allied cells count at factor but are never charged for losses.
func AdjacentStrength(g *core.Grid, x, y int, a *Actor, factor float64) Strength {
	var s Strength
	for _, n := range g.Adjacent(x, y) {
		switch {
		case n.OwnedBy(a.ID):
			s.Own += n.Troops
		case n.IsOwned() && a.IsAlliedWith(n.Owner):
			s.Allied += n.Troops
		}
	}
	s.Total = s.Own + s.Allied*factor
	return s
}

func (r *Room) expandResult(actorID string, x, y int) ActionResult {
	conquered, err := r.expand(actorID, x, y)
	if err != nil {
		r.logger.Debug().
			Err(core.WrapActionError("expand", actorID, x, y, err)).
			Msg("Expansion rejected")
		return resultOf(err)
	}
	return ActionResult{Success: true, Conquered: conquered}
}

// expand claims a neutral cell or attacks an enemy one. Both cost
// ExpandCost gold; attacks also need more adjacent strength than the
// defender holds. Nothing changes when an error is returned.
func (r *Room) expand(actorID string, x, y int) (bool, error) {
	a, err := r.actingActor(actorID)
	if err != nil {
		return false, err
	}
	c := r.grid.GetCell(x, y)
	if c == nil {
		return false, core.ErrInvalidCoordinates
	}
	if !c.IsLand() {
		return false, core.ErrNotLand
	}
	if c.OwnedBy(actorID) {
		return false, core.ErrAlreadyOwned
	}
	if !r.grid.IsAdjacentToPlayer(x, y, actorID) {
		return false, core.ErrNotAdjacent
	}
	if c.IsOwned() && a.IsAlliedWith(c.Owner) {
		return false, core.ErrAlliedTarget
	}
	if a.Gold < r.rules.ExpandCost {
		return false, core.ErrInsufficientGold
	}

	idx := r.grid.Idx(x, y)
	if !c.IsOwned() {
		a.Gold -= r.rules.ExpandCost
		c.Owner = actorID
		c.Troops = r.rules.NeutralSeedTroops
		c.Building = core.BuildingNone
		a.Troops += c.Troops
		a.Cells++
		r.dirty[idx] = struct{}{}
		return false, nil
	}

	s := AdjacentStrength(r.grid, x, y, a, r.rules.AlliedSupportFactor)
	defTroops := c.Troops
	if s.Total <= defTroops {
		return false, core.ErrInsufficientTroops
	}

	losses := defTroops * r.rules.AttackLossFactor
	garrison := math.Max(1, (s.Total-defTroops)*r.rules.SurvivalFactor)
	charged := r.chargeNeighbours(x, y, actorID, s.Own, losses+garrison)

	defender := r.actors[c.Owner]
	destroyed := c.Building
	defenderID := c.Owner

	a.Gold -= r.rules.ExpandCost
	c.Owner = actorID
	c.Troops = garrison
	c.Building = core.BuildingNone
	a.Troops += garrison - charged
	a.Cells++
	a.Conquests++
	r.dirty[idx] = struct{}{}

	r.logger.Debug().
		Str("attacker", actorID).
		Str("defender", defenderID).
		Int("x", x).
		Int("y", y).
		Float64("attack", s.Total).
		Float64("defense", defTroops).
		Float64("garrison", garrison).
		Msg("Cell conquered")
	r.bus.Publish(events.NewCombatResolvedEvent(r.code, actorID, defenderID, core.Coordinate{X: x, Y: y},
		s.Total, defTroops, losses, garrison, destroyed))

	if defender != nil {
		defender.Troops -= defTroops
		defender.Cells--
		if defender.Cells <= 0 {
			r.eliminate(defender, a)
		}
	}
	return true, nil
}

// chargeNeighbours removes amount troops from actorID's cells around
// (x,y), split by each cell's share of own. The charge is capped at own;
// the amount actually removed is returned.
func (r *Room) chargeNeighbours(x, y int, actorID string, own, amount float64) float64 {
	if own <= 0 || amount <= 0 {
		return 0
	}
	if amount > own {
		amount = own
	}
	charged := 0.0
	for _, n := range r.grid.Adjacent(x, y) {
		if !n.OwnedBy(actorID) || n.Troops <= 0 {
			continue
		}
		cut := math.Min(n.Troops, amount*n.Troops/own)
		n.Troops -= cut
		charged += cut
		r.dirty[r.grid.Idx(n.X, n.Y)] = struct{}{}
	}
	return charged
}

// eliminate marks an actor that lost its last cell.
func (r *Room) eliminate(loser, by *Actor) {
	loser.Eliminated = true
	loser.Cells = 0
	loser.Troops = 0
	loser.Income = 0
	for id := range loser.Alliances {
		if ally, ok := r.actors[id]; ok {
			delete(ally.Alliances, loser.ID)
		}
	}
	loser.Alliances = make(map[string]bool)
	by.Kills++

	r.logger.Info().
		Str("actor_id", loser.ID).
		Str("by", by.ID).
		Int("tick", r.tick).
		Msg("Actor eliminated")
	r.bus.Publish(events.NewActorEliminatedEvent(r.code, loser.ID, by.ID, r.tick))
}
