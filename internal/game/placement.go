package game

import (
	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/game/states"
)

// PlaceBase claims the starting territory of actorID around (x,y). Each
// actor places exactly once; when the last one does, play begins.
func (r *Room) PlaceBase(actorID string, x, y int) ActionResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.placeBase(actorID, x, y, r.rules.BaseRadius)
	if err != nil {
		r.logger.Debug().
			Err(core.WrapActionError("place base", actorID, x, y, err)).
			Msg("Base placement rejected")
	}
	return resultOf(err)
}

// placeBase requires no other owner within spacing of (x,y).
func (r *Room) placeBase(actorID string, x, y, spacing int) error {
	if !r.machine.CurrentPhase().CanPlaceBase() {
		return core.ErrWrongPhase
	}
	a, ok := r.actors[actorID]
	if !ok {
		return core.ErrUnknownActor
	}
	if a.HasPlacedBase {
		return core.ErrAlreadyPlaced
	}
	c := r.grid.GetCell(x, y)
	if c == nil {
		return core.ErrInvalidCoordinates
	}
	if !c.IsLand() {
		return core.ErrNotLand
	}
	if c.IsOwned() {
		return core.ErrCellOccupied
	}
	if !r.grid.CheckAreaFree(x, y, spacing) {
		return core.ErrAreaOccupied
	}

	claimed := r.grid.PlacePlayerBase(x, y, actorID, r.rules.ClaimRadius, r.rules.StartingTroops)
	changes := make([]core.CellChange, 0, len(claimed))
	for _, cell := range claimed {
		idx := r.grid.Idx(cell.X, cell.Y)
		r.dirty[idx] = struct{}{}
		changes = append(changes, r.grid.ChangeOf(idx))
		a.Troops += cell.Troops
	}
	a.Cells += len(claimed)
	a.HasPlacedBase = true
	a.BaseX, a.BaseY = x, y
	r.placed[actorID] = true
	r.gctx.PlacedCount = len(r.placed)

	r.logger.Info().
		Str("actor_id", actorID).
		Int("x", x).
		Int("y", y).
		Int("cells", len(claimed)).
		Msg("Base placed")
	r.bus.Publish(events.NewBasePlacedEvent(r.code, actorID, x, y, changes))
	r.publishPlacementUpdate()

	if r.gctx.AllPlaced() {
		r.beginPlaying()
	}
	return nil
}

// placeBot picks a free start position for a bot, relaxing the spacing
// requirement when the map is crowded. A bot that fits nowhere is removed
// so that placement can still complete.
func (r *Room) placeBot(a *Actor) {
	radius := r.rules.BaseRadius
	for {
		if pos, ok := r.grid.FindStartPosition(r.rng, radius, r.rules.PlacementAttempts); ok {
			if r.placeBase(a.ID, pos.X, pos.Y, radius) == nil {
				return
			}
		}
		if radius == 0 {
			break
		}
		radius /= 2
	}
	r.logger.Warn().Str("actor_id", a.ID).Msg("No room left to place bot base, removing bot")
	r.leave(a.ID)
}

func (r *Room) publishPlacementUpdate() {
	placed := make([]string, 0, len(r.placed))
	for _, id := range r.order {
		if r.placed[id] {
			placed = append(placed, id)
		}
	}
	r.bus.Publish(events.NewPlacementUpdateEvent(r.code, placed, len(r.actors)))
}

// beginPlaying snapshots the diff baseline and releases the tick loop.
func (r *Room) beginPlaying() {
	if err := r.machine.TransitionTo(states.PhasePlaying, "all bases placed"); err != nil {
		r.logger.Error().Err(err).Msg("Failed to enter playing phase")
		return
	}
	r.baseline = r.grid.Clone()
	r.dirty = make(map[int]struct{})
	r.lastActivity = r.now()
	r.bus.Publish(events.NewFullStateEvent(r.code, r.snapshot()))
	close(r.started)
}
