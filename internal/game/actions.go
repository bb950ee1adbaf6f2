package game

import (
	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/states"
)

// ActionResult is the outcome of one player action. Rule violations are
// reported here and never as panics.
type ActionResult struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
	Conquered bool   `json:"conquered,omitempty"`
	TradeID   string `json:"tradeId,omitempty"`
	Err       error  `json:"-"`
}

func resultOf(err error) ActionResult {
	if err != nil {
		return ActionResult{Reason: core.Reason(err), Err: err}
	}
	return ActionResult{Success: true}
}

// Actions is the action surface of one actor. Humans reach it through the
// Room methods, bots through BotTurn.Actions; both share the same rules.
type Actions interface {
	Expand(x, y int) ActionResult
	Reinforce(x, y, count int) ActionResult
	Build(x, y int, b core.BuildingType) ActionResult
	ProposeAlliance(targetID string) ActionResult
	BreakAlliance(targetID string) ActionResult
	OfferTrade(targetID string, gold, requestGold float64) ActionResult
	AcceptTrade(tradeID string) ActionResult
	RejectTrade(tradeID string) ActionResult
}

// boundActions runs actions for one actor with the room lock already held.
type boundActions struct {
	r  *Room
	id string
}

func (b boundActions) Expand(x, y int) ActionResult { return b.r.expandResult(b.id, x, y) }
func (b boundActions) Reinforce(x, y, count int) ActionResult {
	return resultOf(b.r.reinforce(b.id, x, y, count))
}
func (b boundActions) Build(x, y int, t core.BuildingType) ActionResult {
	return resultOf(b.r.build(b.id, x, y, t))
}
func (b boundActions) ProposeAlliance(targetID string) ActionResult {
	return b.r.proposeAlliance(b.id, targetID)
}
func (b boundActions) BreakAlliance(targetID string) ActionResult {
	return resultOf(b.r.breakAlliance(b.id, targetID))
}
func (b boundActions) OfferTrade(targetID string, gold, requestGold float64) ActionResult {
	return b.r.offerTrade(b.id, targetID, gold, requestGold)
}
func (b boundActions) AcceptTrade(tradeID string) ActionResult {
	return resultOf(b.r.acceptTrade(b.id, tradeID))
}
func (b boundActions) RejectTrade(tradeID string) ActionResult {
	return resultOf(b.r.rejectTrade(b.id, tradeID))
}

// locked runs fn under the room lock and broadcasts the cells it touched.
func (r *Room) locked(fn func() ActionResult) ActionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := fn()
	if res.Success {
		r.lastActivity = r.now()
		r.flushDirty()
	}
	return res
}

// Expand claims or attacks the cell at (x,y).
func (r *Room) Expand(actorID string, x, y int) ActionResult {
	return r.locked(func() ActionResult { return r.expandResult(actorID, x, y) })
}

// Reinforce buys count troops on an owned cell.
func (r *Room) Reinforce(actorID string, x, y, count int) ActionResult {
	return r.locked(func() ActionResult { return resultOf(r.reinforce(actorID, x, y, count)) })
}

// Build constructs a building on an owned cell.
func (r *Room) Build(actorID string, x, y int, b core.BuildingType) ActionResult {
	return r.locked(func() ActionResult { return resultOf(r.build(actorID, x, y, b)) })
}

func (r *Room) ProposeAlliance(actorID, targetID string) ActionResult {
	return r.locked(func() ActionResult { return r.proposeAlliance(actorID, targetID) })
}

func (r *Room) BreakAlliance(actorID, targetID string) ActionResult {
	return r.locked(func() ActionResult { return resultOf(r.breakAlliance(actorID, targetID)) })
}

// OfferTrade proposes a gold exchange. The result carries the trade id.
func (r *Room) OfferTrade(actorID, targetID string, gold, requestGold float64) ActionResult {
	return r.locked(func() ActionResult { return r.offerTrade(actorID, targetID, gold, requestGold) })
}

func (r *Room) AcceptTrade(actorID, tradeID string) ActionResult {
	return r.locked(func() ActionResult { return resultOf(r.acceptTrade(actorID, tradeID)) })
}

func (r *Room) RejectTrade(actorID, tradeID string) ActionResult {
	return r.locked(func() ActionResult { return resultOf(r.rejectTrade(actorID, tradeID)) })
}

// actingActor checks that the match is running and actorID may act.
func (r *Room) actingActor(actorID string) (*Actor, error) {
	switch phase := r.machine.CurrentPhase(); {
	case phase == states.PhaseFinished:
		return nil, core.ErrGameOver
	case !phase.CanReceiveActions():
		return nil, core.ErrWrongPhase
	}
	a, ok := r.actors[actorID]
	if !ok {
		return nil, core.ErrUnknownActor
	}
	if a.Eliminated {
		return nil, core.ErrEliminated
	}
	return a, nil
}

func (r *Room) reinforce(actorID string, x, y, count int) error {
	a, err := r.actingActor(actorID)
	if err != nil {
		return err
	}
	if count <= 0 {
		return core.ErrInvalidAmount
	}
	c := r.grid.GetCell(x, y)
	if c == nil {
		return core.ErrInvalidCoordinates
	}
	if !c.OwnedBy(actorID) {
		return core.ErrNotOwned
	}
	cost := float64(count) * r.rules.ReinforceCost
	if a.Gold < cost {
		return core.ErrInsufficientGold
	}

	a.Gold -= cost
	c.Troops += float64(count)
	a.Troops += float64(count)
	r.dirty[r.grid.Idx(x, y)] = struct{}{}

	r.logger.Debug().
		Str("actor_id", actorID).
		Int("x", x).
		Int("y", y).
		Int("count", count).
		Float64("cost", cost).
		Msg("Cell reinforced")
	return nil
}

func (r *Room) build(actorID string, x, y int, b core.BuildingType) error {
	a, err := r.actingActor(actorID)
	if err != nil {
		return err
	}
	c := r.grid.GetCell(x, y)
	if c == nil {
		return core.ErrInvalidCoordinates
	}
	if !c.OwnedBy(actorID) {
		return core.ErrNotOwned
	}
	if c.HasBuilding() {
		return core.ErrBuildingPresent
	}
	spec, ok := r.rules.Building(b)
	if !ok {
		return core.ErrUnknownBuilding
	}
	if spec.CoastalOnly && !r.grid.IsCoastal(x, y) {
		return core.ErrNotCoastal
	}
	if a.Gold < spec.Cost {
		return core.ErrInsufficientGold
	}

	a.Gold -= spec.Cost
	c.Building = b
	r.dirty[r.grid.Idx(x, y)] = struct{}{}

	r.logger.Debug().
		Str("actor_id", actorID).
		Str("building", b.String()).
		Int("x", x).
		Int("y", y).
		Msg("Building constructed")
	return nil
}
