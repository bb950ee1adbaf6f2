package game

import (
	"math/rand"
	"time"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// BotController decides the moves of one bot actor.
type BotController interface {
	ActorID() string
	// Step is called from the tick loop with the room lock held. It must
	// act only through turn.Actions.
	Step(turn *BotTurn)
}

// BotFactory creates the controller of a newly added bot.
type BotFactory func(actor *Actor, rng *rand.Rand) BotController

// BotTurn is the view a bot gets for one decision step. Grid and actors
// are live room state and must be treated as read-only.
type BotTurn struct {
	Now     time.Time
	Tick    int
	Self    *Actor
	Grid    *core.Grid
	Rules   *Rules
	Actions Actions

	// IncomingProposals lists actors proposing an alliance to Self.
	IncomingProposals []string
	// IncomingTrades lists trade offers addressed to Self.
	IncomingTrades []events.TradeSnapshot

	room *Room
}

// Actors returns every other actor still in the room, in join order.
func (t *BotTurn) Actors() []*Actor {
	out := make([]*Actor, 0, len(t.room.order))
	for _, id := range t.room.order {
		if id != t.Self.ID {
			out = append(out, t.room.actors[id])
		}
	}
	return out
}

// Actor looks up another actor by id.
func (t *BotTurn) Actor(id string) (*Actor, bool) {
	a, ok := t.room.actors[id]
	return a, ok
}

// runBots gives every live bot a decision step. A panicking controller is
// logged and skipped; the other bots still play.
func (r *Room) runBots() {
	now := r.now()
	for _, id := range append([]string(nil), r.order...) {
		a, ok := r.actors[id]
		if !ok || a.Eliminated {
			continue
		}
		b := a.AsBot()
		if b == nil || b.Controller == nil {
			continue
		}
		turn := &BotTurn{
			Now:               now,
			Tick:              r.tick,
			Self:              a,
			Grid:              r.grid,
			Rules:             &r.rules,
			Actions:           boundActions{r: r, id: id},
			IncomingProposals: r.incomingProposals(id),
			IncomingTrades:    r.incomingTrades(id),
			room:              r,
		}
		r.stepBot(b.Controller, turn)
	}
}

func (r *Room) stepBot(c BotController, turn *BotTurn) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Str("actor_id", c.ActorID()).
				Msg("Bot step panicked")
		}
	}()
	c.Step(turn)
}
