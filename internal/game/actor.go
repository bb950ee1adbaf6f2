package game

import (
	"sort"
	"time"

	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// ActorKind is the variant part of an Actor: *Human or *Bot.
type ActorKind interface {
	kindName() string
}

// Human is an actor driven by a client session.
type Human struct {
	SessionID string
	JoinedAt  time.Time
}

func (*Human) kindName() string { return "human" }

// Bot is an actor driven by a BotController inside the tick loop.
type Bot struct {
	Difficulty string
	Strategy   string
	Controller BotController
}

func (*Bot) kindName() string { return "bot" }

// Actor is a participant of a match.
//
// Gold is mutated directly by income, spending and trades. Troops, Cells
// and Income are derived from the grid: actions keep them current
// incrementally and every income pass recomputes them from the cells.
type Actor struct {
	ID    string
	Name  string
	Color string

	Gold   float64
	Income float64
	Troops float64
	Cells  int

	Alliances map[string]bool
	Kills     int
	Conquests int

	HasPlacedBase bool
	BaseX, BaseY  int
	Eliminated    bool

	JoinOrder int
	Kind      ActorKind
}

func newActor(id, name, color string, gold float64, order int, kind ActorKind) *Actor {
	return &Actor{
		ID:        id,
		Name:      name,
		Color:     color,
		Gold:      gold,
		Alliances: make(map[string]bool),
		JoinOrder: order,
		Kind:      kind,
	}
}

func (a *Actor) IsBot() bool {
	_, ok := a.Kind.(*Bot)
	return ok
}

// AsBot returns the bot payload, or nil for humans.
func (a *Actor) AsBot() *Bot {
	b, _ := a.Kind.(*Bot)
	return b
}

// AsHuman returns the human payload, or nil for bots.
func (a *Actor) AsHuman() *Human {
	h, _ := a.Kind.(*Human)
	return h
}

func (a *Actor) IsAlliedWith(id string) bool {
	return a.Alliances[id]
}

// AllianceIDs returns the allied actor ids in sorted order.
func (a *Actor) AllianceIDs() []string {
	ids := make([]string, 0, len(a.Alliances))
	for id := range a.Alliances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the public view of the actor.
func (a *Actor) Snapshot() events.ActorSnapshot {
	s := events.ActorSnapshot{
		ID:            a.ID,
		Name:          a.Name,
		Color:         a.Color,
		Gold:          a.Gold,
		Income:        a.Income,
		Troops:        a.Troops,
		Cells:         a.Cells,
		Alliances:     a.AllianceIDs(),
		Kills:         a.Kills,
		Conquests:     a.Conquests,
		HasPlacedBase: a.HasPlacedBase,
		Eliminated:    a.Eliminated,
	}
	if b := a.AsBot(); b != nil {
		s.IsBot = true
		s.Difficulty = b.Difficulty
		s.Strategy = b.Strategy
	}
	return s
}

func (a *Actor) standing() events.Standing {
	return events.Standing{
		ID:        a.ID,
		Name:      a.Name,
		IsBot:     a.IsBot(),
		Cells:     a.Cells,
		Troops:    a.Troops,
		Gold:      a.Gold,
		Income:    a.Income,
		Conquests: a.Conquests,
		Kills:     a.Kills,
	}
}
