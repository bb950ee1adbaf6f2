package events

import (
	"time"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

// Event type constants
const (
	TypeActorJoined      = "actor.joined"
	TypeActorLeft        = "actor.left"
	TypeActorEliminated  = "actor.eliminated"
	TypeGameStarted      = "game.started"
	TypeGameEnded        = "game.ended"
	TypeStateTransition  = "state.transition"
	TypeBasePlaced       = "base.placed"
	TypePlacementUpdate  = "placement.update"
	TypeFullState        = "state.full"
	TypeGridUpdate       = "grid.update"
	TypeCombatResolved   = "combat.resolved"
	TypeIncomeApplied    = "economy.income"
	TypeAllianceProposed = "alliance.proposed"
	TypeAllianceFormed   = "alliance.formed"
	TypeAllianceBroken   = "alliance.broken"
	TypeTradeOffered     = "trade.offered"
	TypeTradeCompleted   = "trade.completed"
	TypeTradeRejected    = "trade.rejected"
)

// ActorJoinedEvent is published when a human or bot enters the room
type ActorJoinedEvent struct {
	BaseEvent
	Actor  ActorSnapshot
	HostID string
}

func NewActorJoinedEvent(gameID string, actor ActorSnapshot, hostID string) *ActorJoinedEvent {
	return &ActorJoinedEvent{BaseEvent: newBase(TypeActorJoined, gameID), Actor: actor, HostID: hostID}
}

// ActorLeftEvent is published when a human disconnects or leaves. Its
// cells have already been released.
type ActorLeftEvent struct {
	BaseEvent
	ActorID       string
	Name          string
	NewHostID     string
	ReleasedCells int
}

func NewActorLeftEvent(gameID, actorID, name, newHostID string, released int) *ActorLeftEvent {
	return &ActorLeftEvent{
		BaseEvent:     newBase(TypeActorLeft, gameID),
		ActorID:       actorID,
		Name:          name,
		NewHostID:     newHostID,
		ReleasedCells: released,
	}
}

// ActorEliminatedEvent is published when an actor loses its last cell
type ActorEliminatedEvent struct {
	BaseEvent
	ActorID      string
	EliminatedBy string
	Tick         int
}

func NewActorEliminatedEvent(gameID, actorID, by string, tick int) *ActorEliminatedEvent {
	return &ActorEliminatedEvent{BaseEvent: newBase(TypeActorEliminated, gameID), ActorID: actorID, EliminatedBy: by, Tick: tick}
}

// GameStartedEvent is published when the room leaves the lobby
type GameStartedEvent struct {
	BaseEvent
	NumActors int
	NumBots   int
	MapWidth  int
	MapHeight int
}

// NewGameStartedEvent creates a new GameStartedEvent
func NewGameStartedEvent(gameID string, numActors, numBots, width, height int) *GameStartedEvent {
	return &GameStartedEvent{
		BaseEvent: newBase(TypeGameStarted, gameID),
		NumActors: numActors,
		NumBots:   numBots,
		MapWidth:  width,
		MapHeight: height,
	}
}

// GameEndedEvent is published when a winner is declared
type GameEndedEvent struct {
	BaseEvent
	Winner    ActorSnapshot
	Duration  time.Duration
	FinalTick int
	Stats     []Standing
}

// NewGameEndedEvent creates a new GameEndedEvent
func NewGameEndedEvent(gameID string, winner ActorSnapshot, duration time.Duration, finalTick int, stats []Standing) *GameEndedEvent {
	return &GameEndedEvent{
		BaseEvent: newBase(TypeGameEnded, gameID),
		Winner:    winner,
		Duration:  duration,
		FinalTick: finalTick,
		Stats:     stats,
	}
}

// StateTransitionEvent is published by the state machine on every phase change
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(gameID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, gameID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}

// BasePlacedEvent reports a successful base placement
type BasePlacedEvent struct {
	BaseEvent
	ActorID string
	X, Y    int
	Cells   []core.CellChange
}

func NewBasePlacedEvent(gameID, actorID string, x, y int, cells []core.CellChange) *BasePlacedEvent {
	return &BasePlacedEvent{BaseEvent: newBase(TypeBasePlaced, gameID), ActorID: actorID, X: x, Y: y, Cells: cells}
}

// PlacementUpdateEvent reports placement progress
type PlacementUpdateEvent struct {
	BaseEvent
	PlayersPlaced []string
	TotalPlayers  int
}

func NewPlacementUpdateEvent(gameID string, placed []string, total int) *PlacementUpdateEvent {
	return &PlacementUpdateEvent{BaseEvent: newBase(TypePlacementUpdate, gameID), PlayersPlaced: placed, TotalPlayers: total}
}

// FullStateEvent carries a complete snapshot, to the whole room or to the
// requesting actor only.
type FullStateEvent struct {
	BaseEvent
	Audience
	State RoomSnapshot
}

func NewFullStateEvent(gameID string, state RoomSnapshot, to ...string) *FullStateEvent {
	return &FullStateEvent{BaseEvent: newBase(TypeFullState, gameID), Audience: Audience{To: to}, State: state}
}

// GridUpdateEvent carries the cells changed since the last broadcast
type GridUpdateEvent struct {
	BaseEvent
	Tick    int
	Changes []core.CellChange
	Players []ActorSnapshot
}

func NewGridUpdateEvent(gameID string, tick int, changes []core.CellChange, players []ActorSnapshot) *GridUpdateEvent {
	return &GridUpdateEvent{BaseEvent: newBase(TypeGridUpdate, gameID), Tick: tick, Changes: changes, Players: players}
}

// CombatResolvedEvent is published when an attack captures an enemy cell
type CombatResolvedEvent struct {
	BaseEvent
	AttackerID        string
	DefenderID        string
	Location          core.Coordinate
	AttackerTroops    float64
	DefenderTroops    float64
	AttackerLosses    float64
	Garrison          float64
	BuildingDestroyed core.BuildingType
}

func NewCombatResolvedEvent(gameID, attacker, defender string, at core.Coordinate, attackerTroops, defenderTroops, losses, garrison float64, destroyed core.BuildingType) *CombatResolvedEvent {
	return &CombatResolvedEvent{
		BaseEvent:         newBase(TypeCombatResolved, gameID),
		AttackerID:        attacker,
		DefenderID:        defender,
		Location:          at,
		AttackerTroops:    attackerTroops,
		DefenderTroops:    defenderTroops,
		AttackerLosses:    losses,
		Garrison:          garrison,
		BuildingDestroyed: destroyed,
	}
}

// IncomeAppliedEvent summarises one resource generation pass
type IncomeAppliedEvent struct {
	BaseEvent
	Tick            int
	GoldGenerated   float64
	TroopsGenerated float64
}

func NewIncomeAppliedEvent(gameID string, tick int, gold, troops float64) *IncomeAppliedEvent {
	return &IncomeAppliedEvent{BaseEvent: newBase(TypeIncomeApplied, gameID), Tick: tick, GoldGenerated: gold, TroopsGenerated: troops}
}

// AllianceProposedEvent is delivered to the proposal target only
type AllianceProposedEvent struct {
	BaseEvent
	Audience
	FromID   string
	FromName string
	ToID     string
}

func NewAllianceProposedEvent(gameID, from, fromName, to string) *AllianceProposedEvent {
	return &AllianceProposedEvent{
		BaseEvent: newBase(TypeAllianceProposed, gameID),
		Audience:  Audience{To: []string{to}},
		FromID:    from,
		FromName:  fromName,
		ToID:      to,
	}
}

// AllianceFormedEvent is delivered to both members
type AllianceFormedEvent struct {
	BaseEvent
	Audience
	A, B string
}

func NewAllianceFormedEvent(gameID, a, b string) *AllianceFormedEvent {
	return &AllianceFormedEvent{BaseEvent: newBase(TypeAllianceFormed, gameID), Audience: Audience{To: []string{a, b}}, A: a, B: b}
}

// AllianceBrokenEvent is delivered to both former members
type AllianceBrokenEvent struct {
	BaseEvent
	Audience
	BrokenBy string
	Other    string
}

func NewAllianceBrokenEvent(gameID, by, other string) *AllianceBrokenEvent {
	return &AllianceBrokenEvent{BaseEvent: newBase(TypeAllianceBroken, gameID), Audience: Audience{To: []string{by, other}}, BrokenBy: by, Other: other}
}

// TradeOfferedEvent is delivered to the trade target only
type TradeOfferedEvent struct {
	BaseEvent
	Audience
	Offer    TradeSnapshot
	FromName string
}

func NewTradeOfferedEvent(gameID string, offer TradeSnapshot, fromName string) *TradeOfferedEvent {
	return &TradeOfferedEvent{BaseEvent: newBase(TypeTradeOffered, gameID), Audience: Audience{To: []string{offer.To}}, Offer: offer, FromName: fromName}
}

// TradeCompletedEvent is delivered to both parties
type TradeCompletedEvent struct {
	BaseEvent
	Audience
	Offer TradeSnapshot
}

func NewTradeCompletedEvent(gameID string, offer TradeSnapshot) *TradeCompletedEvent {
	return &TradeCompletedEvent{BaseEvent: newBase(TypeTradeCompleted, gameID), Audience: Audience{To: []string{offer.From, offer.To}}, Offer: offer}
}

// TradeRejectedEvent is delivered to the proposer when the offer is
// rejected or expires
type TradeRejectedEvent struct {
	BaseEvent
	Audience
	Offer   TradeSnapshot
	Expired bool
}

func NewTradeRejectedEvent(gameID string, offer TradeSnapshot, expired bool) *TradeRejectedEvent {
	return &TradeRejectedEvent{BaseEvent: newBase(TypeTradeRejected, gameID), Audience: Audience{To: []string{offer.From}}, Offer: offer, Expired: expired}
}
