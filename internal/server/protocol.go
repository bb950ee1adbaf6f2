package server

import (
	"encoding/json"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// Envelope is the frame exchanged with clients in both directions.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types
const (
	MsgCreateRoom       = "createRoom"
	MsgJoinRoom         = "joinRoom"
	MsgSpectate         = "spectate"
	MsgStartGame        = "startGame"
	MsgPlaceBase        = "placeBase"
	MsgExpandTerritory  = "expandTerritory"
	MsgReinforceCell    = "reinforceCell"
	MsgBuildBuilding    = "buildBuilding"
	MsgProposeAlliance  = "proposeAlliance"
	MsgBreakAlliance    = "breakAlliance"
	MsgCreateTradeOffer = "createTradeOffer"
	MsgAcceptTrade      = "acceptTrade"
	MsgRejectTrade      = "rejectTrade"
	MsgRequestFullState = "requestFullState"
	MsgLeaveRoom        = "leaveRoom"
)

// Outbound message types
const (
	OutRoomCreated      = "roomCreated"
	OutRoomJoined       = "roomJoined"
	OutSpectating       = "spectating"
	OutError            = "error"
	OutActionResult     = "actionResult"
	OutPlayerJoined     = "playerJoined"
	OutPlayerLeft       = "playerLeft"
	OutActorEliminated  = "actorEliminated"
	OutGameStarted      = "gameStarted"
	OutPhaseChanged     = "phaseChanged"
	OutBasePlaced       = "basePlaced"
	OutPlacementUpdate  = "placementUpdate"
	OutFullState        = "fullState"
	OutGridUpdate       = "gridUpdate"
	OutCombatEvent      = "combatEvent"
	OutAllianceProposal = "allianceProposal"
	OutAllianceFormed   = "allianceFormed"
	OutAllianceBroken   = "allianceBroken"
	OutTradeOffer       = "tradeOffer"
	OutTradeCompleted   = "tradeCompleted"
	OutTradeRejected    = "tradeRejected"
	OutGameOver         = "gameOver"
)

// Inbound payloads

type namePayload struct {
	Name string `json:"name"`
}

type joinPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type codePayload struct {
	Code string `json:"code"`
}

type cellPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type reinforcePayload struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Count int `json:"count"`
}

type buildPayload struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Type string `json:"type"`
}

type targetPayload struct {
	TargetID string `json:"targetId"`
}

type tradePayload struct {
	TargetID    string  `json:"targetId"`
	Gold        float64 `json:"gold"`
	RequestGold float64 `json:"requestGold"`
}

type tradeIDPayload struct {
	TradeID string `json:"tradeId"`
}

// Outbound payloads

type roomJoinedPayload struct {
	Code     string               `json:"code"`
	PlayerID string               `json:"playerId"`
	IsHost   bool                 `json:"isHost"`
	State    events.RoomSnapshot  `json:"state"`
	Player   events.ActorSnapshot `json:"player"`
}

type spectatingPayload struct {
	Code  string              `json:"code"`
	State events.RoomSnapshot `json:"state"`
}

type errorPayload struct {
	Reason string `json:"reason"`
}

type actionResultPayload struct {
	Action    string `json:"action"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Conquered bool   `json:"conquered,omitempty"`
	TradeID   string `json:"tradeId,omitempty"`
}

type playerJoinedPayload struct {
	Player events.ActorSnapshot `json:"player"`
	HostID string               `json:"hostId"`
}

type playerLeftPayload struct {
	PlayerID      string `json:"playerId"`
	Name          string `json:"name"`
	NewHostID     string `json:"newHostId,omitempty"`
	ReleasedCells int    `json:"releasedCells"`
}

type eliminatedPayload struct {
	PlayerID     string `json:"playerId"`
	EliminatedBy string `json:"eliminatedBy,omitempty"`
	Tick         int    `json:"tick"`
}

type gameStartedPayload struct {
	Players int `json:"players"`
	Bots    int `json:"bots"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

type phaseChangedPayload struct {
	Phase  string `json:"phase"`
	From   string `json:"from"`
	Reason string `json:"reason,omitempty"`
}

type basePlacedPayload struct {
	Success  bool              `json:"success"`
	PlayerID string            `json:"playerId,omitempty"`
	BaseX    int               `json:"baseX"`
	BaseY    int               `json:"baseY"`
	Cells    []core.CellChange `json:"cells,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

type placementUpdatePayload struct {
	PlayersPlaced []string `json:"playersPlaced"`
	TotalPlayers  int      `json:"totalPlayers"`
}

type gridUpdatePayload struct {
	Tick    int                    `json:"tick"`
	Changes []core.CellChange      `json:"changes"`
	Players []events.ActorSnapshot `json:"players"`
}

type combatPayload struct {
	AttackerID        string  `json:"attackerId"`
	DefenderID        string  `json:"defenderId"`
	X                 int     `json:"x"`
	Y                 int     `json:"y"`
	AttackerTroops    float64 `json:"attackerTroops"`
	DefenderTroops    float64 `json:"defenderTroops"`
	AttackerLosses    float64 `json:"attackerLosses"`
	Garrison          float64 `json:"garrison"`
	BuildingDestroyed string  `json:"buildingDestroyed,omitempty"`
}

type allianceProposalPayload struct {
	FromID   string `json:"fromId"`
	FromName string `json:"fromName"`
}

type allianceFormedPayload struct {
	Players []string `json:"players"`
}

type allianceBrokenPayload struct {
	BrokenBy string `json:"brokenBy"`
	Other    string `json:"other"`
}

type tradeOfferPayload struct {
	Offer    events.TradeSnapshot `json:"offer"`
	FromName string               `json:"fromName"`
}

type tradeCompletedPayload struct {
	Offer events.TradeSnapshot `json:"offer"`
}

type tradeRejectedPayload struct {
	Offer   events.TradeSnapshot `json:"offer"`
	Expired bool                 `json:"expired"`
}

type gameOverPayload struct {
	Winner   events.ActorSnapshot `json:"winner"`
	Duration int64                `json:"duration"`
	Tick     int                  `json:"tick"`
	Stats    []events.Standing    `json:"stats"`
}

// newEnvelope marshals payload into an envelope of type t.
func newEnvelope(t, requestID string, payload interface{}) (Envelope, error) {
	env := Envelope{Type: t, RequestID: requestID}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = raw
	return env, nil
}

// eventEnvelope translates a room event into its wire form. Events with
// no client-facing form report false.
func eventEnvelope(e events.Event) (Envelope, bool, error) {
	var (
		t       string
		payload interface{}
	)
	switch ev := e.(type) {
	case *events.ActorJoinedEvent:
		t, payload = OutPlayerJoined, playerJoinedPayload{Player: ev.Actor, HostID: ev.HostID}
	case *events.ActorLeftEvent:
		t, payload = OutPlayerLeft, playerLeftPayload{
			PlayerID:      ev.ActorID,
			Name:          ev.Name,
			NewHostID:     ev.NewHostID,
			ReleasedCells: ev.ReleasedCells,
		}
	case *events.ActorEliminatedEvent:
		t, payload = OutActorEliminated, eliminatedPayload{PlayerID: ev.ActorID, EliminatedBy: ev.EliminatedBy, Tick: ev.Tick}
	case *events.GameStartedEvent:
		t, payload = OutGameStarted, gameStartedPayload{Players: ev.NumActors, Bots: ev.NumBots, Width: ev.MapWidth, Height: ev.MapHeight}
	case *events.StateTransitionEvent:
		t, payload = OutPhaseChanged, phaseChangedPayload{Phase: ev.ToPhase, From: ev.FromPhase, Reason: ev.Reason}
	case *events.BasePlacedEvent:
		t, payload = OutBasePlaced, basePlacedPayload{Success: true, PlayerID: ev.ActorID, BaseX: ev.X, BaseY: ev.Y, Cells: ev.Cells}
	case *events.PlacementUpdateEvent:
		t, payload = OutPlacementUpdate, placementUpdatePayload{PlayersPlaced: ev.PlayersPlaced, TotalPlayers: ev.TotalPlayers}
	case *events.FullStateEvent:
		t, payload = OutFullState, ev.State
	case *events.GridUpdateEvent:
		t, payload = OutGridUpdate, gridUpdatePayload{Tick: ev.Tick, Changes: ev.Changes, Players: ev.Players}
	case *events.CombatResolvedEvent:
		t, payload = OutCombatEvent, combatPayload{
			AttackerID:        ev.AttackerID,
			DefenderID:        ev.DefenderID,
			X:                 ev.Location.X,
			Y:                 ev.Location.Y,
			AttackerTroops:    ev.AttackerTroops,
			DefenderTroops:    ev.DefenderTroops,
			AttackerLosses:    ev.AttackerLosses,
			Garrison:          ev.Garrison,
			BuildingDestroyed: ev.BuildingDestroyed.String(),
		}
	case *events.AllianceProposedEvent:
		t, payload = OutAllianceProposal, allianceProposalPayload{FromID: ev.FromID, FromName: ev.FromName}
	case *events.AllianceFormedEvent:
		t, payload = OutAllianceFormed, allianceFormedPayload{Players: []string{ev.A, ev.B}}
	case *events.AllianceBrokenEvent:
		t, payload = OutAllianceBroken, allianceBrokenPayload{BrokenBy: ev.BrokenBy, Other: ev.Other}
	case *events.TradeOfferedEvent:
		t, payload = OutTradeOffer, tradeOfferPayload{Offer: ev.Offer, FromName: ev.FromName}
	case *events.TradeCompletedEvent:
		t, payload = OutTradeCompleted, tradeCompletedPayload{Offer: ev.Offer}
	case *events.TradeRejectedEvent:
		t, payload = OutTradeRejected, tradeRejectedPayload{Offer: ev.Offer, Expired: ev.Expired}
	case *events.GameEndedEvent:
		t, payload = OutGameOver, gameOverPayload{
			Winner:   ev.Winner,
			Duration: ev.Duration.Milliseconds(),
			Tick:     ev.FinalTick,
			Stats:    ev.Stats,
		}
	default:
		return Envelope{}, false, nil
	}

	env, err := newEnvelope(t, "", payload)
	if err != nil {
		return Envelope{}, false, err
	}
	return env, true, nil
}
