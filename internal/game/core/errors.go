package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNotLand            = errors.New("cell is not land")
	ErrNotAdjacent        = errors.New("cell is not adjacent to territory")
	ErrAlreadyOwned       = errors.New("cell already owned by actor")
	ErrNotOwned           = errors.New("cell not owned by actor")
	ErrInsufficientGold   = errors.New("insufficient gold")
	ErrInsufficientTroops = errors.New("insufficient adjacent troops")
	ErrAlliedTarget       = errors.New("target cell belongs to an ally")
	ErrBuildingPresent    = errors.New("cell already has a building")
	ErrNotCoastal         = errors.New("port requires a coastal cell")
	ErrUnknownBuilding    = errors.New("unknown building type")
	ErrAreaOccupied       = errors.New("area too close to another base")
	ErrCellOccupied       = errors.New("cell already occupied")
	ErrAlreadyPlaced      = errors.New("base already placed")
	ErrWrongPhase         = errors.New("action not allowed in current phase")
	ErrNotHost            = errors.New("only the host can do this")
	ErrUnknownActor       = errors.New("unknown actor")
	ErrUnknownRoom        = errors.New("unknown room")
	ErrUnknownTrade       = errors.New("unknown trade offer")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrSelfTarget         = errors.New("cannot target yourself")
	ErrAlreadyAllied      = errors.New("already allied")
	ErrNotAllied          = errors.New("not allied")
	ErrAlreadyProposed    = errors.New("alliance proposal already pending")
	ErrRoomFull           = errors.New("room is full")
	ErrInvalidName        = errors.New("invalid player name")
	ErrEliminated         = errors.New("actor eliminated")
	ErrGameOver           = errors.New("game is over")
	ErrSpectator          = errors.New("spectators cannot act")
)

// reasons are the messages shown to players for each rule violation.
var reasons = map[error]string{
	ErrInvalidCoordinates: "Invalid position",
	ErrNotLand:            "Must be on land",
	ErrNotAdjacent:        "Must be adjacent to your territory",
	ErrAlreadyOwned:       "You already own this cell",
	ErrNotOwned:           "Not your territory",
	ErrInsufficientGold:   "Insufficient gold",
	ErrInsufficientTroops: "Not enough adjacent troops",
	ErrAlliedTarget:       "Cannot attack an ally",
	ErrBuildingPresent:    "A building is already there",
	ErrNotCoastal:         "Ports must be built on the coast",
	ErrUnknownBuilding:    "Unknown building type",
	ErrAreaOccupied:       "Too close to another base",
	ErrCellOccupied:       "Cell already occupied",
	ErrAlreadyPlaced:      "Base already placed",
	ErrWrongPhase:         "Not allowed in the current phase",
	ErrNotHost:            "Only the host can start the game",
	ErrUnknownActor:       "Player not found",
	ErrUnknownRoom:        "Room not found",
	ErrUnknownTrade:       "Trade not found",
	ErrInvalidAmount:      "Invalid amount",
	ErrSelfTarget:         "Cannot target yourself",
	ErrAlreadyAllied:      "Already allied",
	ErrNotAllied:          "Not allied",
	ErrAlreadyProposed:    "Proposal already sent",
	ErrRoomFull:           "Room is full",
	ErrInvalidName:        "Invalid player name",
	ErrEliminated:         "You have been eliminated",
	ErrGameOver:           "The game is over",
	ErrSpectator:          "Spectators cannot act",
}

// Reason returns the player-facing text for err. Wrapped sentinels are
// resolved with errors.Is; unknown errors fall back to err.Error().
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for sentinel, reason := range reasons {
		if errors.Is(err, sentinel) {
			return reason
		}
	}
	return err.Error()
}

// WrapActionError adds the acting actor and target cell to err.
func WrapActionError(action, actorID string, x, y int, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("actor %s: %s at (%d,%d): %w", actorID, action, x, y, err)
}
