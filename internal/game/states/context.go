package states

import (
	"time"

	"github.com/rs/zerolog"
)

// GameContext provides room-level facts to states for validating transitions.
// The owning room keeps the counters current before asking for a transition.
type GameContext struct {
	// GameID is the room code
	GameID string

	// Logger for state-specific logging
	Logger zerolog.Logger

	// PlayerCount is the number of actors (humans and bots) in the match
	PlayerCount int

	// MaxPlayers is the maximum number of humans allowed
	MaxPlayers int

	// PlacedCount is the number of actors that have placed their base
	PlacedCount int

	// PlacementStart is when the lobby closed
	PlacementStart time.Time

	// PlayStart is when PhasePlaying was entered
	PlayStart time.Time

	// EndTime is when the winner was declared
	EndTime time.Time

	// Winner is the actor id of the winner, empty until the match ends
	Winner string

	// Clock stamps phase boundaries; nil means time.Now. Rooms pass their
	// own clock so simulated matches report simulated durations.
	Clock func() time.Time
}

// NewGameContext creates a new game context
func NewGameContext(gameID string, maxPlayers int, logger zerolog.Logger) *GameContext {
	return &GameContext{
		GameID:     gameID,
		MaxPlayers: maxPlayers,
		Logger:     logger.With().Str("room", gameID).Logger(),
	}
}

// Now reads the context clock.
func (gc *GameContext) Now() time.Time {
	if gc.Clock == nil {
		return time.Now()
	}
	return gc.Clock()
}

// IsReady returns true if the lobby has at least one actor and is not over capacity
func (gc *GameContext) IsReady() bool {
	return gc.PlayerCount >= 1 && gc.PlayerCount <= gc.MaxPlayers
}

// AllPlaced returns true once every actor has placed a base
func (gc *GameContext) AllPlaced() bool {
	return gc.PlayerCount > 0 && gc.PlacedCount == gc.PlayerCount
}

// GetElapsedTime returns the time since placement started, frozen at EndTime
// once the match is over.
func (gc *GameContext) GetElapsedTime() time.Duration {
	if gc.PlacementStart.IsZero() {
		return 0
	}
	if !gc.EndTime.IsZero() {
		return gc.EndTime.Sub(gc.PlacementStart)
	}
	return gc.Now().Sub(gc.PlacementStart)
}
