package states

import "fmt"

// LobbyState represents the lobby phase where humans join
type LobbyState struct{}

func NewLobbyState() State {
	return &LobbyState{}
}

func (s *LobbyState) Phase() GamePhase {
	return PhaseLobby
}

func (s *LobbyState) Enter(ctx *GameContext) error {
	ctx.Logger.Info().Msg("Room lobby opened, waiting for players")
	return nil
}

func (s *LobbyState) Exit(ctx *GameContext) error {
	ctx.Logger.Info().
		Int("player_count", ctx.PlayerCount).
		Msg("Closing lobby")
	return nil
}

func (s *LobbyState) Validate(ctx *GameContext) error {
	if ctx.MaxPlayers < 1 {
		return fmt.Errorf("max players must be at least 1, got %d", ctx.MaxPlayers)
	}
	return nil
}

// PlacementState represents the base placement phase
type PlacementState struct{}

func NewPlacementState() State {
	return &PlacementState{}
}

func (s *PlacementState) Phase() GamePhase {
	return PhasePlacement
}

func (s *PlacementState) Enter(ctx *GameContext) error {
	ctx.PlacementStart = ctx.Now()
	ctx.PlacedCount = 0
	ctx.Logger.Info().
		Int("player_count", ctx.PlayerCount).
		Msg("Placement started")
	return nil
}

func (s *PlacementState) Exit(ctx *GameContext) error {
	ctx.Logger.Debug().
		Dur("placement_duration", ctx.Now().Sub(ctx.PlacementStart)).
		Msg("All bases placed")
	return nil
}

func (s *PlacementState) Validate(ctx *GameContext) error {
	if !ctx.IsReady() {
		return fmt.Errorf("cannot start placement with %d players (max %d)", ctx.PlayerCount, ctx.MaxPlayers)
	}
	return nil
}

// PlayingState represents active gameplay
type PlayingState struct{}

func NewPlayingState() State {
	return &PlayingState{}
}

func (s *PlayingState) Phase() GamePhase {
	return PhasePlaying
}

func (s *PlayingState) Enter(ctx *GameContext) error {
	ctx.PlayStart = ctx.Now()
	ctx.Logger.Info().
		Time("start_time", ctx.PlayStart).
		Msg("Game started")
	return nil
}

func (s *PlayingState) Exit(ctx *GameContext) error {
	ctx.Logger.Info().
		Dur("elapsed", ctx.Now().Sub(ctx.PlayStart)).
		Msg("Exiting playing state")
	return nil
}

func (s *PlayingState) Validate(ctx *GameContext) error {
	if !ctx.AllPlaced() {
		return fmt.Errorf("only %d of %d players have placed a base", ctx.PlacedCount, ctx.PlayerCount)
	}
	return nil
}

// FinishedState represents a completed match
type FinishedState struct{}

func NewFinishedState() State {
	return &FinishedState{}
}

func (s *FinishedState) Phase() GamePhase {
	return PhaseFinished
}

func (s *FinishedState) Enter(ctx *GameContext) error {
	ctx.EndTime = ctx.Now()
	ctx.Logger.Info().
		Str("winner", ctx.Winner).
		Dur("game_duration", ctx.GetElapsedTime()).
		Msg("Game ended")
	return nil
}

func (s *FinishedState) Exit(ctx *GameContext) error {
	return fmt.Errorf("finished is terminal")
}

func (s *FinishedState) Validate(ctx *GameContext) error {
	if ctx.Winner == "" {
		return fmt.Errorf("finished state requires a winner")
	}
	return nil
}
