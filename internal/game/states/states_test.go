package states

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStateImplementations(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("LobbyState", func(t *testing.T) {
		state := NewLobbyState()
		ctx := NewGameContext("test", 4, logger)

		assert.Equal(t, PhaseLobby, state.Phase())
		assert.NoError(t, state.Enter(ctx))
		assert.NoError(t, state.Exit(ctx))
		assert.NoError(t, state.Validate(ctx))

		ctx.MaxPlayers = 0
		err := state.Validate(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max players must be at least 1")
	})

	t.Run("PlacementState", func(t *testing.T) {
		state := NewPlacementState()
		ctx := NewGameContext("test", 4, logger)

		assert.Equal(t, PhasePlacement, state.Phase())

		ctx.PlayerCount = 0
		assert.Error(t, state.Validate(ctx))

		ctx.PlayerCount = 5
		assert.Error(t, state.Validate(ctx), "over capacity")

		ctx.PlayerCount = 4
		ctx.PlacedCount = 2
		assert.NoError(t, state.Validate(ctx))
		assert.NoError(t, state.Enter(ctx))
		assert.Zero(t, ctx.PlacedCount, "entering placement resets the placed counter")
		assert.False(t, ctx.PlacementStart.IsZero())
		assert.NoError(t, state.Exit(ctx))
	})

	t.Run("PlayingState", func(t *testing.T) {
		state := NewPlayingState()
		ctx := NewGameContext("test", 4, logger)
		ctx.PlayerCount = 4

		assert.Equal(t, PhasePlaying, state.Phase())

		ctx.PlacedCount = 3
		assert.Error(t, state.Validate(ctx))

		ctx.PlacedCount = 4
		assert.NoError(t, state.Validate(ctx))

		before := time.Now()
		assert.NoError(t, state.Enter(ctx))
		assert.False(t, ctx.PlayStart.Before(before))
		assert.NoError(t, state.Exit(ctx))
	})

	t.Run("FinishedState", func(t *testing.T) {
		state := NewFinishedState()
		ctx := NewGameContext("test", 4, logger)

		assert.Equal(t, PhaseFinished, state.Phase())
		assert.Error(t, state.Validate(ctx))

		ctx.Winner = "actor-1"
		ctx.PlacementStart = time.Now().Add(-time.Minute)
		assert.NoError(t, state.Validate(ctx))
		assert.NoError(t, state.Enter(ctx))
		assert.False(t, ctx.EndTime.IsZero())
		assert.Error(t, state.Exit(ctx), "finished never exits")
	})
}
