package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

func TestEventEnvelope_Mapping(t *testing.T) {
	offer := events.TradeSnapshot{ID: "trade_1", From: "p1", To: "p2", OfferGold: 100, RequestGold: 50}

	tests := []struct {
		name     string
		event    events.Event
		wantType string
	}{
		{"joined", events.NewActorJoinedEvent("R", events.ActorSnapshot{ID: "p1"}, "p1"), OutPlayerJoined},
		{"left", events.NewActorLeftEvent("R", "p1", "Alice", "p2", 4), OutPlayerLeft},
		{"eliminated", events.NewActorEliminatedEvent("R", "p1", "p2", 30), OutActorEliminated},
		{"started", events.NewGameStartedEvent("R", 4, 2, 40, 30), OutGameStarted},
		{"transition", events.NewStateTransitionEvent("R", "lobby", "placement", "host"), OutPhaseChanged},
		{"base placed", events.NewBasePlacedEvent("R", "p1", 3, 4, nil), OutBasePlaced},
		{"placement", events.NewPlacementUpdateEvent("R", []string{"p1"}, 2), OutPlacementUpdate},
		{"full state", events.NewFullStateEvent("R", events.RoomSnapshot{Code: "R"}), OutFullState},
		{"grid", events.NewGridUpdateEvent("R", 5, nil, nil), OutGridUpdate},
		{"combat", events.NewCombatResolvedEvent("R", "p1", "p2", core.Coordinate{X: 1, Y: 2}, 30, 10, 7, 13, core.BuildingCity), OutCombatEvent},
		{"proposal", events.NewAllianceProposedEvent("R", "p1", "Alice", "p2"), OutAllianceProposal},
		{"formed", events.NewAllianceFormedEvent("R", "p1", "p2"), OutAllianceFormed},
		{"broken", events.NewAllianceBrokenEvent("R", "p1", "p2"), OutAllianceBroken},
		{"offer", events.NewTradeOfferedEvent("R", offer, "Alice"), OutTradeOffer},
		{"completed", events.NewTradeCompletedEvent("R", offer), OutTradeCompleted},
		{"rejected", events.NewTradeRejectedEvent("R", offer, true), OutTradeRejected},
		{"ended", events.NewGameEndedEvent("R", events.ActorSnapshot{ID: "p1"}, time.Minute, 600, nil), OutGameOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok, err := eventEnvelope(tt.event)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, env.Type)
			assert.NotEmpty(t, env.Payload)
			assert.Empty(t, env.RequestID)
		})
	}
}

func TestEventEnvelope_IncomeIsInternal(t *testing.T) {
	_, ok, err := eventEnvelope(events.NewIncomeAppliedEvent("R", 10, 120, 40))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEventEnvelope_Payloads(t *testing.T) {
	env, _, err := eventEnvelope(events.NewCombatResolvedEvent("R", "p1", "p2", core.Coordinate{X: 1, Y: 2}, 30, 10, 7, 13, core.BuildingPort))
	require.NoError(t, err)
	combat := payloadOf[combatPayload](t, env)
	assert.Equal(t, 1, combat.X)
	assert.Equal(t, 2, combat.Y)
	assert.Equal(t, "port", combat.BuildingDestroyed)

	env, _, err = eventEnvelope(events.NewGameEndedEvent("R", events.ActorSnapshot{ID: "p1"}, 90*time.Second, 900, nil))
	require.NoError(t, err)
	over := payloadOf[gameOverPayload](t, env)
	assert.Equal(t, int64(90_000), over.Duration)
	assert.Equal(t, "p1", over.Winner.ID)

	env, _, err = eventEnvelope(events.NewAllianceFormedEvent("R", "p1", "p2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, payloadOf[allianceFormedPayload](t, env).Players)
}

func TestNewEnvelope_NilPayload(t *testing.T) {
	env, err := newEnvelope(MsgStartGame, "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, MsgStartGame, env.Type)
	assert.Equal(t, "s1", env.RequestID)
	assert.Empty(t, env.Payload)
}
