package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/testutil"
)

func TestExpand_NeutralCell(t *testing.T) {
	f := newPlayingRoom(t)

	res := f.room.Expand(f.alice, 7, 6)
	require.True(t, res.Success, res.Reason)
	assert.False(t, res.Conquered)

	c := f.cell(7, 6)
	assert.Equal(t, f.alice, c.Owner)
	assert.Equal(t, 5.0, c.Troops)

	a := f.actor(f.alice)
	assert.Equal(t, 950.0, a.Gold)
	assert.Equal(t, 6, a.Cells)
	assert.InDelta(t, cellTroops(f.room.grid, f.alice), a.Troops, 1e-9)

	updates := f.rec.ofType(events.TypeGridUpdate)
	require.Len(t, updates, 1, "successful actions broadcast at once")
	changes := updates[0].(*events.GridUpdateEvent).Changes
	require.Len(t, changes, 1)
	assert.Equal(t, 7, changes[0].X)
	assert.Equal(t, 6, changes[0].Y)
}

func TestExpand_Rejections(t *testing.T) {
	f := newPlayingRoom(t)
	f.cell(7, 4).Type = core.Water

	tests := []struct {
		name   string
		actor  string
		x, y   int
		reason string
	}{
		{"out of bounds", f.alice, -1, 5, "Invalid position"},
		{"water", f.alice, 7, 4, "Must be on land"},
		{"own cell", f.alice, 5, 5, "You already own this cell"},
		{"not adjacent", f.alice, 10, 10, "Must be adjacent to your territory"},
		{"unknown actor", "ghost", 7, 5, "Player not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.room.Expand(tt.actor, tt.x, tt.y)
			assert.False(t, res.Success)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}

	f.actor(f.alice).Gold = 49
	res := f.room.Expand(f.alice, 7, 5)
	assert.Equal(t, "Insufficient gold", res.Reason)
	assert.False(t, f.cell(7, 5).IsOwned())
	assert.Empty(t, f.rec.ofType(events.TypeGridUpdate), "failed actions broadcast nothing")
}

// Every cell that does not touch the actor's territory must be refused,
// whatever its position on the grid.
func TestExpand_AdjacencyRequiredEverywhere(t *testing.T) {
	f := newPlayingRoom(t)
	g := f.room.grid

	for i := range g.C {
		c := &g.C[i]
		if c.IsOwned() || g.IsAdjacentToPlayer(c.X, c.Y, f.alice) {
			continue
		}
		res := f.room.Expand(f.alice, c.X, c.Y)
		require.False(t, res.Success, "cell (%d,%d)", c.X, c.Y)
		require.Equal(t, "Must be adjacent to your territory", res.Reason, "cell (%d,%d)", c.X, c.Y)
	}
	assert.Equal(t, 1000.0, f.actor(f.alice).Gold)
	assert.Len(t, g.PlayerCells(f.alice), 5)
}

func TestExpand_ConquestCostsAndGarrison(t *testing.T) {
	f := newPlayingRoom(t)
	f.own(7, 5, f.bob, 10)
	f.cell(7, 5).Building = core.BuildingCity
	f.rec.reset()

	res := f.room.Expand(f.alice, 7, 5)
	require.True(t, res.Success, res.Reason)
	assert.True(t, res.Conquered)

	// Own support is the 20 troops on (6,5). Losses 10*0.7 = 7, garrison
	// (20-10)*0.5 = 5, both charged to (6,5).
	c := f.cell(7, 5)
	assert.Equal(t, f.alice, c.Owner)
	assert.InDelta(t, 5.0, c.Troops, 1e-9)
	assert.Equal(t, core.BuildingNone, c.Building, "buildings are destroyed on capture")
	assert.InDelta(t, 8.0, f.cell(6, 5).Troops, 1e-9)
	assert.InDelta(t, 20.0, f.cell(5, 5).Troops, 1e-9, "cells out of reach are not charged")

	a, b := f.actor(f.alice), f.actor(f.bob)
	assert.Equal(t, 1, a.Conquests)
	assert.Equal(t, 950.0, a.Gold)
	assert.Equal(t, 6, a.Cells)
	assert.Equal(t, 5, b.Cells)
	assert.InDelta(t, cellTroops(f.room.grid, f.alice), a.Troops, 1e-9)
	assert.InDelta(t, cellTroops(f.room.grid, f.bob), b.Troops, 1e-9)
	assert.False(t, b.Eliminated)

	combat := f.rec.ofType(events.TypeCombatResolved)
	require.Len(t, combat, 1)
	ev := combat[0].(*events.CombatResolvedEvent)
	assert.Equal(t, f.bob, ev.DefenderID)
	assert.InDelta(t, 7.0, ev.AttackerLosses, 1e-9)
	assert.Equal(t, core.BuildingCity, ev.BuildingDestroyed)
}

// An attack that does not strictly exceed the defender always fails and
// leaves every troop count untouched.
func TestExpand_CombatMonotonicity(t *testing.T) {
	rng := testutil.NewTestRNG(7)

	for i := 0; i < 50; i++ {
		f := newPlayingRoom(t)
		own := rng.Float64() * 40
		f.own(6, 5, f.alice, own)
		f.own(7, 5, f.bob, own+rng.Float64()*10)
		if i%5 == 0 {
			f.own(7, 5, f.bob, own)
		}

		before := append([]core.Cell(nil), f.room.grid.C...)
		aliceTroops, bobTroops := f.actor(f.alice).Troops, f.actor(f.bob).Troops

		res := f.room.Expand(f.alice, 7, 5)
		require.False(t, res.Success, "iteration %d", i)
		require.Equal(t, "Not enough adjacent troops", res.Reason)
		require.Equal(t, before, f.room.grid.C, "iteration %d", i)
		require.Equal(t, aliceTroops, f.actor(f.alice).Troops)
		require.Equal(t, bobTroops, f.actor(f.bob).Troops)
		require.Equal(t, 1000.0, f.actor(f.alice).Gold)
	}
}

func TestExpand_AlliedTargetRefused(t *testing.T) {
	f := newPlayingRoom(t)
	f.own(7, 5, f.bob, 1)
	require.True(t, f.room.ProposeAlliance(f.alice, f.bob).Success)
	require.True(t, f.room.ProposeAlliance(f.bob, f.alice).Success)

	res := f.room.Expand(f.alice, 7, 5)
	assert.False(t, res.Success)
	assert.Equal(t, "Cannot attack an ally", res.Reason)
	assert.Equal(t, f.bob, f.cell(7, 5).Owner)
}

func TestExpand_LastCellEliminatesDefender(t *testing.T) {
	f := newPlayingRoom(t)
	for _, c := range f.room.grid.PlayerCells(f.bob) {
		c.Release()
	}
	f.own(7, 5, f.bob, 1)
	f.rec.reset()

	res := f.room.Expand(f.alice, 7, 5)
	require.True(t, res.Success, res.Reason)

	b := f.actor(f.bob)
	assert.True(t, b.Eliminated)
	assert.Zero(t, b.Cells)
	assert.Equal(t, 1, f.actor(f.alice).Kills)

	elim := f.rec.ofType(events.TypeActorEliminated)
	require.Len(t, elim, 1)
	assert.Equal(t, f.alice, elim[0].(*events.ActorEliminatedEvent).EliminatedBy)

	assert.Equal(t, "You have been eliminated", f.room.Reinforce(f.bob, 20, 20, 1).Reason)
}

func TestAdjacentStrength(t *testing.T) {
	g := core.NewLandGrid(5, 5)
	g.GetCell(1, 1).Owner, g.GetCell(1, 1).Troops = "a", 10
	g.GetCell(2, 1).Owner, g.GetCell(2, 1).Troops = "a", 6
	g.GetCell(3, 3).Owner, g.GetCell(3, 3).Troops = "ally", 8
	g.GetCell(1, 3).Owner, g.GetCell(1, 3).Troops = "enemy", 50

	a := newActor("a", "a", "#fff", 0, 0, &Human{})
	a.Alliances["ally"] = true

	s := AdjacentStrength(g, 2, 2, a, 0.5)
	assert.Equal(t, 16.0, s.Own)
	assert.Equal(t, 8.0, s.Allied)
	assert.Equal(t, 20.0, s.Total)
}

func TestReinforce(t *testing.T) {
	f := newPlayingRoom(t)

	res := f.room.Reinforce(f.alice, 5, 5, 10)
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, 30.0, f.cell(5, 5).Troops)
	assert.Equal(t, 900.0, f.actor(f.alice).Gold)
	assert.InDelta(t, cellTroops(f.room.grid, f.alice), f.actor(f.alice).Troops, 1e-9)

	tests := []struct {
		name   string
		x, y   int
		count  int
		reason string
	}{
		{"zero troops", 5, 5, 0, "Invalid amount"},
		{"not owned", 20, 20, 1, "Not your territory"},
		{"too expensive", 5, 5, 91, "Insufficient gold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.room.Reinforce(f.alice, tt.x, tt.y, tt.count)
			assert.False(t, res.Success)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
	assert.Equal(t, 900.0, f.actor(f.alice).Gold)
}

func TestBuild(t *testing.T) {
	f := newPlayingRoom(t)

	res := f.room.Build(f.alice, 5, 5, core.BuildingOutpost)
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, core.BuildingOutpost, f.cell(5, 5).Building)
	assert.Equal(t, 800.0, f.actor(f.alice).Gold)

	tests := []struct {
		name     string
		x, y     int
		building core.BuildingType
		reason   string
	}{
		{"building present", 5, 5, core.BuildingCity, "A building is already there"},
		{"not owned", 20, 20, core.BuildingCity, "Not your territory"},
		{"unknown type", 5, 4, core.BuildingNone, "Unknown building type"},
		{"port inland", 5, 4, core.BuildingPort, "Ports must be built on the coast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.room.Build(f.alice, tt.x, tt.y, tt.building)
			assert.False(t, res.Success)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}

	f.cell(4, 3).Type = core.Water
	res = f.room.Build(f.alice, 5, 4, core.BuildingPort)
	assert.True(t, res.Success, res.Reason)
}

func TestBuild_WithoutGold(t *testing.T) {
	f := newPlayingRoom(t)
	f.actor(f.alice).Gold = 0

	res := f.room.Build(f.alice, 5, 5, core.BuildingCity)

	assert.False(t, res.Success)
	assert.Equal(t, "Insufficient gold", res.Reason)
	assert.Equal(t, core.BuildingNone, f.cell(5, 5).Building)
}

func TestActions_WrongPhase(t *testing.T) {
	f := newLobby(t, testRules())
	alice, err := f.room.Join("alice", "s1")
	require.NoError(t, err)

	assert.Equal(t, "Not allowed in the current phase", f.room.Expand(alice.ID, 1, 1).Reason)
	assert.Equal(t, "Not allowed in the current phase", f.room.Build(alice.ID, 1, 1, core.BuildingCity).Reason)
}
