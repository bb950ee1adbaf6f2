package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/testutil"
)

func newProductionFixture(t *testing.T) (*ProductionManager, *core.Grid, map[string]*Actor, *recorder) {
	t.Helper()
	rules := DefaultRules()
	bus := events.NewEventBus()
	rec := &recorder{}
	bus.Subscribe(rec)

	grid := core.NewLandGrid(10, 10)
	actors := map[string]*Actor{
		"a": newActor("a", "A", "#fff", 0, 0, &Human{}),
		"b": newActor("b", "B", "#000", 0, 1, &Human{}),
	}
	return NewProductionManager(bus, "ROOM01", &rules, testutil.NopLogger()), grid, actors, rec
}

func TestProductionManager_ProcessIncome(t *testing.T) {
	pm, grid, actors, rec := newProductionFixture(t)
	for x := 0; x < 4; x++ {
		grid.GetCell(x, 0).Owner = "a"
		grid.GetCell(x, 0).Troops = 10
	}
	grid.GetCell(0, 0).Building = core.BuildingCity
	grid.GetCell(1, 0).Building = core.BuildingBarracks

	pm.ProcessIncome(grid, actors, []string{"a", "b"}, 10)

	// One pass covers 10 ticks of 100ms. Gold: 4 cells + city 5.
	// Troops: 0.4 + city 0.5 + barracks 2, spread over 4 cells.
	a := actors["a"]
	assert.InDelta(t, 9.0, a.Gold, 1e-9)
	assert.InDelta(t, 9.0, a.Income, 1e-9)
	assert.Equal(t, 4, a.Cells)
	assert.InDelta(t, 42.9, a.Troops, 1e-9)
	for x := 0; x < 4; x++ {
		assert.InDelta(t, 10.725, grid.GetCell(x, 0).Troops, 1e-9)
	}
	assert.InDelta(t, cellTroops(grid, "a"), a.Troops, 1e-9)

	b := actors["b"]
	assert.Zero(t, b.Gold, "actors without cells earn nothing")
	assert.Zero(t, b.Cells)

	applied := rec.ofType(events.TypeIncomeApplied)
	require.Len(t, applied, 1)
	assert.InDelta(t, 9.0, applied[0].(*events.IncomeAppliedEvent).GoldGenerated, 1e-9)
}

func TestProductionManager_AllianceMultiplier(t *testing.T) {
	pm, grid, actors, _ := newProductionFixture(t)
	grid.GetCell(0, 0).Owner = "a"
	grid.GetCell(9, 9).Owner = "b"
	actors["a"].Alliances["b"] = true
	actors["a"].Alliances["c"] = true

	pm.ProcessIncome(grid, actors, []string{"a", "b"}, 10)

	assert.InDelta(t, 1.2, actors["a"].Gold, 1e-9, "two allies add 20%")
	assert.InDelta(t, 1.0, actors["b"].Gold, 1e-9)
}

func TestProductionManager_RecomputeDerivedFixesDrift(t *testing.T) {
	pm, grid, actors, _ := newProductionFixture(t)
	grid.GetCell(2, 2).Owner = "a"
	grid.GetCell(2, 2).Troops = 7
	actors["a"].Troops = 1234
	actors["b"].Cells = 3

	pm.RecomputeDerived(grid, actors)

	assert.Equal(t, 7.0, actors["a"].Troops)
	assert.Equal(t, 1, actors["a"].Cells)
	assert.Zero(t, actors["b"].Cells)
}
