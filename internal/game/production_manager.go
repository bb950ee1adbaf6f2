package game

import (
	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// ProductionManager handles gold and troop production for all actors
type ProductionManager struct {
	eventBus *events.EventBus
	gameID   string
	rules    *Rules
	logger   zerolog.Logger
}

// NewProductionManager creates a new production manager
func NewProductionManager(eventBus *events.EventBus, gameID string, rules *Rules, logger zerolog.Logger) *ProductionManager {
	return &ProductionManager{
		eventBus: eventBus,
		gameID:   gameID,
		rules:    rules,
		logger:   logger.With().Str("component", "ProductionManager").Str("room", gameID).Logger(),
	}
}

// holding is what one actor owns, gathered in a single grid scan.
type holding struct {
	cells     []*core.Cell
	troops    float64
	buildings map[core.BuildingType]int
}

func collectHoldings(grid *core.Grid) map[string]*holding {
	out := make(map[string]*holding)
	for i := range grid.C {
		c := &grid.C[i]
		if !c.IsOwned() {
			continue
		}
		h := out[c.Owner]
		if h == nil {
			h = &holding{buildings: make(map[core.BuildingType]int)}
			out[c.Owner] = h
		}
		h.cells = append(h.cells, c)
		h.troops += c.Troops
		if c.HasBuilding() {
			h.buildings[c.Building]++
		}
	}
	return out
}

// rates returns the gold and troop rates per second of a holding. Gold is
// scaled by the alliance multiplier.
func (pm *ProductionManager) rates(h *holding, allies int) (gold, troops float64) {
	n := float64(len(h.cells))
	gold = n * pm.rules.CellGold
	troops = n * pm.rules.CellTroops
	for b, count := range h.buildings {
		spec, _ := pm.rules.Building(b)
		gold += spec.Gold * float64(count)
		troops += spec.Troops * float64(count)
	}
	gold *= 1 + pm.rules.AllianceBonus*float64(allies)
	return gold, troops
}

// ProcessIncome credits one income pass to every actor and spreads the new
// troops evenly across each actor's cells. It also re-derives Troops, Cells
// and Income from the grid, which is where drift would be corrected.
func (pm *ProductionManager) ProcessIncome(grid *core.Grid, actors map[string]*Actor, order []string, tick int) {
	secs := pm.rules.IncomeSeconds()
	holdings := collectHoldings(grid)

	totalGold, totalTroops := 0.0, 0.0
	for _, id := range order {
		a := actors[id]
		h := holdings[id]
		if h == nil || a.Eliminated {
			a.Troops, a.Cells, a.Income = 0, 0, 0
			continue
		}

		goldRate, troopRate := pm.rates(h, len(a.Alliances))
		gold := goldRate * secs
		troops := troopRate * secs
		per := troops / float64(len(h.cells))
		for _, c := range h.cells {
			c.Troops += per
		}

		a.Gold += gold
		a.Income = goldRate
		a.Cells = len(h.cells)
		a.Troops = h.troops + troops
		totalGold += gold
		totalTroops += troops
	}

	pm.logger.Debug().
		Int("tick", tick).
		Float64("gold", totalGold).
		Float64("troops", totalTroops).
		Msg("Income applied")
	if totalGold > 0 || totalTroops > 0 {
		pm.eventBus.Publish(events.NewIncomeAppliedEvent(pm.gameID, tick, totalGold, totalTroops))
	}
}

// RecomputeDerived re-derives Troops and Cells from the grid without
// producing anything.
func (pm *ProductionManager) RecomputeDerived(grid *core.Grid, actors map[string]*Actor) {
	holdings := collectHoldings(grid)
	for id, a := range actors {
		if h := holdings[id]; h != nil {
			a.Troops, a.Cells = h.troops, len(h.cells)
		} else {
			a.Troops, a.Cells = 0, 0
		}
	}
}
