package bot

import (
	"math"
	"math/rand"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

// Strategy is the label of one decision behaviour.
type Strategy string

const (
	Defensive  Strategy = "defensive"
	Aggressive Strategy = "aggressive"
	Economic   Strategy = "economic"
	Expansion  Strategy = "expansion"
	Diplomatic Strategy = "diplomatic"
	Balanced   Strategy = "balanced"
	Random     Strategy = "random"
)

const giftGold = 200

// SelectStrategy picks the behaviour for this decision, first match wins.
func SelectStrategy(s *Situation, p Profile, rng *rand.Rand) Strategy {
	switch {
	case len(s.Threats) > 3 && s.Military.Ratio < 0.3:
		return Defensive
	case s.Control > 0.3 && s.Gold > 2000:
		return Aggressive
	case len(s.Cells) < 10:
		return Economic
	case len(s.Opportunities) > 5:
		return Expansion
	case len(s.Rivals) > 2 && rng.Float64() < p.AllianceProbability:
		return Diplomatic
	default:
		return Balanced
	}
}

// planner executes strategies for one bot turn.
type planner struct {
	turn    *game.BotTurn
	s       *Situation
	profile Profile
	rng     *rand.Rand
}

func (p *planner) self() *game.Actor { return p.turn.Self }
func (p *planner) grid() *core.Grid  { return p.turn.Grid }

func (p *planner) execute(strategy Strategy) {
	switch strategy {
	case Defensive:
		p.defensive()
	case Aggressive:
		p.aggressive()
	case Economic:
		p.economic()
	case Expansion:
		p.expansion()
	case Diplomatic:
		p.diplomatic()
	case Balanced:
		p.balanced()
	case Random:
		p.random()
	}
}

// buildingCost returns the price of b from the room rules.
func (p *planner) buildingCost(b core.BuildingType) float64 {
	spec, _ := p.turn.Rules.Building(b)
	return spec.Cost
}

func (p *planner) defensive() {
	for _, c := range p.borderCells() {
		if p.self().Gold >= 100 && c.Troops < 50 {
			p.turn.Actions.Reinforce(c.X, c.Y, 10)
			break
		}
	}
	if p.self().Gold >= p.buildingCost(core.BuildingOutpost) {
		if c := p.defensePoint(); c != nil {
			p.turn.Actions.Build(c.X, c.Y, core.BuildingOutpost)
		}
	}
}

func (p *planner) aggressive() {
	cutoff := p.rivalCutoff()
	for _, r := range p.weakestFirst() {
		if r.IsAlly || r.Strength >= cutoff {
			continue
		}
		for _, c := range p.grid().PlayerCells(r.ID) {
			if p.canConquer(c) {
				p.turn.Actions.Expand(c.X, c.Y)
				break
			}
		}
		break
	}
	if len(p.s.Opportunities) > 0 {
		best := p.s.Opportunities[0]
		if p.canExpandTo(best) {
			p.turn.Actions.Expand(best.X, best.Y)
		}
	}
}

func (p *planner) economic() {
	if spots := p.citySpots(); len(spots) > 0 && p.self().Gold >= p.buildingCost(core.BuildingCity) {
		p.turn.Actions.Build(spots[0].X, spots[0].Y, core.BuildingCity)
		return
	}
	if p.self().Gold >= p.buildingCost(core.BuildingPort) {
		if spots := p.coastalSpots(); len(spots) > 0 {
			p.turn.Actions.Build(spots[0].X, spots[0].Y, core.BuildingPort)
			return
		}
	}
	for _, o := range p.s.Opportunities {
		if o.Neutral() {
			if p.canExpandTo(o) {
				p.turn.Actions.Expand(o.X, o.Y)
			}
			return
		}
	}
}

// expansion claims every reachable neutral cell among the best few
// opportunities; the tier's expansion rate sets how many.
func (p *planner) expansion() {
	top := p.s.Opportunities
	if n := p.expansionWindow(); len(top) > n {
		top = top[:n]
	}
	for _, o := range top {
		if o.Neutral() && p.canExpandTo(o) {
			p.turn.Actions.Expand(o.X, o.Y)
		}
	}
	if p.self().Gold >= p.buildingCost(core.BuildingBarracks) {
		if c := p.randomCell(p.freeCells(p.borderCells())); c != nil {
			p.turn.Actions.Build(c.X, c.Y, core.BuildingBarracks)
		}
	}
}

// diplomatic courts mid-strength humans, gifts gold to an ally when rich,
// then plays economically.
func (p *planner) diplomatic() {
	var candidates []Rival
	for _, r := range p.s.Rivals {
		if !r.IsAlly && !r.IsBot && r.Strength > 0.3 && r.Strength < 0.7 {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) > 0 {
		p.turn.Actions.ProposeAlliance(candidates[p.rng.Intn(len(candidates))].ID)
	}

	for _, r := range p.s.Rivals {
		if r.IsAlly && p.self().Gold > 1000 {
			p.turn.Actions.OfferTrade(r.ID, giftGold, 0)
			break
		}
	}
	p.economic()
}

// balanced rolls each sub-behaviour independently and runs one of the
// ones that came up.
func (p *planner) balanced() {
	var actions []func()

	// medium tier: 40%
	if p.rng.Float64() < 0.8*p.profile.ExpansionRate && len(p.s.Opportunities) > 0 {
		if o := p.s.Opportunities[0]; p.willAttack(o) && p.canExpandTo(o) {
			actions = append(actions, func() { p.turn.Actions.Expand(o.X, o.Y) })
		}
	}
	if p.rng.Float64() < 0.3 && p.self().Gold >= p.buildingCost(core.BuildingPort) {
		b := p.pickBuilding()
		if c := p.buildingSpot(b); c != nil {
			actions = append(actions, func() { p.turn.Actions.Build(c.X, c.Y, b) })
		}
	}
	if p.rng.Float64() < 0.2 && len(p.s.Threats) > 0 && p.self().Gold >= 100 {
		if c := p.closestCell(p.s.Threats[0].X, p.s.Threats[0].Y); c != nil {
			actions = append(actions, func() { p.turn.Actions.Reinforce(c.X, c.Y, 10) })
		}
	}
	if p.rng.Float64() < 0.1 {
		p.diplomatic()
		return
	}
	if len(actions) > 0 {
		actions[p.rng.Intn(len(actions))]()
	}
}

// random is the mistake path: a random expansion or a random building.
func (p *planner) random() {
	if p.rng.Intn(2) == 0 {
		if n := len(p.s.Opportunities); n > 0 {
			if o := p.s.Opportunities[p.rng.Intn(n)]; p.canExpandTo(o) {
				p.turn.Actions.Expand(o.X, o.Y)
			}
		}
		return
	}
	if p.self().Gold < p.buildingCost(core.BuildingOutpost) || len(p.s.Cells) == 0 {
		return
	}
	c := p.s.Cells[p.rng.Intn(len(p.s.Cells))]
	if !c.HasBuilding() {
		b := core.AllBuildings[p.rng.Intn(len(core.AllBuildings))]
		p.turn.Actions.Build(c.X, c.Y, b)
	}
}

// rivalCutoff is the strength above which aggressive play leaves a rival
// alone. Medium tier keeps to rivals below 0.5.
func (p *planner) rivalCutoff() float64 {
	return 0.3 + 0.5*p.profile.Aggressiveness
}

// expansionWindow is the number of top opportunities expansion claims
// per decision, at least one.
func (p *planner) expansionWindow() int {
	if n := int(math.Round(p.profile.ExpansionRate * 4)); n > 1 {
		return n
	}
	return 1
}

// willAttack decides whether a casual move goes after an enemy cell.
// Neutral cells are always fair game.
func (p *planner) willAttack(o Opportunity) bool {
	return o.Neutral() || p.rng.Float64() < p.profile.Aggressiveness
}

// canExpandTo: neutral cells need the gold, enemy cells also need a
// winning attack.
func (p *planner) canExpandTo(o Opportunity) bool {
	if p.self().Gold < p.turn.Rules.ExpandCost {
		return false
	}
	if o.Neutral() {
		return true
	}
	return p.canConquer(p.grid().GetCell(o.X, o.Y))
}

// canConquer applies the troop efficiency of the tier to the margin over
// the defender. The attack must still strictly exceed the defender.
func (p *planner) canConquer(c *core.Cell) bool {
	if c == nil || c.OwnedBy(p.self().ID) || !p.grid().IsAdjacentToPlayer(c.X, c.Y, p.self().ID) {
		return false
	}
	adj := game.AdjacentStrength(p.grid(), c.X, c.Y, p.self(), p.turn.Rules.AlliedSupportFactor).Total
	return adj > c.Troops && adj >= (c.Troops+conquestMargin)*p.profile.TroopEfficiency
}

func (p *planner) weakestFirst() []Rival {
	out := make([]Rival, len(p.s.Rivals))
	copy(out, p.s.Rivals)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (p *planner) borderCells() []*core.Cell {
	var out []*core.Cell
	for _, c := range p.s.Cells {
		if isBorder(p.grid(), c.X, c.Y, p.self().ID) {
			out = append(out, c)
		}
	}
	return out
}

func (p *planner) freeCells(cells []*core.Cell) []*core.Cell {
	var out []*core.Cell
	for _, c := range cells {
		if !c.HasBuilding() {
			out = append(out, c)
		}
	}
	return out
}

func (p *planner) randomCell(cells []*core.Cell) *core.Cell {
	if len(cells) == 0 {
		return nil
	}
	return cells[p.rng.Intn(len(cells))]
}

// defensePoint is the free border cell with the most threats within
// Manhattan distance 2.
func (p *planner) defensePoint() *core.Cell {
	var best *core.Cell
	bestThreats := -1
	for _, c := range p.freeCells(p.borderCells()) {
		n := 0
		for _, t := range p.s.Threats {
			if common.Abs(t.X-c.X)+common.Abs(t.Y-c.Y) <= 2 {
				n++
			}
		}
		if n > bestThreats {
			best, bestThreats = c, n
		}
	}
	return best
}

// citySpots returns up to three free cells, best first: well surrounded,
// interior, and away from other buildings.
func (p *planner) citySpots() []*core.Cell {
	type scored struct {
		c     *core.Cell
		score int
	}
	var all []scored
	for _, c := range p.freeCells(p.s.Cells) {
		score := 10 * ownNeighbours(p.grid(), c.X, c.Y, p.self().ID)
		if !isBorder(p.grid(), c.X, c.Y, p.self().ID) {
			score += 20
		}
		for _, n := range p.grid().Adjacent(c.X, c.Y) {
			if n.HasBuilding() {
				score -= 15
				break
			}
		}
		all = append(all, scored{c, score})
	}
	// insertion sort keeps equal scores in grid order
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].score > all[j-1].score; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	out := make([]*core.Cell, 0, 3)
	for i := 0; i < len(all) && i < 3; i++ {
		out = append(out, all[i].c)
	}
	return out
}

func (p *planner) coastalSpots() []*core.Cell {
	var out []*core.Cell
	for _, c := range p.freeCells(p.s.Cells) {
		if p.grid().IsCoastal(c.X, c.Y) {
			out = append(out, c)
		}
	}
	return out
}

// pickBuilding draws a building type weighted by what the bot can afford.
func (p *planner) pickBuilding() core.BuildingType {
	weights := []struct {
		b core.BuildingType
		w float64
	}{
		{core.BuildingCity, 0.4},
		{core.BuildingPort, 0.2},
		{core.BuildingOutpost, 0.2},
		{core.BuildingBarracks, 0.2},
	}
	roll := p.rng.Float64()
	cumulative := 0.0
	for _, w := range weights {
		if p.self().Gold < p.buildingCost(w.b) {
			continue
		}
		cumulative += w.w
		if roll < cumulative {
			return w.b
		}
	}
	return core.BuildingOutpost
}

func (p *planner) buildingSpot(b core.BuildingType) *core.Cell {
	free := p.freeCells(p.s.Cells)
	switch b {
	case core.BuildingPort:
		for _, c := range free {
			if p.grid().IsCoastal(c.X, c.Y) {
				return c
			}
		}
		return nil
	case core.BuildingOutpost, core.BuildingBarracks:
		var border []*core.Cell
		for _, c := range free {
			if isBorder(p.grid(), c.X, c.Y, p.self().ID) {
				border = append(border, c)
			}
		}
		if c := p.randomCell(border); c != nil {
			return c
		}
	}
	return p.randomCell(free)
}

// closestCell is the bot's cell nearest to (x,y) by Manhattan distance.
func (p *planner) closestCell(x, y int) *core.Cell {
	var best *core.Cell
	bestDist := -1
	for _, c := range p.s.Cells {
		d := common.Abs(c.X-x) + common.Abs(c.Y-y)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
