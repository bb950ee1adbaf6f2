package bot

import (
	"sort"

	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/rules"
)

const (
	threatThreshold = 0.5
	// conquestMargin is the troop margin over the defender that makes an
	// enemy cell an opportunity.
	conquestMargin = 5.0
)

// Threat is an enemy cell bordering the bot.
type Threat struct {
	X, Y   int
	Owner  string
	Level  float64
	Troops float64
}

// Opportunity is a cell the bot could expand into.
type Opportunity struct {
	X, Y   int
	Owner  string // core.NoOwner for neutral land
	Troops float64
	Value  float64
}

func (o Opportunity) Neutral() bool { return o.Owner == core.NoOwner }

// Military summarises where the bot's troops are.
type Military struct {
	Total  float64
	Border float64
	// Ratio is Border / (Total+1).
	Ratio float64
}

// Rival is another actor as seen by the bot.
type Rival struct {
	ID       string
	Name     string
	Cells    int
	Strength float64
	IsAlly   bool
	IsBot    bool
}

// Situation is the bot's view of the match for one decision.
type Situation struct {
	Cells         []*core.Cell
	LandCells     int
	Control       float64
	Threats       []Threat      // strongest first
	Opportunities []Opportunity // best first
	Military      Military
	Rivals        []Rival // strongest first
	Gold          float64
	Income        float64
	Troops        float64
}

var legalMoves = rules.NewLegalMoveCalculator()

// Analyze builds the situation of turn.Self.
func Analyze(turn *game.BotTurn) *Situation {
	self := turn.Self
	g := turn.Grid

	s := &Situation{
		Cells:     g.PlayerCells(self.ID),
		LandCells: g.CountLand(),
		Gold:      self.Gold,
		Income:    self.Income,
		Troops:    self.Troops,
	}
	if s.LandCells > 0 {
		s.Control = float64(len(s.Cells)) / float64(s.LandCells)
	}

	strength := make(map[string]float64)
	for _, a := range turn.Actors() {
		strength[a.ID] = Strength(a)
		s.Rivals = append(s.Rivals, Rival{
			ID:       a.ID,
			Name:     a.Name,
			Cells:    a.Cells,
			Strength: strength[a.ID],
			IsAlly:   self.IsAlliedWith(a.ID),
			IsBot:    a.IsBot(),
		})
	}
	sort.SliceStable(s.Rivals, func(i, j int) bool { return s.Rivals[i].Strength > s.Rivals[j].Strength })

	s.Threats = detectThreats(g, self, s.Cells)
	s.Opportunities = findOpportunities(turn, strength)
	s.Military = militaryOf(g, self.ID, s.Cells)
	return s
}

// Strength is the composite score used to rank actors.
func Strength(a *game.Actor) float64 {
	return (float64(a.Cells)*10 + a.Gold*0.1 + a.Troops) / 1000
}

func detectThreats(g *core.Grid, self *game.Actor, cells []*core.Cell) []Threat {
	var threats []Threat
	for _, c := range cells {
		for _, n := range g.Adjacent(c.X, c.Y) {
			if !n.IsOwned() || n.OwnedBy(self.ID) || self.IsAlliedWith(n.Owner) {
				continue
			}
			level := threatLevel(c, n)
			if level > threatThreshold {
				threats = append(threats, Threat{X: n.X, Y: n.Y, Owner: n.Owner, Level: level, Troops: n.Troops})
			}
		}
	}
	sort.SliceStable(threats, func(i, j int) bool { return threats[i].Level > threats[j].Level })
	return threats
}

// threatLevel is the enemy/own troop ratio, discounted when the own cell
// has a building, capped at 1.
func threatLevel(own, enemy *core.Cell) float64 {
	ratio := enemy.Troops / (own.Troops + 1)
	if own.HasBuilding() {
		ratio *= 0.8
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func findOpportunities(turn *game.BotTurn, strength map[string]float64) []Opportunity {
	self := turn.Self
	g := turn.Grid

	var out []Opportunity
	for _, idx := range legalMoves.ExpansionTargets(g, self.ID, self.IsAlliedWith) {
		c := &g.C[idx]
		o := Opportunity{X: c.X, Y: c.Y, Owner: c.Owner, Troops: c.Troops}
		if !c.IsOwned() {
			o.Value = 1.0
			if g.IsCoastal(c.X, c.Y) {
				o.Value += 0.3
			}
			if ownNeighbours(g, c.X, c.Y, self.ID) >= 2 {
				o.Value += 0.5
			}
		} else {
			adj := game.AdjacentStrength(g, c.X, c.Y, self, turn.Rules.AlliedSupportFactor).Total
			if adj <= c.Troops+conquestMargin {
				continue
			}
			o.Value = 0.6
			if strength[c.Owner] < 0.3 {
				o.Value += 0.4
			}
			if c.HasBuilding() {
				o.Value += 0.5
			}
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func ownNeighbours(g *core.Grid, x, y int, id string) int {
	n := 0
	for _, c := range g.Adjacent(x, y) {
		if c.OwnedBy(id) {
			n++
		}
	}
	return n
}

// isBorder reports whether (x,y) touches land the actor does not own.
func isBorder(g *core.Grid, x, y int, id string) bool {
	for _, n := range g.Adjacent(x, y) {
		if n.IsLand() && !n.OwnedBy(id) {
			return true
		}
	}
	return false
}

func militaryOf(g *core.Grid, id string, cells []*core.Cell) Military {
	var m Military
	for _, c := range cells {
		m.Total += c.Troops
		if isBorder(g, c.X, c.Y, id) {
			m.Border += c.Troops
		}
	}
	m.Ratio = m.Border / (m.Total + 1)
	return m
}
