package bot

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

func cells(n int) []*core.Cell {
	out := make([]*core.Cell, n)
	for i := range out {
		out[i] = &core.Cell{X: i}
	}
	return out
}

func TestSelectStrategy(t *testing.T) {
	threats := make([]Threat, 4)
	opportunities := make([]Opportunity, 6)
	rivals := make([]Rival, 3)

	tests := []struct {
		name     string
		s        Situation
		profile  Profile
		expected Strategy
	}{
		{
			name:     "many threats and a thin border",
			s:        Situation{Cells: cells(20), Threats: threats, Military: Military{Ratio: 0.1}},
			expected: Defensive,
		},
		{
			name:     "many threats but a strong border",
			s:        Situation{Cells: cells(20), Threats: threats, Military: Military{Ratio: 0.5}},
			expected: Balanced,
		},
		{
			name:     "large and rich",
			s:        Situation{Cells: cells(20), Control: 0.4, Gold: 2500},
			expected: Aggressive,
		},
		{
			name:     "small territory",
			s:        Situation{Cells: cells(5), Opportunities: opportunities},
			expected: Economic,
		},
		{
			name:     "lots of room to grow",
			s:        Situation{Cells: cells(20), Opportunities: opportunities},
			expected: Expansion,
		},
		{
			name:     "crowded room and a friendly tier",
			s:        Situation{Cells: cells(20), Rivals: rivals},
			profile:  Profile{AllianceProbability: 1},
			expected: Diplomatic,
		},
		{
			name:     "crowded room and a hostile tier",
			s:        Situation{Cells: cells(20), Rivals: rivals},
			profile:  Profile{AllianceProbability: 0},
			expected: Balanced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(1))
			assert.Equal(t, tt.expected, SelectStrategy(&tt.s, tt.profile, rng))
		})
	}
}

const plannerBot = "bot_1"

// newPlanner gives the bot the two left columns of a 5x5 land grid with
// ten troops per cell.
func newPlanner(gold float64, profile Profile, seed int64) (*planner, *fakeActions) {
	g := core.NewLandGrid(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 2; x++ {
			c := g.GetCell(x, y)
			c.Owner = plannerBot
			c.Troops = 10
		}
	}
	self := &game.Actor{ID: plannerBot, Gold: gold, Alliances: make(map[string]bool)}
	rules := game.DefaultRules()
	actions := &fakeActions{}
	turn := &game.BotTurn{Self: self, Grid: g, Rules: &rules, Actions: actions}
	return &planner{
		turn:    turn,
		s:       &Situation{Cells: g.PlayerCells(plannerBot), Gold: gold},
		profile: profile,
		rng:     rand.New(rand.NewSource(seed)),
	}, actions
}

// enemyAt gives (x,y) to owner with a single troop.
func enemyAt(p *planner, owner string, x, y int) Opportunity {
	c := p.grid().GetCell(x, y)
	c.Owner = owner
	c.Troops = 1
	return Opportunity{X: x, Y: y, Owner: owner, Troops: 1}
}

func neutral(x, y int) Opportunity { return Opportunity{X: x, Y: y} }

func TestPlanner_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		gold     float64
		strategy Strategy
		setup    func(p *planner)
		expected []string
	}{
		{
			name:     "defensive reinforces the border and fortifies the threatened corner",
			gold:     1000,
			strategy: Defensive,
			setup: func(p *planner) {
				p.s.Threats = []Threat{{X: 2, Y: 4, Owner: "rival"}, {X: 3, Y: 4, Owner: "rival"}}
			},
			expected: []string{"reinforce:1,0:10", "build:1,4:outpost"},
		},
		{
			name:     "defensive without gold does nothing",
			gold:     50,
			strategy: Defensive,
			expected: nil,
		},
		{
			name:     "economic builds a city on the best interior cell",
			gold:     1000,
			strategy: Economic,
			expected: []string{"build:0,1:city"},
		},
		{
			name:     "economic falls back to a port on the coast",
			gold:     400,
			strategy: Economic,
			setup:    func(p *planner) { p.grid().GetCell(2, 2).Type = core.Water },
			expected: []string{"build:1,1:port"},
		},
		{
			name:     "economic claims neutral land when it cannot build",
			gold:     100,
			strategy: Economic,
			setup: func(p *planner) {
				p.s.Opportunities = []Opportunity{enemyAt(p, "rival", 2, 0), neutral(2, 1)}
			},
			expected: []string{"expand:2,1"},
		},
		{
			name:     "aggressive attacks the weakest rival then takes the best opportunity",
			gold:     1000,
			strategy: Aggressive,
			setup: func(p *planner) {
				enemyAt(p, "weak", 2, 0)
				p.s.Rivals = []Rival{{ID: "strong", Strength: 0.9}, {ID: "weak", Strength: 0.2}}
				p.s.Opportunities = []Opportunity{neutral(2, 2)}
			},
			expected: []string{"expand:2,0", "expand:2,2"},
		},
		{
			name:     "aggressive spares allies",
			gold:     1000,
			strategy: Aggressive,
			setup: func(p *planner) {
				enemyAt(p, "friend", 2, 0)
				p.self().Alliances["friend"] = true
				p.s.Rivals = []Rival{{ID: "friend", Strength: 0.1, IsAlly: true}}
			},
			expected: nil,
		},
		{
			name:     "expansion claims the top neutral opportunities",
			gold:     300,
			strategy: Expansion,
			setup: func(p *planner) {
				p.s.Opportunities = []Opportunity{neutral(2, 0), neutral(2, 1), neutral(2, 2)}
			},
			expected: []string{"expand:2,0", "expand:2,1"},
		},
		{
			name:     "diplomatic courts a human, gifts an ally and builds",
			gold:     1500,
			strategy: Diplomatic,
			setup: func(p *planner) {
				p.self().Alliances["ally"] = true
				p.s.Rivals = []Rival{
					{ID: "ally", Strength: 0.8, IsAlly: true},
					{ID: "human", Strength: 0.5},
					{ID: "bot_2", Strength: 0.4, IsBot: true},
				}
			},
			expected: []string{"propose:human", "offer:ally:200:0", "build:0,1:city"},
		},
		{
			name:     "diplomatic keeps its gold below the gift threshold",
			gold:     900,
			strategy: Diplomatic,
			setup: func(p *planner) {
				p.self().Alliances["ally"] = true
				p.s.Rivals = []Rival{{ID: "ally", Strength: 0.8, IsAlly: true}, {ID: "human", Strength: 0.5}}
			},
			expected: []string{"propose:human", "build:0,1:city"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, actions := newPlanner(tt.gold, ProfileFor(Medium), 1)
			if tt.setup != nil {
				tt.setup(p)
			}
			p.execute(tt.strategy)
			assert.Equal(t, tt.expected, actions.calls)
		})
	}
}

func TestPlanner_RandomMakesOneMove(t *testing.T) {
	kinds := make(map[string]bool)
	for seed := int64(1); seed <= 20; seed++ {
		p, actions := newPlanner(1000, ProfileFor(Easy), seed)
		p.s.Opportunities = []Opportunity{neutral(2, 0), neutral(2, 1)}

		p.execute(Random)

		require.Len(t, actions.calls, 1, "seed %d", seed)
		kind := actions.calls[0][:strings.Index(actions.calls[0], ":")]
		assert.Contains(t, []string{"expand", "build"}, kind)
		kinds[kind] = true
	}
	assert.Len(t, kinds, 2, "both expansions and buildings should come up")
}

func TestPlanner_AggressivenessSetsRivalCutoff(t *testing.T) {
	run := func(aggressiveness float64) []string {
		p, actions := newPlanner(1000, Profile{TroopEfficiency: 1, Aggressiveness: aggressiveness}, 1)
		enemyAt(p, "mid", 2, 0)
		p.s.Rivals = []Rival{{ID: "mid", Strength: 0.55}}
		p.execute(Aggressive)
		return actions.calls
	}

	assert.Empty(t, run(0.2), "a timid bot leaves a mid-strength rival alone")
	assert.Equal(t, []string{"expand:2,0"}, run(0.8))
}

func TestPlanner_AggressivenessGatesCasualAttacks(t *testing.T) {
	attacks := func(aggressiveness float64) int {
		n := 0
		for seed := int64(1); seed <= 30; seed++ {
			p, actions := newPlanner(60, Profile{TroopEfficiency: 1, Aggressiveness: aggressiveness, ExpansionRate: 1}, seed)
			p.s.Opportunities = []Opportunity{enemyAt(p, "rival", 2, 0)}
			p.execute(Balanced)
			n += len(actions.calls)
		}
		return n
	}

	assert.Zero(t, attacks(0))
	assert.Positive(t, attacks(1))
}

func TestPlanner_ExpansionRateSetsClaimsPerDecision(t *testing.T) {
	claims := func(rate float64) int {
		p, actions := newPlanner(300, Profile{ExpansionRate: rate}, 1)
		for y := 0; y < 5; y++ {
			p.s.Opportunities = append(p.s.Opportunities, neutral(2, y))
		}
		p.execute(Expansion)
		return len(actions.calls)
	}

	assert.Equal(t, 1, claims(0.25))
	assert.Equal(t, 4, claims(1))
	assert.Less(t, claims(ProfileFor(Easy).ExpansionRate), claims(ProfileFor(Insane).ExpansionRate))
}
