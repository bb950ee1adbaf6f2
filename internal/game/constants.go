package game

import (
	"time"

	"github.com/AIRF0X788/Op-V2/internal/config"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/mapgen"
)

// BuildingSpec is one row of the building table.
type BuildingSpec struct {
	Cost        float64
	Gold        float64 // per second
	Troops      float64 // per second
	CoastalOnly bool
	Defensive   bool
}

// Rules holds every tunable of a match. Rooms copy it at creation, so a
// config reload only affects rooms created afterwards.
type Rules struct {
	// Map
	MapWidth          int
	MapHeight         int
	MapThreshold      float64
	NoiseAmplitude    float64
	NoiseFrequency    float64
	RandomPhase       bool
	BaseRadius        int // area that must be free of other owners
	ClaimRadius       int // cells claimed by a base
	StartingTroops    float64
	PlacementAttempts int

	// Loop cadence, in ticks
	TickInterval time.Duration
	IncomeEvery  int
	BotEvery     int
	VictoryEvery int
	PurgeEvery   int

	// Economy, per second
	CellGold          float64
	CellTroops        float64
	AllianceBonus     float64
	StartingGoldHuman float64
	StartingGoldBot   float64
	ReinforceCost     float64

	// Expansion and combat
	ExpandCost          float64
	NeutralSeedTroops   float64
	AttackLossFactor    float64
	SurvivalFactor      float64
	AlliedSupportFactor float64
	DiffEpsilon         float64

	Buildings map[core.BuildingType]BuildingSpec

	// Match
	VictoryThreshold float64
	MinParticipants  int
	MaxPlayers       int
	AllianceTimeout  time.Duration
	TradeTimeout     time.Duration
	BotDifficulty    string
	BotThinkMin      time.Duration
	BotThinkMax      time.Duration
}

// DefaultRules returns the standard 150x100 ruleset.
func DefaultRules() Rules {
	return Rules{
		MapWidth:          150,
		MapHeight:         100,
		MapThreshold:      0.6,
		NoiseAmplitude:    0.3,
		NoiseFrequency:    0.1,
		BaseRadius:        15,
		ClaimRadius:       3,
		StartingTroops:    100,
		PlacementAttempts: 1000,

		TickInterval: 100 * time.Millisecond,
		IncomeEvery:  10,
		BotEvery:     5,
		VictoryEvery: 50,
		PurgeEvery:   10,

		CellGold:          1,
		CellTroops:        0.1,
		AllianceBonus:     0.1,
		StartingGoldHuman: 1000,
		StartingGoldBot:   500,
		ReinforceCost:     10,

		ExpandCost:          50,
		NeutralSeedTroops:   5,
		AttackLossFactor:    0.7,
		SurvivalFactor:      0.5,
		AlliedSupportFactor: 0.5,
		DiffEpsilon:         0.5,

		Buildings: map[core.BuildingType]BuildingSpec{
			core.BuildingCity:     {Cost: 500, Gold: 5, Troops: 0.5},
			core.BuildingPort:     {Cost: 300, Gold: 3, Troops: 0.2, CoastalOnly: true},
			core.BuildingOutpost:  {Cost: 200, Gold: 0.5, Troops: 0.5, Defensive: true},
			core.BuildingBarracks: {Cost: 400, Gold: 0, Troops: 2},
		},

		VictoryThreshold: 0.8,
		MinParticipants:  4,
		MaxPlayers:       12,
		AllianceTimeout:  60 * time.Second,
		TradeTimeout:     60 * time.Second,
		BotDifficulty:    "medium",
		BotThinkMin:      time.Second,
		BotThinkMax:      3 * time.Second,
	}
}

// RulesFromConfig builds the ruleset from the loaded configuration
func RulesFromConfig(c *config.Config) Rules {
	g := c.Game
	building := func(b config.BuildingConfig) BuildingSpec {
		return BuildingSpec{Cost: b.Cost, Gold: b.Gold, Troops: b.Troops}
	}
	port := building(g.Buildings.Port)
	port.CoastalOnly = true
	outpost := building(g.Buildings.Outpost)
	outpost.Defensive = true

	return Rules{
		MapWidth:          g.Map.Width,
		MapHeight:         g.Map.Height,
		MapThreshold:      g.Map.Threshold,
		NoiseAmplitude:    g.Map.NoiseAmplitude,
		NoiseFrequency:    g.Map.NoiseFrequency,
		RandomPhase:       g.Map.RandomPhase,
		BaseRadius:        g.Map.BaseRadius,
		ClaimRadius:       g.Map.ClaimRadius,
		StartingTroops:    g.Map.StartingTroops,
		PlacementAttempts: g.Map.PlacementAttempts,

		TickInterval: time.Duration(g.Tick.IntervalMS) * time.Millisecond,
		IncomeEvery:  g.Tick.IncomeEvery,
		BotEvery:     g.Tick.BotEvery,
		VictoryEvery: g.Tick.VictoryEvery,
		PurgeEvery:   g.Tick.PurgeEvery,

		CellGold:          g.Economy.CellGold,
		CellTroops:        g.Economy.CellTroops,
		AllianceBonus:     g.Economy.AllianceBonus,
		StartingGoldHuman: g.Economy.StartingGoldHuman,
		StartingGoldBot:   g.Economy.StartingGoldBot,
		ReinforceCost:     g.Economy.ReinforceCost,

		ExpandCost:          g.Combat.ExpandCost,
		NeutralSeedTroops:   g.Combat.NeutralSeedTroops,
		AttackLossFactor:    g.Combat.AttackLossFactor,
		SurvivalFactor:      g.Combat.SurvivalFactor,
		AlliedSupportFactor: g.Combat.AlliedSupportFactor,
		DiffEpsilon:         g.Combat.DiffEpsilon,

		Buildings: map[core.BuildingType]BuildingSpec{
			core.BuildingCity:     building(g.Buildings.City),
			core.BuildingPort:     port,
			core.BuildingOutpost:  outpost,
			core.BuildingBarracks: building(g.Buildings.Barracks),
		},

		VictoryThreshold: g.Rules.VictoryThreshold,
		MinParticipants:  g.Rules.MinParticipants,
		MaxPlayers:       g.Rules.MaxPlayers,
		AllianceTimeout:  g.Rules.AllianceTimeout,
		TradeTimeout:     g.Rules.TradeTimeout,
		BotDifficulty:    g.Rules.BotDifficulty,
		BotThinkMin:      g.Rules.BotThinkMin,
		BotThinkMax:      g.Rules.BotThinkMax,
	}
}

// Building returns the table row for b and whether b is constructible.
func (r *Rules) Building(b core.BuildingType) (BuildingSpec, bool) {
	spec, ok := r.Buildings[b]
	return spec, ok
}

// IncomeSeconds is the game time covered by one resource generation pass.
func (r *Rules) IncomeSeconds() float64 {
	return float64(r.IncomeEvery) * r.TickInterval.Seconds()
}

// MapConfig returns the land mask parameters for mapgen.
func (r *Rules) MapConfig() mapgen.MapConfig {
	mc := mapgen.DefaultMapConfig(r.MapWidth, r.MapHeight)
	mc.Threshold = r.MapThreshold
	mc.NoiseAmplitude = r.NoiseAmplitude
	mc.NoiseFrequency = r.NoiseFrequency
	mc.RandomPhase = r.RandomPhase
	return mc
}
