package rules

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

// Victory reasons
const (
	ReasonTerritory    = "territory"
	ReasonLastStanding = "last_standing"
)

// Outcome is the result of one victory check
type Outcome struct {
	Over   bool
	Winner string
	Reason string
	Share  float64 // winner's fraction of all land cells
}

// WinConditionChecker handles game over detection and winner determination
type WinConditionChecker struct {
	logger          zerolog.Logger
	threshold       float64
	originalPlayers int
}

// NewWinConditionChecker creates a checker declaring a winner once an actor
// owns threshold of all land cells, or is the only owner left in a match that
// started with more than one actor.
func NewWinConditionChecker(logger zerolog.Logger, threshold float64, originalPlayers int) *WinConditionChecker {
	return &WinConditionChecker{
		logger:          logger.With().Str("component", "WinConditionChecker").Logger(),
		threshold:       threshold,
		originalPlayers: originalPlayers,
	}
}

// CheckGameOver counts owned land cells per actor across the whole grid.
func (wc *WinConditionChecker) CheckGameOver(grid *core.Grid) Outcome {
	land := grid.CountLand()
	counts := grid.OwnedCounts()
	if land == 0 || len(counts) == 0 {
		wc.logger.Debug().Int("land", land).Msg("No owned land, no winner")
		return Outcome{}
	}

	leader, leaderCells := leaderOf(counts)
	share := float64(leaderCells) / float64(land)

	var out Outcome
	switch {
	case share >= wc.threshold:
		out = Outcome{Over: true, Winner: leader, Reason: ReasonTerritory, Share: share}
	case len(counts) == 1 && wc.originalPlayers > 1:
		out = Outcome{Over: true, Winner: leader, Reason: ReasonLastStanding, Share: share}
	}

	if out.Over {
		wc.logger.Info().
			Str("winner", out.Winner).
			Str("reason", out.Reason).
			Float64("share", share).
			Msg("Winner determined")
	} else {
		wc.logger.Debug().
			Str("leader", leader).
			Float64("share", share).
			Int("owners", len(counts)).
			Msg("Game over check complete")
	}
	return out
}

// leaderOf returns the actor with the most cells; ties go to the smaller id
// so the result does not depend on map iteration order.
func leaderOf(counts map[string]int) (string, int) {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best, bestCells := "", -1
	for _, id := range ids {
		if counts[id] > bestCells {
			best, bestCells = id, counts[id]
		}
	}
	return best, bestCells
}
