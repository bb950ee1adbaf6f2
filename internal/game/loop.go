package game

import (
	"context"
	"sort"
	"time"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/game/states"
)

// Step advances a playing room by one tick:
//  1. income every IncomeEvery ticks
//  2. bot decisions every BotEvery ticks
//  3. diplomacy purge every PurgeEvery ticks
//  4. delta broadcast of everything changed so far
//  5. victory check every VictoryEvery ticks
//
// Step is a no-op outside the playing phase.
func (r *Room) Step() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.step()
}

func (r *Room) step() {
	if r.machine.CurrentPhase() != states.PhasePlaying {
		return
	}
	r.tick++

	incomeTick := every(r.tick, r.rules.IncomeEvery)
	if incomeTick {
		r.economy.ProcessIncome(r.grid, r.actors, r.order, r.tick)
	}
	if every(r.tick, r.rules.BotEvery) {
		r.runBots()
	}
	if every(r.tick, r.rules.PurgeEvery) {
		r.purgeExpired()
	}
	r.flush(incomeTick)
	if every(r.tick, r.rules.VictoryEvery) {
		r.checkVictory()
	}
}

func every(tick, n int) bool {
	return n > 0 && tick%n == 0
}

// flush broadcasts every cell touched by an action plus every cell that
// drifted from the baseline, then moves the baseline to what was sent.
// Player snapshots ride along when cells changed or force is set.
func (r *Room) flush(force bool) {
	set := make(map[int]struct{}, len(r.dirty))
	for idx := range r.dirty {
		set[idx] = struct{}{}
	}
	if r.baseline != nil {
		for _, idx := range r.grid.ChangedIndices(r.baseline, r.rules.DiffEpsilon) {
			set[idx] = struct{}{}
		}
	}
	r.emit(set, force)
}

// flushDirty broadcasts only the cells touched since the last flush.
func (r *Room) flushDirty() {
	r.emit(r.dirty, false)
}

func (r *Room) emit(set map[int]struct{}, force bool) {
	if len(set) == 0 && !force {
		return
	}
	indices := make([]int, 0, len(set))
	for idx := range set {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]core.CellChange, 0, len(indices))
	for _, idx := range indices {
		out = append(out, r.grid.ChangeOf(idx))
		if r.baseline != nil {
			r.baseline.SyncCell(r.grid, idx)
		}
	}
	r.dirty = make(map[int]struct{})
	r.bus.Publish(events.NewGridUpdateEvent(r.code, r.tick, out, r.actorSnapshots()))
}

// checkVictory ends the match when one actor holds enough of the land or
// is the only owner left.
func (r *Room) checkVictory() {
	if r.victory == nil {
		return
	}
	outcome := r.victory.CheckGameOver(r.grid)
	if outcome.Over {
		r.finish(outcome.Winner, outcome.Reason)
	}
}

func (r *Room) finish(winnerID, reason string) {
	r.gctx.Winner = winnerID
	if err := r.machine.TransitionTo(states.PhaseFinished, reason); err != nil {
		r.logger.Error().Err(err).Str("winner", winnerID).Msg("Failed to finish game")
		return
	}
	r.economy.RecomputeDerived(r.grid, r.actors)
	r.lastActivity = r.now()

	var winner events.ActorSnapshot
	if a, ok := r.actors[winnerID]; ok {
		winner = a.Snapshot()
	}
	duration := r.gctx.GetElapsedTime()

	r.logger.Info().
		Str("winner", winnerID).
		Str("reason", reason).
		Int("tick", r.tick).
		Dur("duration", duration).
		Msg("Game over")
	r.bus.Publish(events.NewGameEndedEvent(r.code, winner, duration, r.tick, r.standings()))
	close(r.done)
}

// Run drives the tick loop. It waits for the playing phase, then steps
// every TickInterval until the match finishes or ctx is cancelled.
func (r *Room) Run(ctx context.Context) error {
	select {
	case <-r.started:
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	interval := r.rules.TickInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("Tick loop started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Tick loop cancelled")
			return ctx.Err()
		case <-r.done:
			r.logger.Info().Msg("Tick loop stopped")
			return nil
		case <-ticker.C:
			r.safeStep()
		}
	}
}

// safeStep runs one tick, logging a panic instead of killing the loop.
func (r *Room) safeStep() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Msg("Tick panicked")
		}
	}()
	r.Step()
}

// Tick returns the current tick count.
func (r *Room) Tick() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}
