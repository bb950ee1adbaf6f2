package states

import (
	"fmt"
	"sync"
	"time"

	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// State is the behaviour of one phase.
type State interface {
	Phase() GamePhase
	// Enter runs after the machine has switched to the phase. An error
	// reverts the switch.
	Enter(ctx *GameContext) error
	// Exit runs before leaving the phase. Errors are logged only.
	Exit(ctx *GameContext) error
	// Validate decides whether the phase may be entered now.
	Validate(ctx *GameContext) error
}

// Transition is one completed phase change.
type Transition struct {
	From      GamePhase
	To        GamePhase
	Timestamp time.Time
	Reason    string
}

// StateMachine moves a room forward through lobby, placement, playing and
// finished. A new machine starts in PhaseLobby. The history holds at most
// one entry per phase since phases never repeat.
type StateMachine struct {
	mu      sync.RWMutex
	phase   GamePhase
	states  map[GamePhase]State
	ctx     *GameContext
	history []Transition
	bus     events.Publisher
}

// NewStateMachine creates a machine in PhaseLobby. bus may be nil.
func NewStateMachine(ctx *GameContext, bus events.Publisher) *StateMachine {
	sm := &StateMachine{
		phase:   PhaseLobby,
		states:  make(map[GamePhase]State),
		ctx:     ctx,
		history: make([]Transition, 0, int(PhaseFinished)),
		bus:     bus,
	}
	for _, s := range []State{NewLobbyState(), NewPlacementState(), NewPlayingState(), NewFinishedState()} {
		sm.states[s.Phase()] = s
	}
	_ = sm.states[PhaseLobby].Enter(ctx)
	return sm
}

// RegisterState replaces the behaviour of one phase.
func (sm *StateMachine) RegisterState(state State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.states[state.Phase()] = state
}

func (sm *StateMachine) CurrentPhase() GamePhase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.phase
}

// TransitionTo moves to target. The transition is refused when it goes
// backwards or skips a phase, or when the target state does not validate.
func (sm *StateMachine) TransitionTo(target GamePhase, reason string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	from := sm.phase
	if !from.CanTransitionTo(target) {
		return fmt.Errorf("invalid transition from %s to %s", from, target)
	}
	next, ok := sm.states[target]
	if !ok {
		return fmt.Errorf("no state implementation for phase %s", target)
	}
	if err := next.Validate(sm.ctx); err != nil {
		return fmt.Errorf("target state validation failed: %w", err)
	}

	if cur, ok := sm.states[from]; ok {
		if err := cur.Exit(sm.ctx); err != nil {
			sm.ctx.Logger.Error().
				Err(err).
				Str("from_phase", from.String()).
				Str("to_phase", target.String()).
				Msg("Error exiting state")
		}
	}

	sm.phase = target
	if err := next.Enter(sm.ctx); err != nil {
		sm.phase = from
		return fmt.Errorf("failed to enter state %s: %w", target, err)
	}
	sm.history = append(sm.history, Transition{
		From:      from,
		To:        target,
		Timestamp: sm.ctx.Now(),
		Reason:    reason,
	})

	if sm.bus != nil {
		sm.bus.Publish(events.NewStateTransitionEvent(sm.ctx.GameID, from.String(), target.String(), reason))
	}
	sm.ctx.Logger.Info().
		Str("from_phase", from.String()).
		Str("to_phase", target.String()).
		Str("reason", reason).
		Msg("State transition completed")
	return nil
}

// GetHistory returns a copy of the transitions made so far.
func (sm *StateMachine) GetHistory() []Transition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]Transition, len(sm.history))
	copy(out, sm.history)
	return out
}

// CanTransitionTo reports whether target is the next phase.
func (sm *StateMachine) CanTransitionTo(target GamePhase) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.phase.CanTransitionTo(target)
}
